package main

import (
	"context"
	"net/http"
	"time"

	"pdm-backend/lib/configutil"
	"pdm-backend/lib/serviceutil"
	"pdm-backend/lib/telemetry"
	"pdm-backend/services/apm"
	"pdm-backend/services/apm/monitor"
)

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(true)
	err := telemetry.SetupFromEnv(ctx, "apmmonitord")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer telemetry.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	store, err := monitor.OpenStore(config.Database)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	defer store.Close()

	client := apm.NewClient(config.Apm)
	err = client.InitIndicators(ctx, config.Features)
	if err != nil {
		serviceutil.Fatal("failed to initialize indicators", err)
	}

	features := make([]string, 0, len(config.Features))
	for _, name := range config.Features {
		features = append(features, name)
	}

	predictor := monitor.ThresholdPredictor{Rules: config.Thresholds}
	m := monitor.New(
		client,
		store,
		predictor,
		time.Duration(config.PollInterval)*time.Second,
		config.MachineType,
		features,
	)
	go m.Run(ctx)

	mux := http.NewServeMux()
	NewService(client, store, predictor).Register(mux)
	go serviceutil.StartHttpServer(config.Port, mux)

	<-ctx.Done()
}
