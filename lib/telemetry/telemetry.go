package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"pdm-backend/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

var providers struct {
	tracer *trace.TracerProvider
	meter  *metric.MeterProvider
}

func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// searches up the filesystem from the cwd to find a file called
// telemetry.json5, once found it will then use it as a config to setup
// telemetry. a missing config file is not an error: exporters are simply
// not installed and tracing becomes a no-op.
func SetupFromEnv(ctx context.Context, serviceName string) error {
	config, err := configutil.ReadRecursively[config]("telemetry.json5")
	if os.IsNotExist(err) {
		slog.Debug("no telemetry.json5 found, telemetry export disabled")
		return nil
	}
	if err != nil {
		return err
	}
	return Setup(ctx, serviceName, config)
}

func Setup(ctx context.Context, serviceName string, config config) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return err
	}

	tracerProvider, err := newTraceProvider(ctx, r, config)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tracerProvider)
	providers.tracer = tracerProvider

	meterProvider, err := newMetricProvider(ctx, r, config)
	if err != nil {
		return err
	}
	otel.SetMeterProvider(meterProvider)
	providers.meter = meterProvider

	return nil
}

func Shutdown(ctx context.Context) error {
	var errlist []error
	if providers.tracer != nil {
		if err := providers.tracer.Shutdown(ctx); err != nil {
			errlist = append(errlist, err)
		}
		providers.tracer = nil
	}
	if providers.meter != nil {
		if err := providers.meter.Shutdown(ctx); err != nil {
			errlist = append(errlist, err)
		}
		providers.meter = nil
	}
	return errors.Join(errlist...)
}
