package main

import (
	"context"

	"pdm-backend/cmd/reportcsv/commands"
	"pdm-backend/lib/serviceutil"
	"pdm-backend/lib/telemetry"
)

func main() {
	ctx := context.Background()

	err := telemetry.SetupFromEnv(ctx, "reportcsv")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer telemetry.Shutdown(context.Background())
	telemetry.InitSlog(true)

	commands.ExecuteContext(ctx)
}
