package commands

import (
	"context"
	"log/slog"
	"tribewatch-backend/lib/restyutil"
	"tribewatch-backend/lib/scrapers/twstats"
	"tribewatch-backend/lib/serviceutil"
	"tribewatch-backend/lib/telemetry"
)

func initTelemetry(ctx context.Context) {
	telemetry.InitSlog(*verbose)

	if *verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "tribewatch")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		tel.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !*verbose {
		return
	}

	twstats.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/twstats"),
	)
}
