package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"threadscrape/cmd/threadscrape/commands"
	"threadscrape/lib/telemetry"
	"threadscrape/lib/util/serviceutil"
	"time"
)

func main() {
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "threadscrape")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to setup telemetry", "err", err.Error())
	}
	if err == nil {
		telemetry.InstrumentPerfStats(ctx, 15*time.Second)
	}

	code := commands.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(shutdownCtx); err != nil {
		slog.Warn("failed to flush telemetry", "err", err.Error())
	}
	os.Exit(code)
}
