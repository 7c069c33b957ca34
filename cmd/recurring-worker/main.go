package main

import (
	"context"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger(log.ComponentRecurring, "info")
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(log.ComponentRecurring, cfg.LogLevel)

	logger.Info("Starting recurring-worker", "interval", cfg.RecurringInterval, log.FieldBackend, cfg.DataBackend)

	res := cli.InitBackend(context.Background(), logger, cfg)
	engine := services.NewRecurrenceEngine(res.Store, res.Events)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Cleanup failed", log.FieldError, err)
		}
	})
	ctx = log.WithContext(ctx, logger)

	runPass(ctx, engine, time.Now())

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cli.WaitForShutdown(ctx, done)
			return
		case now := <-ticker.C:
			runPass(ctx, engine, now)
		}
	}
}

// runPass materializes every due template across all users. A failure is
// logged and retried on the next tick; the schedule guard keeps the retry
// from duplicating what already committed.
func runPass(ctx context.Context, engine *services.RecurrenceEngine, now time.Time) {
	logger := log.FromContext(ctx)
	start := time.Now()
	created, err := engine.ProcessAll(ctx, core.DateOf(now))
	fields := log.NewFields().
		WithOperation(log.OpProcess).
		WithDuration(time.Since(start).Milliseconds())
	fields[log.FieldProcessed] = created
	if err != nil {
		logger.ErrorContext(ctx, "Recurring pass failed", fields.WithError(err).ToSlice()...)
		return
	}
	logger.InfoContext(ctx, "Recurring pass complete", fields.ToSlice()...)
}
