package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger(log.ComponentWorker, "info")
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(log.ComponentWorker, cfg.LogLevel)

	logger.Info("Starting sheets-worker")

	if cfg.AMQPURL == "" || !cfg.SheetsConfigured() {
		logger.Error("sheets-worker needs AMQP_URL and GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	res := cli.InitBackend(context.Background(), logger, cfg)
	if res.Mirror == nil {
		logger.Error("Google Sheets mirror not available")
		os.Exit(1)
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := consumer.Close(); err != nil {
			logger.Error("Failed to close AMQP consumer", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Cleanup failed", log.FieldError, err)
		}
	})

	syncWorker := worker.NewSyncWorker(res.Store, res.Mirror, cfg.SyncBatchSize)

	logger.Info("Consuming transaction events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := consumer.ConsumeTransactionEvents(ctx, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
