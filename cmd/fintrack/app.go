package main

import (
	"context"
	"fmt"
	"io"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// application holds the services one command invocation works with.
type application struct {
	cfg     *config.Config
	backend *backend.BackendResult

	categories   *services.CategoryService
	transactions *services.TransactionService
	budgets      *services.BudgetService
	evaluator    *services.BudgetEvaluator
	recurrence   *services.RecurrenceEngine
	reports      *services.ReportAggregator
	dashboard    *services.DashboardService
}

func newApplication(ctx context.Context, logOut io.Writer) (*application, error) {
	cli.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{Level: level, Component: log.ComponentCLI, Output: logOut})
	log.SetDefault(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("initialize backend: %w", err)
	}

	store := res.Store
	categories := services.NewCategoryService(store, cfg.CategoryCacheTTL)
	evaluator := services.NewBudgetEvaluator(store)
	return &application{
		cfg:          cfg,
		backend:      res,
		categories:   categories,
		transactions: services.NewTransactionService(store, categories, res.Events),
		budgets:      services.NewBudgetService(store, categories),
		evaluator:    evaluator,
		recurrence:   services.NewRecurrenceEngine(store, res.Events),
		reports:      services.NewReportAggregator(store),
		dashboard:    services.NewDashboardService(store, evaluator),
	}, nil
}

func (a *application) Close() error {
	if a.backend == nil || a.backend.Cleanup == nil {
		return nil
	}
	return a.backend.Cleanup()
}
