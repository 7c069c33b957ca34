package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

const recentTransactions = 5

// Dashboard summarizes the month containing Today.
type Dashboard struct {
	Today   core.Date
	Month   core.DateRange
	Income  core.Money
	Expense core.Money
	Balance core.Money
	Recent  []core.Transaction
	Alerts  []BudgetAlert
}

type DashboardService struct {
	txns    ledger.TransactionLister
	budgets *BudgetEvaluator
}

func NewDashboardService(txns ledger.TransactionLister, budgets *BudgetEvaluator) *DashboardService {
	return &DashboardService{txns: txns, budgets: budgets}
}

func (s *DashboardService) Build(ctx context.Context, userID int64, today core.Date) (Dashboard, error) {
	d := Dashboard{Today: today, Month: core.MonthRange(today)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.txns.SumByType(gctx, userID, core.Income, d.Month)
		if err != nil {
			return fmt.Errorf("month income: %w", err)
		}
		d.Income = m
		return nil
	})
	g.Go(func() error {
		m, err := s.txns.SumByType(gctx, userID, core.Expense, d.Month)
		if err != nil {
			return fmt.Errorf("month expense: %w", err)
		}
		d.Expense = m
		return nil
	})
	g.Go(func() error {
		recent, err := s.txns.ListTransactions(gctx, userID, ledger.TransactionFilter{Limit: recentTransactions})
		if err != nil {
			return fmt.Errorf("recent transactions: %w", err)
		}
		d.Recent = recent
		return nil
	})
	g.Go(func() error {
		alerts, err := s.budgets.Evaluate(gctx, userID)
		if err != nil {
			return fmt.Errorf("budget alerts: %w", err)
		}
		d.Alerts = alerts
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.Balance = d.Income.Sub(d.Expense)
	return d, nil
}
