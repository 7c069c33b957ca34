package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// BudgetAlert flags a budget whose expenses exceed its amount.
type BudgetAlert struct {
	BudgetID     int64
	CategoryID   int64
	CategoryName string
	Budget       core.Money
	Spent        core.Money
	Overspend    core.Money
}

// BudgetStatus is the progress of one budget within its window.
type BudgetStatus struct {
	Budget    core.Budget
	Spent     core.Money
	Remaining core.Money // negative when overspent
	Overspent bool
}

type BudgetEvaluator struct {
	store ledger.BudgetReader
}

func NewBudgetEvaluator(store ledger.BudgetReader) *BudgetEvaluator {
	return &BudgetEvaluator{store: store}
}

// Evaluate returns an alert for every active budget of userID that is
// overspent, in budget order. It never writes.
func (e *BudgetEvaluator) Evaluate(ctx context.Context, userID int64) ([]BudgetAlert, error) {
	budgets, err := e.store.ActiveBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch active budgets: %w", err)
	}
	return e.EvaluateBudgets(ctx, userID, budgets)
}

// EvaluateBudgets is Evaluate over an explicit budget set.
func (e *BudgetEvaluator) EvaluateBudgets(ctx context.Context, userID int64, budgets []core.Budget) ([]BudgetAlert, error) {
	var alerts []BudgetAlert
	for _, b := range budgets {
		spent, err := e.store.SumExpenses(ctx, userID, b.CategoryID, b.Window())
		if err != nil {
			return nil, fmt.Errorf("sum expenses for budget %d: %w", b.ID, err)
		}
		if !spent.GreaterThan(b.Amount) {
			continue
		}
		alerts = append(alerts, BudgetAlert{
			BudgetID:     b.ID,
			CategoryID:   b.CategoryID,
			CategoryName: b.CategoryName,
			Budget:       b.Amount,
			Spent:        spent,
			Overspend:    spent.Sub(b.Amount),
		})
	}
	return alerts, nil
}

// Status reports progress for every active budget of userID.
func (e *BudgetEvaluator) Status(ctx context.Context, userID int64) ([]BudgetStatus, error) {
	budgets, err := e.store.ActiveBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch active budgets: %w", err)
	}
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent, err := e.store.SumExpenses(ctx, userID, b.CategoryID, b.Window())
		if err != nil {
			return nil, fmt.Errorf("sum expenses for budget %d: %w", b.ID, err)
		}
		out = append(out, BudgetStatus{
			Budget:    b,
			Spent:     spent,
			Remaining: b.Amount.Sub(spent),
			Overspent: spent.GreaterThan(b.Amount),
		})
	}
	return out, nil
}
