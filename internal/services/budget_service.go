package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type BudgetService struct {
	store      ledger.BudgetStore
	categories *CategoryService
}

func NewBudgetService(store ledger.BudgetStore, categories *CategoryService) *BudgetService {
	return &BudgetService{store: store, categories: categories}
}

// List returns every budget of userID, latest window first.
func (s *BudgetService) List(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID)
}

func (s *BudgetService) Get(ctx context.Context, userID, id int64) (core.Budget, error) {
	return s.store.GetBudget(ctx, userID, id)
}

func (s *BudgetService) Create(ctx context.Context, userID int64, b core.Budget) (core.Budget, error) {
	b.ID = 0
	b.UserID = userID
	if err := s.prepare(ctx, &b); err != nil {
		return core.Budget{}, err
	}
	id, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	b.ID = id
	slog.InfoContext(ctx, "Budget added",
		"budget_id", id,
		"user_id", userID,
		"category", b.CategoryName,
		"window", b.Window().String())
	return b, nil
}

func (s *BudgetService) Update(ctx context.Context, userID int64, b core.Budget) (core.Budget, error) {
	if _, err := s.store.GetBudget(ctx, userID, b.ID); err != nil {
		return core.Budget{}, err
	}
	b.UserID = userID
	if err := s.prepare(ctx, &b); err != nil {
		return core.Budget{}, err
	}
	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteBudget(ctx, userID, id)
}

func (s *BudgetService) prepare(ctx context.Context, b *core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	c, err := s.categories.Resolve(ctx, b.UserID, b.CategoryID)
	if err != nil {
		return fmt.Errorf("category %d: %w", b.CategoryID, err)
	}
	b.CategoryName = c.Name
	return nil
}
