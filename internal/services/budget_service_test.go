package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

func TestBudgetService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cats := NewCategoryService(store, 0)
	svc := NewBudgetService(store, cats)
	groceries := categoryID(t, store, "Groceries")

	b := core.Budget{
		CategoryID: groceries, Amount: money(t, "100.00"),
		StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 31), Active: true,
	}
	created, err := svc.Create(ctx, 1, b)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", created.CategoryName)

	_, err = svc.Create(ctx, 1, b)
	assert.ErrorIs(t, err, core.ErrConflict)

	// Same window for another user is fine.
	_, err = svc.Create(ctx, 2, b)
	require.NoError(t, err)

	bad := b
	bad.EndDate = day(2023, 12, 1)
	_, err = svc.Create(ctx, 1, bad)
	assert.ErrorIs(t, err, core.ErrValidation)

	private, err := cats.Create(ctx, 2, "Secret")
	require.NoError(t, err)
	foreign := b
	foreign.CategoryID = private.ID
	_, err = svc.Create(ctx, 1, foreign)
	assert.ErrorIs(t, err, core.ErrNotFound)

	created.Amount = money(t, "120.00")
	created.Active = false
	_, err = svc.Update(ctx, 2, created)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = svc.Update(ctx, 1, created)
	require.NoError(t, err)

	got, err := svc.Get(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "120.00", got.Amount.String())
	assert.False(t, got.Active)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, 1, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, 1, created.ID), core.ErrNotFound)
}
