package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/storage/memory"
)

func newTransactionService(store *memory.Store, pub EventPublisher) *TransactionService {
	return NewTransactionService(store, NewCategoryService(store, 0), pub)
}

func TestTransactionService_CreateSchedulesRecurring(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	svc := newTransactionService(store, pub)

	got, err := svc.Create(ctx, 1, core.Transaction{
		Amount: money(t, "20.00"), Date: day(2024, 1, 15), Type: core.Expense,
		Recurring: true, Frequency: core.Monthly, Description: "  gym  ",
	})
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, "2024-02-14", got.NextDate.String())
	assert.Equal(t, "gym", got.Description)

	stored, err := store.GetTransaction(ctx, 1, got.ID)
	require.NoError(t, err)
	assert.Equal(t, got.NextDate, stored.NextDate)

	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.ActionCreated, pub.events[0].action)
}

func TestTransactionService_CreateValidatesBeforeWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	svc := newTransactionService(store, pub)

	_, err := svc.Create(ctx, 1, core.Transaction{Date: day(2024, 1, 1), Type: core.Expense})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	_, ok := verr.Message("amount")
	assert.True(t, ok)

	_, err = svc.Create(ctx, 1, core.Transaction{Amount: money(t, "1.00"), Date: day(2024, 1, 1), Type: core.Expense, Frequency: core.Daily})
	assert.ErrorIs(t, err, core.ErrValidation)

	list, err := store.ListTransactions(ctx, 1, ledger.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, pub.events)
}

func TestTransactionService_CategoryMustBeVisible(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cats := NewCategoryService(store, 0)
	svc := NewTransactionService(store, cats, nil)

	private, err := cats.Create(ctx, 2, "Private")
	require.NoError(t, err)

	_, err = svc.Create(ctx, 1, core.Transaction{Amount: money(t, "1.00"), CategoryID: private.ID, Date: day(2024, 1, 1), Type: core.Expense})
	assert.ErrorIs(t, err, core.ErrNotFound)

	got, err := svc.Create(ctx, 1, core.Transaction{Amount: money(t, "1.00"), CategoryID: categoryID(t, store, "Health"), Date: day(2024, 1, 1), Type: core.Expense})
	require.NoError(t, err)
	assert.Equal(t, "Health", got.CategoryName)
}

func TestTransactionService_UpdateAndDeleteAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	svc := newTransactionService(store, pub)

	created, err := svc.Create(ctx, 1, core.Transaction{Amount: money(t, "1.00"), Date: day(2024, 1, 1), Type: core.Expense})
	require.NoError(t, err)

	edit := created
	edit.Amount = money(t, "2.50")
	_, err = svc.Update(ctx, 2, edit)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 2, created.ID), core.ErrNotFound)

	updated, err := svc.Update(ctx, 1, edit)
	require.NoError(t, err)
	assert.Equal(t, "2.50", updated.Amount.String())

	require.NoError(t, svc.Delete(ctx, 1, created.ID))
	_, err = svc.Get(ctx, 1, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	actions := make([]amqp.Action, len(pub.events))
	for i, e := range pub.events {
		actions[i] = e.action
	}
	assert.Equal(t, []amqp.Action{amqp.ActionCreated, amqp.ActionUpdated, amqp.ActionDeleted}, actions)
}

func TestTransactionService_UpdateKeepsOccurrenceLink(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTransactionService(store, nil)
	occ := seed(t, store, core.Transaction{
		UserID: 1, Amount: money(t, "9.99"), Date: day(2024, 1, 1), Type: core.Expense,
		Recurring: true, Frequency: core.Monthly, SourceID: 77,
	})

	occ.Description = "edited"
	occ.SourceID = 0
	got, err := svc.Update(ctx, 1, occ)
	require.NoError(t, err)
	assert.Equal(t, int64(77), got.SourceID)
	assert.True(t, got.NextDate.IsEmpty(), "occurrences are never rescheduled")
}

func TestTransactionService_ListPaging(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTransactionService(store, nil)
	for i := 1; i <= 12; i++ {
		seed(t, store, core.Transaction{UserID: 1, Amount: money(t, "1.00"), Date: day(2024, 1, i), Type: core.Expense})
	}

	page, err := svc.List(ctx, 1, ledger.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, page, DefaultPageSize)
	assert.Equal(t, "2024-01-12", page[0].Date.String())

	page, err = svc.List(ctx, 1, ledger.TransactionFilter{Offset: 10})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	_, err = svc.List(ctx, 1, ledger.TransactionFilter{Start: day(2024, 2, 1), End: day(2024, 1, 1)})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestTransactionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTransactionService(store, &fakePublisher{err: errors.New("broker down")})

	got, err := svc.Create(ctx, 1, core.Transaction{Amount: money(t, "1.00"), Date: day(2024, 1, 1), Type: core.Income})
	require.NoError(t, err)
	_, err = store.GetTransaction(ctx, 1, got.ID)
	assert.NoError(t, err)
}
