package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/sheets"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage/memory"
)

func insert(t *testing.T, store *memory.Store, tx core.Transaction) core.Transaction {
	t.Helper()
	err := store.WithinTx(context.Background(), func(x ledger.Tx) error {
		id, err := x.InsertTransaction(context.Background(), tx)
		tx.ID = id
		return err
	})
	require.NoError(t, err)
	return tx
}

func expense(userID, cents int64, d core.Date) core.Transaction {
	return core.Transaction{UserID: userID, Amount: core.Money{Cents: cents}, Date: d, Type: core.Expense, Description: "coffee"}
}

func TestHandleEventCreatedAndUpdated(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, 10)

	tx := insert(t, store, expense(1, 350, core.NewDate(2024, 5, 2)))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.ActionCreated, tx)))

	rows := mirror.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "3.50", rows[0].Amount)

	tx.Amount = core.Money{Cents: 400}
	require.NoError(t, store.WithinTx(ctx, func(x ledger.Tx) error { return x.UpdateTransaction(ctx, tx) }))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEvent(amqp.ActionUpdated, tx)))

	rows = mirror.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "4.00", rows[0].Amount)
}

func TestHandleEventDeleted(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, 10)

	require.NoError(t, mirror.Upsert(ctx, sheets.Row{ID: 5}))
	require.NoError(t, w.HandleEvent(ctx, &amqp.TransactionEvent{Action: amqp.ActionDeleted, ID: 5, UserID: 1}))
	assert.Empty(t, mirror.Rows())
}

func TestHandleEventMissingTransactionRemovesRow(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, 10)

	require.NoError(t, mirror.Upsert(ctx, sheets.Row{ID: 42}))
	require.NoError(t, w.HandleEvent(ctx, &amqp.TransactionEvent{Action: amqp.ActionUpdated, ID: 42, UserID: 1}))
	assert.Empty(t, mirror.Rows())
}

func TestHandleEventUnknownAction(t *testing.T) {
	w := NewSyncWorker(memory.New(), sheetsmem.New(), 10)
	err := w.HandleEvent(context.Background(), &amqp.TransactionEvent{Action: "transaction.archived", ID: 1})
	assert.Error(t, err)
}

type failingMirror struct{ sheets.Mirror }

var errMirror = errors.New("sheets down")

func (failingMirror) Upsert(context.Context, sheets.Row) error { return errMirror }

func TestHandleEventMirrorFailure(t *testing.T) {
	store := memory.New()
	w := NewSyncWorker(store, failingMirror{}, 10)
	tx := insert(t, store, expense(1, 100, core.NewDate(2024, 1, 1)))
	err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(amqp.ActionCreated, tx))
	assert.ErrorIs(t, err, errMirror)
}

func TestPushRangePagesThroughUserTransactions(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, 2)

	for day := 1; day <= 5; day++ {
		insert(t, store, expense(1, int64(day*100), core.NewDate(2024, 3, day)))
	}
	insert(t, store, expense(1, 999, core.NewDate(2024, 4, 1)))
	insert(t, store, expense(2, 999, core.NewDate(2024, 3, 2)))

	rng := core.DateRange{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}
	n, err := w.PushRange(ctx, 1, rng)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, mirror.Rows(), 5)

	_, err = w.PushRange(ctx, 1, core.DateRange{Start: rng.End, End: rng.Start})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestHandleEventLogsTransactionFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	store := memory.New()
	w := NewSyncWorker(store, sheetsmem.New(), 10)
	tx := insert(t, store, expense(4, 1250, core.NewDate(2024, 6, 1)))

	require.NoError(t, w.HandleEvent(context.Background(), &amqp.TransactionEvent{
		Action: amqp.ActionCreated, ID: tx.ID, UserID: 4,
	}))

	out := buf.String()
	assert.Contains(t, out, "operation=sync")
	assert.Contains(t, out, "user_id=4")
	assert.Contains(t, out, "amount=12.50")
	assert.Contains(t, out, "transaction_id=")
}
