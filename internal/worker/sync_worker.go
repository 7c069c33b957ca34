// Package worker keeps the spreadsheet mirror in step with the ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// TransactionSource is the read side of the ledger the worker consults.
type TransactionSource interface {
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, f ledger.TransactionFilter) ([]core.Transaction, error)
}

// SyncWorker mirrors transaction events into a sheets.Mirror.
type SyncWorker struct {
	source    TransactionSource
	mirror    sheets.Mirror
	batchSize int
}

func NewSyncWorker(source TransactionSource, mirror sheets.Mirror, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SyncWorker{source: source, mirror: mirror, batchSize: batchSize}
}

// HandleEvent applies one transaction event to the mirror. Created and
// updated events are re-read from the ledger so the row reflects the stored
// state; a transaction gone by then is removed from the mirror.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"action", ev.Action,
		log.FieldTransaction, ev.ID,
		log.FieldUserID, ev.UserID)

	switch ev.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		t, err := w.source.GetTransaction(ctx, ev.UserID, ev.ID)
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction vanished before sync, removing row", log.FieldTransaction, ev.ID)
			return w.delete(ctx, ev.ID)
		}
		if err != nil {
			return fmt.Errorf("get transaction %d: %w", ev.ID, err)
		}
		if err := w.mirror.Upsert(ctx, sheets.RowFromTransaction(t)); err != nil {
			return fmt.Errorf("upsert transaction %d: %w", ev.ID, err)
		}
		fields := log.NewFields().
			WithOperation(log.OpSync).
			WithUser(t.UserID).
			WithTransaction(t.ID, t.Amount.String())
		slog.InfoContext(ctx, "Transaction mirrored", fields.ToSlice()...)
		return nil
	case amqp.ActionDeleted:
		return w.delete(ctx, ev.ID)
	default:
		return fmt.Errorf("unknown action %q", ev.Action)
	}
}

func (w *SyncWorker) delete(ctx context.Context, id int64) error {
	if err := w.mirror.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Transaction removed from mirror", log.FieldTransaction, id)
	return nil
}

// PushRange writes every transaction of userID dated within rng, page by
// page. It backfills the mirror after missed events or worker downtime.
func (w *SyncWorker) PushRange(ctx context.Context, userID int64, rng core.DateRange) (int, error) {
	if err := rng.Validate(); err != nil {
		return 0, err
	}
	pushed := 0
	for offset := 0; ; offset += w.batchSize {
		page, err := w.source.ListTransactions(ctx, userID, ledger.TransactionFilter{
			Start:  rng.Start,
			End:    rng.End,
			Limit:  w.batchSize,
			Offset: offset,
		})
		if err != nil {
			return pushed, fmt.Errorf("list transactions: %w", err)
		}
		for _, t := range page {
			if err := ctx.Err(); err != nil {
				return pushed, err
			}
			if err := w.mirror.Upsert(ctx, sheets.RowFromTransaction(t)); err != nil {
				return pushed, fmt.Errorf("upsert transaction %d: %w", t.ID, err)
			}
			pushed++
		}
		if len(page) < w.batchSize {
			break
		}
	}
	slog.InfoContext(ctx, "Mirror backfill completed",
		log.FieldUserID, userID,
		log.FieldRange, rng.String(),
		"pushed", pushed)
	return pushed, nil
}
