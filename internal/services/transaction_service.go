package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// DefaultPageSize applies when a list filter carries no limit.
const DefaultPageSize = 10

// TransactionService orchestrates transaction writes across the ledger and
// the event publisher.
type TransactionService struct {
	store      ledger.TransactionStore
	categories *CategoryService
	events     EventPublisher
}

// NewTransactionService wires the service. events may be nil.
func NewTransactionService(store ledger.TransactionStore, categories *CategoryService, events EventPublisher) *TransactionService {
	return &TransactionService{store: store, categories: categories, events: events}
}

// List returns one page of the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID int64, f ledger.TransactionFilter) ([]core.Transaction, error) {
	if !f.Start.IsEmpty() && !f.End.IsEmpty() {
		if err := (core.DateRange{Start: f.Start, End: f.End}).Validate(); err != nil {
			return nil, err
		}
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	list, err := s.store.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return list, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

// Create validates and stores t for userID. A recurring transaction without
// a next occurrence is scheduled one period after its date.
func (s *TransactionService) Create(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	t.ID = 0
	t.UserID = userID
	t.SourceID = 0
	if err := s.prepare(ctx, &t); err != nil {
		return core.Transaction{}, err
	}

	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		id, err := tx.InsertTransaction(ctx, t)
		t.ID = id
		return err
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"user_id", userID,
		"type", t.Type.Label(),
		"amount", t.Amount.String(),
		"recurring", t.Recurring)
	s.publish(ctx, amqp.ActionCreated, t)
	return t, nil
}

// Update replaces the editable fields of an owned transaction.
func (s *TransactionService) Update(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	existing, err := s.store.GetTransaction(ctx, userID, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.UserID = userID
	t.SourceID = existing.SourceID
	if err := s.prepare(ctx, &t); err != nil {
		return core.Transaction{}, err
	}

	err = s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		return tx.UpdateTransaction(ctx, t)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	s.publish(ctx, amqp.ActionUpdated, t)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id, "user_id", userID)
	s.publish(ctx, amqp.ActionDeleted, core.Transaction{ID: id, UserID: userID})
	return nil
}

// Export writes every transaction of userID as CSV, newest first.
func (s *TransactionService) Export(ctx context.Context, userID int64, w io.Writer) error {
	txns, err := s.store.ListTransactions(ctx, userID, ledger.TransactionFilter{})
	if err != nil {
		return fmt.Errorf("fetch transactions for export: %w", err)
	}
	return ExportCSV(w, txns)
}

// prepare normalizes t, fills derived fields and validates it before any write.
func (s *TransactionService) prepare(ctx context.Context, t *core.Transaction) error {
	t.Description = strings.TrimSpace(t.Description)
	if t.IsTemplate() && t.NextDate.IsEmpty() && t.Frequency.Valid() && !t.Date.IsZero() {
		next, err := NextOccurrence(t.Frequency, t.Date)
		if err != nil {
			return err
		}
		t.NextDate = next
	}
	if err := t.Validate(); err != nil {
		return err
	}

	t.CategoryName = ""
	if t.CategoryID != 0 {
		c, err := s.categories.Resolve(ctx, t.UserID, t.CategoryID)
		if err != nil {
			return fmt.Errorf("category %d: %w", t.CategoryID, err)
		}
		t.CategoryName = c.Name
	}
	return nil
}

func (s *TransactionService) publish(ctx context.Context, action amqp.Action, t core.Transaction) {
	if s.events == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping", "action", action)
		return
	}
	if err := s.events.PublishTransaction(ctx, action, t); err != nil {
		// The write is committed; the event is best effort.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action, "transaction_id", t.ID, "error", err)
	}
}
