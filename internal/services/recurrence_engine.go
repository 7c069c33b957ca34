package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// EventPublisher announces committed ledger writes. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, action amqp.Action, t core.Transaction) error
}

// RecurrenceError reports a pass that stopped at TemplateID after Processed
// templates were committed. The failed template remains due.
type RecurrenceError struct {
	Processed  int
	TemplateID int64
	Err        error
}

func (e *RecurrenceError) Error() string {
	if e.TemplateID == 0 {
		return fmt.Sprintf("recurring pass failed after %d processed: %v", e.Processed, e.Err)
	}
	return fmt.Sprintf("recurring pass stopped at template %d after %d processed: %v", e.TemplateID, e.Processed, e.Err)
}

func (e *RecurrenceError) Unwrap() error { return e.Err }

// errAlreadyAdvanced rolls back a unit whose template was advanced by a
// concurrent pass.
var errAlreadyAdvanced = errors.New("template already advanced")

// RecurrenceEngine materializes due recurring templates.
type RecurrenceEngine struct {
	store  ledger.RecurringStore
	events EventPublisher
}

// NewRecurrenceEngine returns an engine. events may be nil.
func NewRecurrenceEngine(store ledger.RecurringStore, events EventPublisher) *RecurrenceEngine {
	return &RecurrenceEngine{store: store, events: events}
}

// Process materializes at most one occurrence, dated today, for every
// template of userID whose next occurrence is on or before today. It returns
// how many templates were processed.
func (e *RecurrenceEngine) Process(ctx context.Context, userID int64, today core.Date) (int, error) {
	if e.store == nil {
		return 0, fmt.Errorf("recurrence engine not properly initialized")
	}

	due, err := e.store.DueRecurring(ctx, userID, today)
	if err != nil {
		return 0, &RecurrenceError{Err: fmt.Errorf("fetch due templates: %w", err)}
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"user_id", userID,
		"due", len(due),
		"today", today.String())

	processed := 0
	for _, tpl := range due {
		occurrence, err := e.processOne(ctx, tpl, today)
		if errors.Is(err, errAlreadyAdvanced) {
			slog.InfoContext(ctx, "Recurring template already processed, skipping",
				"template_id", tpl.ID,
				"user_id", userID)
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize recurring transaction",
				"template_id", tpl.ID,
				"user_id", userID,
				"processed", processed,
				"error", err)
			return processed, &RecurrenceError{Processed: processed, TemplateID: tpl.ID, Err: err}
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"template_id", tpl.ID,
			"transaction_id", occurrence.ID,
			"amount", occurrence.Amount.String(),
			"frequency", tpl.Frequency)
		e.publish(ctx, occurrence)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"user_id", userID,
		"processed", processed,
		"total_checked", len(due))
	return processed, nil
}

// processOne advances tpl and inserts its occurrence in one unit.
func (e *RecurrenceEngine) processOne(ctx context.Context, tpl core.Transaction, today core.Date) (core.Transaction, error) {
	next, err := NextOccurrence(tpl.Frequency, tpl.NextDate)
	if err != nil {
		return core.Transaction{}, err
	}

	occurrence := core.Transaction{
		UserID:       tpl.UserID,
		Amount:       tpl.Amount,
		CategoryID:   tpl.CategoryID,
		CategoryName: tpl.CategoryName,
		Date:         today,
		Description:  tpl.Description,
		Type:         tpl.Type,
		Recurring:    tpl.Recurring,
		Frequency:    tpl.Frequency,
		SourceID:     tpl.ID,
	}

	err = e.store.WithinTx(ctx, func(tx ledger.Tx) error {
		ok, err := tx.AdvanceSchedule(ctx, tpl.UserID, tpl.ID, tpl.NextDate, next)
		if err != nil {
			return fmt.Errorf("advance template: %w", err)
		}
		if !ok {
			return errAlreadyAdvanced
		}
		id, err := tx.InsertTransaction(ctx, occurrence)
		if err != nil {
			return fmt.Errorf("insert occurrence: %w", err)
		}
		occurrence.ID = id
		return nil
	})
	return occurrence, err
}

// ProcessAll runs Process for every user owning a due template. It stops at
// the first failing user and returns the total processed so far.
func (e *RecurrenceEngine) ProcessAll(ctx context.Context, today core.Date) (int, error) {
	users, err := e.store.UsersWithDueRecurring(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list users with due templates: %w", err)
	}

	total := 0
	for _, userID := range users {
		n, err := e.Process(ctx, userID, today)
		total += n
		if err != nil {
			return total, fmt.Errorf("user %d: %w", userID, err)
		}
	}
	return total, nil
}

func (e *RecurrenceEngine) publish(ctx context.Context, t core.Transaction) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishTransaction(ctx, amqp.ActionCreated, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", t.ID, "error", err)
	}
}
