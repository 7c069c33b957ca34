package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/storage/memory"
)

func money(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseAmount(s)
	require.NoError(t, err)
	return m
}

func day(y, m, d int) core.Date { return core.NewDate(y, m, d) }

// categoryID looks up a default category seeded by memory.New.
func categoryID(t *testing.T, s *memory.Store, name string) int64 {
	t.Helper()
	cats, err := s.VisibleCategories(context.Background(), 0)
	require.NoError(t, err)
	for _, c := range cats {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("no category %q", name)
	return 0
}

func seed(t *testing.T, s ledger.RecurringStore, tr core.Transaction) core.Transaction {
	t.Helper()
	err := s.WithinTx(context.Background(), func(tx ledger.Tx) error {
		id, err := tx.InsertTransaction(context.Background(), tr)
		tr.ID = id
		return err
	})
	require.NoError(t, err)
	return tr
}

type publishedEvent struct {
	action amqp.Action
	tx     core.Transaction
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) PublishTransaction(_ context.Context, action amqp.Action, t core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{action: action, tx: t})
	return nil
}

var errInjected = errors.New("injected failure")

// failingInsertStore fails inserts of occurrences materialized from failOn.
type failingInsertStore struct {
	*memory.Store
	failOn int64
}

func (f failingInsertStore) WithinTx(ctx context.Context, fn func(ledger.Tx) error) error {
	return f.Store.WithinTx(ctx, func(tx ledger.Tx) error {
		return fn(failingTx{Tx: tx, failOn: f.failOn})
	})
}

type failingTx struct {
	ledger.Tx
	failOn int64
}

func (t failingTx) InsertTransaction(ctx context.Context, tr core.Transaction) (int64, error) {
	if tr.SourceID == t.failOn {
		return 0, errInjected
	}
	return t.Tx.InsertTransaction(ctx, tr)
}

// staleStore replays a due list read before another pass advanced it.
type staleStore struct {
	*memory.Store
	due []core.Transaction
}

func (s staleStore) DueRecurring(context.Context, int64, core.Date) ([]core.Transaction, error) {
	return s.due, nil
}
