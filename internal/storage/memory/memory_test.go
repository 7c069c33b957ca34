package memory

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

func mustInsert(t *testing.T, s *Store, tr core.Transaction) int64 {
	t.Helper()
	var id int64
	err := s.WithinTx(context.Background(), func(tx ledger.Tx) error {
		var err error
		id, err = tx.InsertTransaction(context.Background(), tr)
		return err
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return id
}

func TestNewSeedsDefaults(t *testing.T) {
	s := New(" Food ", "Food", "", "Bills")
	cats, _ := s.VisibleCategories(context.Background(), 1)
	if len(cats) != 2 || cats[0].Name != "Bills" || cats[1].Name != "Food" {
		t.Fatalf("unexpected defaults: %+v", cats)
	}
	for _, c := range cats {
		if !c.IsDefault {
			t.Fatalf("%s should be default", c.Name)
		}
	}
	if got, _ := New().VisibleCategories(context.Background(), 1); len(got) != len(DefaultCategories) {
		t.Fatalf("expected %d defaults, got %d", len(DefaultCategories), len(got))
	}
}

func TestCategoryScoping(t *testing.T) {
	ctx := context.Background()
	s := New("Food")
	id, err := s.CreateCategory(ctx, core.Category{UserID: 1, Name: "Books"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateCategory(ctx, core.Category{UserID: 1, Name: "Books"}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := s.VisibleCategory(ctx, 2, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
	if err := s.DeleteCategory(ctx, 1, 1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("default category must not be deletable, got %v", err)
	}
	txID := mustInsert(t, s, core.Transaction{UserID: 1, Amount: core.Money{Cents: 100}, CategoryID: id, Date: core.NewDate(2024, 1, 1), Type: core.Expense})
	if err := s.DeleteCategory(ctx, 1, id); err != nil {
		t.Fatal(err)
	}
	tr, err := s.GetTransaction(ctx, 1, txID)
	if err != nil || tr.CategoryID != 0 {
		t.Fatalf("transaction should survive uncategorized: %+v %v", tr, err)
	}
}

func TestWithinTxRestoresOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx ledger.Tx) error {
		_, _ = tx.InsertTransaction(ctx, core.Transaction{UserID: 1, Amount: core.Money{Cents: 1}, Date: core.NewDate(2024, 1, 1), Type: core.Income})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if list, _ := s.ListTransactions(ctx, 1, ledger.TransactionFilter{}); len(list) != 0 {
		t.Fatalf("expected rollback, got %d rows", len(list))
	}
}

func TestAdvanceScheduleCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := mustInsert(t, s, core.Transaction{
		UserID: 1, Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 1, 1), Type: core.Income,
		Recurring: true, Frequency: core.Weekly, NextDate: core.NewDate(2024, 1, 8),
	})
	advance := func() bool {
		var ok bool
		_ = s.WithinTx(ctx, func(tx ledger.Tx) error {
			var err error
			ok, err = tx.AdvanceSchedule(ctx, 1, id, core.NewDate(2024, 1, 8), core.NewDate(2024, 1, 15))
			return err
		})
		return ok
	}
	if !advance() {
		t.Fatal("first advance should win")
	}
	if advance() {
		t.Fatal("second advance with stale date should lose")
	}
}

func TestListTransactionsOrderAndPaging(t *testing.T) {
	ctx := context.Background()
	s := New("Food")
	a := mustInsert(t, s, core.Transaction{UserID: 1, Amount: core.Money{Cents: 1250}, CategoryID: 1, Date: core.NewDate(2024, 1, 5), Description: "Pizza", Type: core.Expense})
	b := mustInsert(t, s, core.Transaction{UserID: 1, Amount: core.Money{Cents: 500}, Date: core.NewDate(2024, 1, 5), Type: core.Income})
	c := mustInsert(t, s, core.Transaction{UserID: 1, Amount: core.Money{Cents: 700}, Date: core.NewDate(2024, 1, 9), Type: core.Expense})

	list, _ := s.ListTransactions(ctx, 1, ledger.TransactionFilter{})
	if len(list) != 3 || list[0].ID != c || list[1].ID != b || list[2].ID != a {
		t.Fatalf("unexpected order: %+v", list)
	}
	list, _ = s.ListTransactions(ctx, 1, ledger.TransactionFilter{Query: "food"})
	if len(list) != 1 || list[0].ID != a {
		t.Fatalf("expected category name match, got %+v", list)
	}
	list, _ = s.ListTransactions(ctx, 1, ledger.TransactionFilter{Limit: 1, Offset: 2})
	if len(list) != 1 || list[0].ID != a {
		t.Fatalf("unexpected page: %+v", list)
	}
	if list, _ = s.ListTransactions(ctx, 1, ledger.TransactionFilter{Offset: 5}); len(list) != 0 {
		t.Fatalf("expected empty page, got %+v", list)
	}
}
