package sheets

import (
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

func TestRowFromTransaction(t *testing.T) {
	tx := core.Transaction{
		ID:           4,
		UserID:       2,
		Amount:       core.Money{Cents: 1250},
		CategoryID:   3,
		CategoryName: "Groceries",
		Date:         core.NewDate(2024, 3, 9),
		Description:  "weekly shop",
		Type:         core.Expense,
		SourceID:     1,
	}
	r := RowFromTransaction(tx)
	want := Row{ID: 4, Date: "2024-03-09", Amount: "12.50", Type: "Expense", Category: "Groceries", Description: "weekly shop", UserID: 2, SourceID: 1}
	if r != want {
		t.Fatalf("got %+v, want %+v", r, want)
	}

	vals := r.Values()
	if len(vals) != len(Header) || vals[7] != "1" {
		t.Fatalf("unexpected values %v", vals)
	}
	if (Row{ID: 1}).Values()[7] != "" {
		t.Fatal("expected empty source cell")
	}
}

func TestRowFromEvent(t *testing.T) {
	ev := amqp.NewTransactionEvent(amqp.ActionCreated, core.Transaction{
		ID: 9, UserID: 1, Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 1, 1), Type: core.Income,
	})
	r := RowFromEvent(ev)
	if r.ID != 9 || r.Amount != "1.00" || r.Date != "2024-01-01" || r.UserID != 1 {
		t.Fatalf("unexpected row %+v", r)
	}
}
