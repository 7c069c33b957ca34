// Package ledger defines the owner-scoped Ledger Store ports consumed by the
// services. Every call takes the owning user explicitly; rows owned by
// another user are reported as core.ErrNotFound.
package ledger

import (
	"context"

	"fintrack/internal/core"
)

// TransactionFilter narrows TransactionLister.ListTransactions. Zero values
// mean "no constraint".
type TransactionFilter struct {
	Start      core.Date
	End        core.Date
	CategoryID int64
	Type       core.TransactionType
	// Query matches description, category name or amount text, case-insensitively.
	Query  string
	Limit  int
	Offset int
}

// Ports for the Ledger Store.
type (
	CategoryStore interface {
		// VisibleCategories returns the user's own categories plus the defaults, ordered by name.
		VisibleCategories(ctx context.Context, userID int64) ([]core.Category, error)
		// VisibleCategory returns an own or default category.
		VisibleCategory(ctx context.Context, userID, id int64) (core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (int64, error)
		// RenameCategory and DeleteCategory only touch categories owned by userID.
		RenameCategory(ctx context.Context, userID, id int64, name string) error
		DeleteCategory(ctx context.Context, userID, id int64) error
	}

	BudgetReader interface {
		// ActiveBudgets returns active budgets ordered by start date desc, then id.
		ActiveBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
		// SumExpenses sums Expense amounts in categoryID within rng (inclusive).
		SumExpenses(ctx context.Context, userID, categoryID int64, rng core.DateRange) (core.Money, error)
	}

	BudgetStore interface {
		BudgetReader
		// ListBudgets returns every budget of the user ordered by start date desc, then id.
		ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
		GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (int64, error)
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, userID, id int64) error
	}

	TransactionLister interface {
		// TransactionsInRange returns transactions dated within rng, date ascending.
		TransactionsInRange(ctx context.Context, userID int64, rng core.DateRange) ([]core.Transaction, error)
		// ListTransactions returns transactions ordered by date desc, id desc.
		ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error)
		// SumByType sums amounts of type typ within rng.
		SumByType(ctx context.Context, userID int64, typ core.TransactionType, rng core.DateRange) (core.Money, error)
	}

	TransactionStore interface {
		TransactionLister
		GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id int64) error
		RecurringStore
	}

	// Tx is an atomic unit of writes against the store.
	Tx interface {
		InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		// AdvanceSchedule moves a template's next occurrence from `from` to `to`.
		// It returns false when the stored date no longer equals `from`.
		AdvanceSchedule(ctx context.Context, userID, id int64, from, to core.Date) (bool, error)
	}

	RecurringStore interface {
		// DueRecurring returns templates with next occurrence <= today, by next date then id.
		DueRecurring(ctx context.Context, userID int64, today core.Date) ([]core.Transaction, error)
		// UsersWithDueRecurring lists users owning at least one due template.
		UsersWithDueRecurring(ctx context.Context, today core.Date) ([]int64, error)
		// WithinTx runs fn in one atomic unit; any error rolls every write back.
		WithinTx(ctx context.Context, fn func(Tx) error) error
	}

	// Store is the full Ledger Store.
	Store interface {
		CategoryStore
		BudgetStore
		TransactionStore
		Close() error
	}
)
