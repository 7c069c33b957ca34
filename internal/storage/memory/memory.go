// Package memory is an in-process Ledger Store used by tests and the
// memory backend. It mirrors the SQLite store's ordering and scoping rules.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// DefaultCategories are seeded as shared categories by New.
var DefaultCategories = []string{
	"Dining", "Entertainment", "Groceries", "Health", "Housing",
	"Other", "Salary", "Transport", "Utilities",
}

type Store struct {
	mu      sync.Mutex
	nextID  int64
	cats    []core.Category
	budgets []core.Budget
	txs     []core.Transaction
}

var _ ledger.Store = (*Store)(nil)

// New returns a store seeded with the given default category names.
// With no names, DefaultCategories are used.
func New(defaults ...string) *Store {
	if len(defaults) == 0 {
		defaults = DefaultCategories
	}
	s := &Store{}
	for _, name := range dedupeSorted(defaults) {
		s.cats = append(s.cats, core.Category{ID: s.id(), Name: name, IsDefault: true})
	}
	return s
}

func (s *Store) Close() error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func visible(c core.Category, userID int64) bool {
	return c.UserID == userID || c.UserID == 0
}

func (s *Store) categoryName(id int64) string {
	for _, c := range s.cats {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func (s *Store) VisibleCategories(_ context.Context, userID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.cats {
		if visible(c, userID) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) VisibleCategory(_ context.Context, userID, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cats {
		if c.ID == id && visible(c, userID) {
			return c, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (s *Store) nameTaken(userID, skipID int64, name string) bool {
	for _, c := range s.cats {
		if c.UserID == userID && c.ID != skipID && c.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Name = strings.TrimSpace(c.Name)
	if s.nameTaken(c.UserID, 0, c.Name) {
		return 0, fmt.Errorf("create category: %w", core.ErrConflict)
	}
	c.ID = s.id()
	c.IsDefault = false
	s.cats = append(s.cats, c)
	return c.ID, nil
}

func (s *Store) ownedCategory(userID, id int64) int {
	return slices.IndexFunc(s.cats, func(c core.Category) bool {
		return c.ID == id && c.UserID == userID && userID != 0 && !c.IsDefault
	})
}

func (s *Store) RenameCategory(_ context.Context, userID, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ownedCategory(userID, id)
	if i < 0 {
		return core.ErrNotFound
	}
	name = strings.TrimSpace(name)
	if s.nameTaken(userID, id, name) {
		return fmt.Errorf("rename category: %w", core.ErrConflict)
	}
	s.cats[i].Name = name
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ownedCategory(userID, id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.cats = slices.Delete(s.cats, i, i+1)
	for j := range s.txs {
		if s.txs[j].CategoryID == id {
			s.txs[j].CategoryID = 0
		}
	}
	s.budgets = slices.DeleteFunc(s.budgets, func(b core.Budget) bool { return b.CategoryID == id })
	return nil
}

func sortBudgets(list []core.Budget) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].StartDate.Equal(list[j].StartDate) {
			return list[i].StartDate.After(list[j].StartDate)
		}
		return list[i].ID < list[j].ID
	})
}

func (s *Store) budgetsWhere(userID int64, keep func(core.Budget) bool) []core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID && keep(b) {
			b.CategoryName = s.categoryName(b.CategoryID)
			out = append(out, b)
		}
	}
	sortBudgets(out)
	return out
}

func (s *Store) ActiveBudgets(_ context.Context, userID int64) ([]core.Budget, error) {
	return s.budgetsWhere(userID, func(b core.Budget) bool { return b.Active }), nil
}

func (s *Store) ListBudgets(_ context.Context, userID int64) ([]core.Budget, error) {
	return s.budgetsWhere(userID, func(core.Budget) bool { return true }), nil
}

func (s *Store) GetBudget(_ context.Context, userID, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.ID == id && b.UserID == userID {
			b.CategoryName = s.categoryName(b.CategoryID)
			return b, nil
		}
	}
	return core.Budget{}, core.ErrNotFound
}

func (s *Store) budgetClash(b core.Budget) bool {
	for _, o := range s.budgets {
		if o.ID != b.ID && o.UserID == b.UserID && o.CategoryID == b.CategoryID &&
			o.StartDate.Equal(b.StartDate) && o.EndDate.Equal(b.EndDate) {
			return true
		}
	}
	return false
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryName(b.CategoryID) == "" {
		return 0, fmt.Errorf("create budget: category %d: %w", b.CategoryID, core.ErrNotFound)
	}
	b.ID = 0
	if s.budgetClash(b) {
		return 0, fmt.Errorf("create budget: %w", core.ErrConflict)
	}
	b.ID = s.id()
	b.CategoryName = ""
	s.budgets = append(s.budgets, b)
	return b.ID, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.budgets, func(o core.Budget) bool { return o.ID == b.ID && o.UserID == b.UserID })
	if i < 0 {
		return core.ErrNotFound
	}
	if s.budgetClash(b) {
		return fmt.Errorf("update budget: %w", core.ErrConflict)
	}
	b.CategoryName = ""
	s.budgets[i] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.budgets, func(o core.Budget) bool { return o.ID == id && o.UserID == userID })
	if i < 0 {
		return core.ErrNotFound
	}
	s.budgets = slices.Delete(s.budgets, i, i+1)
	return nil
}

func (s *Store) SumExpenses(_ context.Context, userID, categoryID int64, rng core.DateRange) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum core.Money
	for _, t := range s.txs {
		if t.UserID == userID && t.CategoryID == categoryID && t.Type == core.Expense && rng.Contains(t.Date) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (s *Store) withName(t core.Transaction) core.Transaction {
	t.CategoryName = s.categoryName(t.CategoryID)
	return t
}

func (s *Store) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.ID == id && t.UserID == userID {
			return s.withName(t), nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) TransactionsInRange(_ context.Context, userID int64, rng core.DateRange) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txs {
		if t.UserID == userID && rng.Contains(t.Date) {
			out = append(out, s.withName(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matchesQuery(t core.Transaction, q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(t.Description), q) ||
		strings.Contains(strings.ToLower(t.CategoryName), q) ||
		strings.Contains(t.Amount.String(), q)
}

func (s *Store) ListTransactions(_ context.Context, userID int64, f ledger.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.TrimSpace(f.Query)
	var out []core.Transaction
	for _, t := range s.txs {
		t = s.withName(t)
		switch {
		case t.UserID != userID,
			!f.Start.IsEmpty() && t.Date.Before(f.Start),
			!f.End.IsEmpty() && t.Date.After(f.End),
			f.CategoryID != 0 && t.CategoryID != f.CategoryID,
			f.Type != "" && t.Type != f.Type,
			q != "" && !matchesQuery(t, q):
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) SumByType(_ context.Context, userID int64, typ core.TransactionType, rng core.DateRange) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum core.Money
	for _, t := range s.txs {
		if t.UserID == userID && t.Type == typ && rng.Contains(t.Date) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.txs, func(t core.Transaction) bool { return t.ID == id && t.UserID == userID })
	if i < 0 {
		return core.ErrNotFound
	}
	s.txs = slices.Delete(s.txs, i, i+1)
	return nil
}

func due(t core.Transaction, today core.Date) bool {
	return t.IsTemplate() && !t.NextDate.IsEmpty() && !t.NextDate.After(today)
}

func (s *Store) DueRecurring(_ context.Context, userID int64, today core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txs {
		if t.UserID == userID && due(t, today) {
			out = append(out, s.withName(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].NextDate.Equal(out[j].NextDate) {
			return out[i].NextDate.Before(out[j].NextDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UsersWithDueRecurring(_ context.Context, today core.Date) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, t := range s.txs {
		if due(t, today) && !slices.Contains(ids, t.UserID) {
			ids = append(ids, t.UserID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// WithinTx holds the store lock for the whole of fn and restores the
// transaction rows if fn fails. fn must only use the Tx it is given.
func (s *Store) WithinTx(_ context.Context, fn func(ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := slices.Clone(s.txs)
	nextID := s.nextID
	if err := fn(memTx{s: s}); err != nil {
		s.txs = snapshot
		s.nextID = nextID
		return err
	}
	return nil
}

type memTx struct {
	s *Store
}

func (m memTx) InsertTransaction(_ context.Context, t core.Transaction) (int64, error) {
	if t.CategoryID != 0 && m.s.categoryName(t.CategoryID) == "" {
		return 0, fmt.Errorf("insert transaction: category %d: %w", t.CategoryID, core.ErrNotFound)
	}
	t.ID = m.s.id()
	t.CategoryName = ""
	m.s.txs = append(m.s.txs, t)
	return t.ID, nil
}

func (m memTx) UpdateTransaction(_ context.Context, t core.Transaction) error {
	i := slices.IndexFunc(m.s.txs, func(o core.Transaction) bool { return o.ID == t.ID && o.UserID == t.UserID })
	if i < 0 {
		return core.ErrNotFound
	}
	t.SourceID = m.s.txs[i].SourceID
	t.CategoryName = ""
	m.s.txs[i] = t
	return nil
}

func (m memTx) AdvanceSchedule(_ context.Context, userID, id int64, from, to core.Date) (bool, error) {
	for i, t := range m.s.txs {
		if t.ID == id && t.UserID == userID && t.Recurring && t.NextDate.Equal(from) {
			m.s.txs[i].NextDate = to
			return true, nil
		}
	}
	return false, nil
}

func dedupeSorted(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
