package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

const budgetSelect = `
	SELECT b.id, b.user_id, b.category_id, c.name, b.amount_cents, b.start_date, b.end_date, b.is_active
	FROM budgets b
	JOIN categories c ON c.id = b.category_id`

func scanBudget(sc interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b          core.Budget
		start, end string
	)
	if err := sc.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.CategoryName, &b.Amount.Cents, &start, &end, &b.Active); err != nil {
		return core.Budget{}, err
	}
	var err error
	if b.StartDate, err = scanDate(start); err != nil {
		return core.Budget{}, err
	}
	if b.EndDate, err = scanDate(end); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) queryBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ActiveBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return r.queryBudgets(ctx, budgetSelect+`
		WHERE b.user_id = ? AND b.is_active = 1
		ORDER BY b.start_date DESC, b.id`, userID)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return r.queryBudgets(ctx, budgetSelect+`
		WHERE b.user_id = ?
		ORDER BY b.start_date DESC, b.id`, userID)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx, budgetSelect+`
		WHERE b.id = ? AND b.user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, err)
	}
	return b, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, category_id, amount_cents, start_date, end_date, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.Amount.Cents, b.StartDate.String(), b.EndDate.String(), boolInt(b.Active))
	if err != nil {
		return 0, fmt.Errorf("create budget: %w", mapWriteErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("budget id: %w", err)
	}
	slog.InfoContext(ctx, "Budget created",
		"id", id,
		"user_id", b.UserID,
		"category_id", b.CategoryID,
		"amount", b.Amount.String(),
		"window", b.Window().String())
	return id, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET category_id = ?, amount_cents = ?, start_date = ?, end_date = ?, is_active = ?
		WHERE id = ? AND user_id = ?`,
		b.CategoryID, b.Amount.Cents, b.StartDate.String(), b.EndDate.String(), boolInt(b.Active), b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget %d: %w", b.ID, mapWriteErr(err))
	}
	return affectedOne(res)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return affectedOne(res)
}

func (r *SQLiteRepository) SumExpenses(ctx context.Context, userID, categoryID int64, rng core.DateRange) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM transactions
		WHERE user_id = ? AND category_id = ? AND transaction_type = ?
		  AND date BETWEEN ? AND ?`,
		userID, categoryID, string(core.Expense), rng.Start.String(), rng.End.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}
