package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

const transactionSelect = `
	SELECT t.id, t.user_id, t.amount_cents, COALESCE(t.category_id, 0), COALESCE(c.name, ''),
	       t.date, t.description, t.transaction_type, t.recurring,
	       COALESCE(t.recurrence_frequency, ''), COALESCE(t.next_occurrence_date, ''), COALESCE(t.source_id, 0)
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id`

func scanTransaction(sc interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t              core.Transaction
		date, next, tt string
		freq           string
	)
	err := sc.Scan(&t.ID, &t.UserID, &t.Amount.Cents, &t.CategoryID, &t.CategoryName,
		&date, &t.Description, &tt, &t.Recurring, &freq, &next, &t.SourceID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(tt)
	t.Frequency = core.Frequency(freq)
	if t.Date, err = scanDate(date); err != nil {
		return core.Transaction{}, err
	}
	if t.NextDate, err = scanDate(next); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func queryTransactions(ctx context.Context, q queryable, query string, args ...any) ([]core.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, transactionSelect+`
		WHERE t.id = ? AND t.user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) TransactionsInRange(ctx context.Context, userID int64, rng core.DateRange) ([]core.Transaction, error) {
	return queryTransactions(ctx, r.db, transactionSelect+`
		WHERE t.user_id = ? AND t.date BETWEEN ? AND ?
		ORDER BY t.date, t.id`, userID, rng.Start.String(), rng.End.String())
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f ledger.TransactionFilter) ([]core.Transaction, error) {
	var (
		where = []string{"t.user_id = ?"}
		args  = []any{userID}
	)
	if !f.Start.IsEmpty() {
		where = append(where, "t.date >= ?")
		args = append(args, f.Start.String())
	}
	if !f.End.IsEmpty() {
		where = append(where, "t.date <= ?")
		args = append(args, f.End.String())
	}
	if f.CategoryID != 0 {
		where = append(where, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Type != "" {
		where = append(where, "t.transaction_type = ?")
		args = append(args, string(f.Type))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + likeEscaper.Replace(q) + "%"
		where = append(where, `(t.description LIKE ? ESCAPE '\'
			OR c.name LIKE ? ESCAPE '\'
			OR printf('%d.%02d', t.amount_cents / 100, t.amount_cents % 100) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	query := transactionSelect + "\nWHERE " + strings.Join(where, " AND ") + "\nORDER BY t.date DESC, t.id DESC"
	switch {
	case f.Limit > 0:
		query += "\nLIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	case f.Offset > 0:
		query += "\nLIMIT -1 OFFSET ?"
		args = append(args, f.Offset)
	}
	return queryTransactions(ctx, r.db, query, args...)
}

func (r *SQLiteRepository) SumByType(ctx context.Context, userID int64, typ core.TransactionType, rng core.DateRange) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM transactions
		WHERE user_id = ? AND transaction_type = ? AND date BETWEEN ? AND ?`,
		userID, string(typ), rng.Start.String(), rng.End.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum %s: %w", typ.Label(), err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return affectedOne(res)
}

func (r *SQLiteRepository) DueRecurring(ctx context.Context, userID int64, today core.Date) ([]core.Transaction, error) {
	return queryTransactions(ctx, r.db, transactionSelect+`
		WHERE t.user_id = ? AND t.recurring = 1 AND t.source_id IS NULL
		  AND t.next_occurrence_date IS NOT NULL AND t.next_occurrence_date <= ?
		ORDER BY t.next_occurrence_date, t.id`, userID, today.String())
}

func (r *SQLiteRepository) UsersWithDueRecurring(ctx context.Context, today core.Date) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT user_id
		FROM transactions
		WHERE recurring = 1 AND source_id IS NULL
		  AND next_occurrence_date IS NOT NULL AND next_occurrence_date <= ?
		ORDER BY user_id`, today.String())
	if err != nil {
		return nil, fmt.Errorf("query due users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertTransaction(ctx context.Context, q queryable, t core.Transaction) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO transactions (
			user_id, amount_cents, category_id, date, description, transaction_type,
			recurring, recurrence_frequency, next_occurrence_date, source_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Amount.Cents, nullInt(t.CategoryID), t.Date.String(), t.Description, string(t.Type),
		boolInt(t.Recurring), sql.NullString{String: string(t.Frequency), Valid: t.Frequency != ""},
		nullDate(t.NextDate), nullInt(t.SourceID))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", mapWriteErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}
	return id, nil
}

func updateTransaction(ctx context.Context, q queryable, t core.Transaction) error {
	res, err := q.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, category_id = ?, date = ?, description = ?, transaction_type = ?,
		    recurring = ?, recurrence_frequency = ?, next_occurrence_date = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`,
		t.Amount.Cents, nullInt(t.CategoryID), t.Date.String(), t.Description, string(t.Type),
		boolInt(t.Recurring), sql.NullString{String: string(t.Frequency), Valid: t.Frequency != ""},
		nullDate(t.NextDate), t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, mapWriteErr(err))
	}
	return affectedOne(res)
}

// advanceSchedule is a compare-and-set on next_occurrence_date so two
// concurrent runs cannot both materialize the same occurrence.
func advanceSchedule(ctx context.Context, q queryable, userID, id int64, from, to core.Date) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE transactions
		SET next_occurrence_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ? AND recurring = 1 AND next_occurrence_date = ?`,
		to.String(), id, userID, from.String())
	if err != nil {
		return false, fmt.Errorf("advance schedule %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
