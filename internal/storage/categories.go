package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
)

const categoryColumns = `id, COALESCE(user_id, 0), name, is_default`

func scanCategory(sc interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	if err := sc.Scan(&c.ID, &c.UserID, &c.Name, &c.IsDefault); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (r *SQLiteRepository) VisibleCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = ? OR user_id IS NULL
		ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) VisibleCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE id = ? AND (user_id = ? OR user_id IS NULL)`, id, userID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, is_default) VALUES (?, ?, 0)`,
		c.UserID, strings.TrimSpace(c.Name))
	if err != nil {
		return 0, fmt.Errorf("create category: %w", mapWriteErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category id: %w", err)
	}
	slog.InfoContext(ctx, "Category created", "id", id, "user_id", c.UserID, "name", c.Name)
	return id, nil
}

func (r *SQLiteRepository) RenameCategory(ctx context.Context, userID, id int64, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE id = ? AND user_id = ? AND is_default = 0`,
		strings.TrimSpace(name), id, userID)
	if err != nil {
		return fmt.Errorf("rename category %d: %w", id, mapWriteErr(err))
	}
	return affectedOne(res)
}

// DeleteCategory removes an owned category. Transactions keep existing with
// no category; budgets on it are deleted by the schema.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ? AND is_default = 0`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if err := affectedOne(res); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Category deleted", "id", id, "user_id", userID)
	return nil
}
