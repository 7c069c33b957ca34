// Package sheets mirrors ledger transactions into a spreadsheet.
package sheets

import (
	"context"
	"strconv"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// Header names the mirrored columns, A to H.
var Header = []string{"ID", "Date", "Amount", "Type", "Category", "Description", "User", "Source"}

// Row is one mirrored transaction.
type Row struct {
	ID          int64
	Date        string
	Amount      string
	Type        string
	Category    string
	Description string
	UserID      int64
	SourceID    int64
}

// Mirror is an outbound adapter keeping one row per transaction id.
type Mirror interface {
	// Upsert writes r over the row holding r.ID, or appends it.
	Upsert(ctx context.Context, r Row) error
	// Delete clears the row holding id; unknown ids are ignored.
	Delete(ctx context.Context, id int64) error
}

func RowFromTransaction(t core.Transaction) Row {
	category := ""
	if t.CategoryID != 0 {
		category = t.CategoryName
	}
	return Row{
		ID:          t.ID,
		Date:        t.Date.String(),
		Amount:      t.Amount.String(),
		Type:        t.Type.Label(),
		Category:    category,
		Description: t.Description,
		UserID:      t.UserID,
		SourceID:    t.SourceID,
	}
}

func RowFromEvent(ev *amqp.TransactionEvent) Row {
	return Row{
		ID:          ev.ID,
		Date:        ev.Date,
		Amount:      ev.Amount,
		Type:        ev.Type,
		Category:    ev.Category,
		Description: ev.Description,
		UserID:      ev.UserID,
		SourceID:    ev.SourceID,
	}
}

// Values returns the cells of r in Header order.
func (r Row) Values() []any {
	source := ""
	if r.SourceID != 0 {
		source = strconv.FormatInt(r.SourceID, 10)
	}
	return []any{r.ID, r.Date, r.Amount, r.Type, r.Category, r.Description, r.UserID, source}
}
