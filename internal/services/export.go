package services

import (
	"encoding/csv"
	"fmt"
	"io"

	"fintrack/internal/core"
)

var csvHeader = []string{"Date", "Amount", "Type", "Category", "Description"}

// ExportCSV writes txns as CSV in the order given.
func ExportCSV(w io.Writer, txns []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txns {
		category := ""
		if t.CategoryID != 0 {
			category = t.CategoryName
		}
		row := []string{
			t.Date.String(),
			t.Amount.String(),
			t.Type.Label(),
			category,
			t.Description,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
