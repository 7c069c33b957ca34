package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"fintrack/internal/core"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseOptionalDate parses s, returning the zero Date for "".
func parseOptionalDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

// parseDayOr parses s, defaulting to the current local day.
func parseDayOr(s string) (core.Date, error) {
	if s == "" {
		return core.DateOf(time.Now()), nil
	}
	return core.ParseDate(s)
}

func categoryLabel(t core.Transaction) string {
	if t.CategoryID == 0 {
		return core.UncategorizedLabel
	}
	return t.CategoryName
}

func writeTransactions(w io.Writer, txns []core.Transaction) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tDESCRIPTION\tRECURRING")
	for _, t := range txns {
		recurring := ""
		switch {
		case t.IsTemplate():
			recurring = fmt.Sprintf("%s, next %s", t.Frequency, t.NextDate)
		case t.SourceID != 0:
			recurring = fmt.Sprintf("from #%d", t.SourceID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date, t.Type.Label(), t.Amount, categoryLabel(t), t.Description, recurring)
	}
	return tw.Flush()
}
