package services

import (
	"context"
	"fmt"
	"sort"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type (
	// SeriesPoint totals one calendar day.
	SeriesPoint struct {
		Date    core.Date
		Income  core.Money
		Expense core.Money
	}

	CategoryTotal struct {
		Name  string
		Total core.Money
	}

	MonthlyTotal struct {
		Year    int
		Month   int
		Income  core.Money
		Expense core.Money
	}

	Report struct {
		Range          core.DateRange
		TimeSeries     []SeriesPoint
		CategoryTotals []CategoryTotal
		MonthlyTotals  []MonthlyTotal
		TotalIncome    core.Money
		TotalExpense   core.Money
		Balance        core.Money
		// NoData is set when the range holds no transactions at all.
		NoData bool
	}
)

type ReportAggregator struct {
	store ledger.TransactionLister
}

func NewReportAggregator(store ledger.TransactionLister) *ReportAggregator {
	return &ReportAggregator{store: store}
}

// Build aggregates userID's transactions dated within rng.
func (a *ReportAggregator) Build(ctx context.Context, userID int64, rng core.DateRange) (Report, error) {
	if err := rng.Validate(); err != nil {
		return Report{}, err
	}
	txns, err := a.store.TransactionsInRange(ctx, userID, rng)
	if err != nil {
		return Report{}, fmt.Errorf("fetch transactions %s: %w", rng, err)
	}
	return Aggregate(rng, txns), nil
}

// Aggregate computes every report section from txns.
func Aggregate(rng core.DateRange, txns []core.Transaction) Report {
	r := Report{
		Range:          rng,
		TimeSeries:     TimeSeries(txns),
		CategoryTotals: CategoryTotals(txns),
		MonthlyTotals:  MonthlyTotals(txns),
		NoData:         len(txns) == 0,
	}
	for _, t := range txns {
		switch t.Type {
		case core.Income:
			r.TotalIncome = r.TotalIncome.Add(t.Amount)
		case core.Expense:
			r.TotalExpense = r.TotalExpense.Add(t.Amount)
		}
	}
	r.Balance = r.TotalIncome.Sub(r.TotalExpense)
	return r
}

func addByType(income, expense *core.Money, t core.Transaction) {
	switch t.Type {
	case core.Income:
		*income = income.Add(t.Amount)
	case core.Expense:
		*expense = expense.Add(t.Amount)
	}
}

// TimeSeries returns one point per distinct date, ascending.
func TimeSeries(txns []core.Transaction) []SeriesPoint {
	byDay := make(map[string]*SeriesPoint)
	for _, t := range txns {
		key := t.Date.String()
		p, ok := byDay[key]
		if !ok {
			p = &SeriesPoint{Date: t.Date}
			byDay[key] = p
		}
		addByType(&p.Income, &p.Expense, t)
	}

	out := make([]SeriesPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// CategoryTotals sums expenses per category name, largest first, ties by name.
func CategoryTotals(txns []core.Transaction) []CategoryTotal {
	sums := make(map[string]core.Money)
	for _, t := range txns {
		if t.Type != core.Expense {
			continue
		}
		name := t.CategoryName
		if t.CategoryID == 0 || name == "" {
			name = core.UncategorizedLabel
		}
		sums[name] = sums[name].Add(t.Amount)
	}

	out := make([]CategoryTotal, 0, len(sums))
	for name, total := range sums {
		out = append(out, CategoryTotal{Name: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthlyTotals sums income and expense per calendar month, chronologically.
func MonthlyTotals(txns []core.Transaction) []MonthlyTotal {
	type ym struct{ y, m int }
	byMonth := make(map[ym]*MonthlyTotal)
	for _, t := range txns {
		k := ym{t.Date.Year(), t.Date.Month()}
		mt, ok := byMonth[k]
		if !ok {
			mt = &MonthlyTotal{Year: k.y, Month: k.m}
			byMonth[k] = mt
		}
		addByType(&mt.Income, &mt.Expense, t)
	}

	out := make([]MonthlyTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
