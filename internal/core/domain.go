package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	Income  TransactionType = "IN"
	Expense TransactionType = "EX"
)

// UncategorizedLabel names the bucket for transactions without a category.
const UncategorizedLabel = "Uncategorized"

const dateLayout = "2006-01-02"

type (
	Frequency       string
	TransactionType string

	// Date is a calendar day stored at midnight UTC.
	Date struct {
		time.Time
	}

	// DateRange is an inclusive [Start, End] window.
	DateRange struct {
		Start Date
		End   Date
	}

	Category struct {
		ID        int64
		UserID    int64 // 0 for shared default categories
		Name      string
		IsDefault bool
	}

	Transaction struct {
		ID           int64
		UserID       int64
		Amount       Money
		CategoryID   int64  // 0 when uncategorized
		CategoryName string // populated on reads
		Date         Date
		Description  string
		Type         TransactionType
		Recurring    bool
		Frequency    Frequency
		NextDate     Date  // next occurrence; zero when absent
		SourceID     int64 // recurring template this row was materialized from
	}

	Budget struct {
		ID           int64
		UserID       int64
		CategoryID   int64
		CategoryName string // populated on reads
		Amount       Money
		StartDate    Date
		EndDate      Date
		Active       bool
	}
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every field-level problem found before a write.
// errors.Is(err, ErrValidation) reports true for it.
type ValidationError struct {
	Fields []FieldError
}

func (v *ValidationError) Add(field, message string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message})
}

func (v *ValidationError) Error() string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Message returns the message recorded for field, if any.
func (v *ValidationError) Message(field string) (string, bool) {
	for _, f := range v.Fields {
		if f.Field == field {
			return f.Message, true
		}
	}
	return "", false
}

// orNil returns nil when nothing was recorded.
func (v *ValidationError) orNil() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Label returns the human readable name used in exports.
func (t TransactionType) Label() string {
	switch t {
	case Income:
		return "Income"
	case Expense:
		return "Expense"
	}
	return string(t)
}

// ParseTransactionType accepts the storage codes and the labels, case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "income":
		return Income, nil
	case "ex", "expense":
		return Expense, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Time.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// String formats the date as YYYY-MM-DD, or "" when empty.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(dateLayout)
}

// NewDateRange builds and validates an inclusive range.
func NewDateRange(start, end Date) (DateRange, error) {
	r := DateRange{Start: start, End: end}
	return r, r.Validate()
}

func (r DateRange) Validate() error {
	verr := &ValidationError{}
	if r.Start.IsZero() {
		verr.Add("start_date", "is required")
	}
	if r.End.IsZero() {
		verr.Add("end_date", "is required")
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		verr.Add("end_date", "must not be before start date")
	}
	return verr.orNil()
}

func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}

// MonthRange returns the calendar month containing d.
func MonthRange(d Date) DateRange {
	first := NewDate(d.Year(), d.Month(), 1)
	last := Date{Time: first.Time.AddDate(0, 1, -1)}
	return DateRange{Start: first, End: last}
}

func (c Category) Validate() error {
	verr := &ValidationError{}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		verr.Add("name", "is required")
	} else if len(name) > 100 {
		verr.Add("name", "too long (max 100 characters)")
	}
	return verr.orNil()
}

// IsTemplate reports whether t schedules future occurrences.
func (t Transaction) IsTemplate() bool {
	return t.Recurring && t.SourceID == 0
}

func (t Transaction) Validate() error {
	verr := &ValidationError{}
	if err := t.Amount.Validate(); err != nil {
		verr.Add("amount", "must be greater than zero")
	}
	if err := t.Date.Validate(); err != nil {
		verr.Add("date", "is required")
	}
	if !t.Type.Valid() {
		verr.Add("transaction_type", "must be Income or Expense")
	}

	switch {
	case !t.Recurring:
		if t.Frequency != "" {
			verr.Add("recurrence_frequency", "must be empty for non-recurring transactions")
		}
		if !t.NextDate.IsEmpty() {
			verr.Add("next_occurrence_date", "must be empty for non-recurring transactions")
		}
	case !t.Frequency.Valid():
		verr.Add("recurrence_frequency", "must be one of daily, weekly, monthly, yearly")
	case t.SourceID == 0 && t.NextDate.IsEmpty():
		verr.Add("next_occurrence_date", "is required for recurring transactions")
	case t.SourceID != 0 && !t.NextDate.IsEmpty():
		// Materialized occurrences never schedule further copies.
		verr.Add("next_occurrence_date", "must be empty for generated occurrences")
	}
	return verr.orNil()
}

func (b Budget) Validate() error {
	verr := &ValidationError{}
	if b.CategoryID == 0 {
		verr.Add("category", "is required")
	}
	if err := b.Amount.Validate(); err != nil {
		verr.Add("amount", "must be greater than zero")
	}
	if b.StartDate.IsZero() {
		verr.Add("start_date", "is required")
	}
	if b.EndDate.IsZero() {
		verr.Add("end_date", "is required")
	}
	if !b.StartDate.IsZero() && !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate) {
		verr.Add("end_date", "must not be before start date")
	}
	return verr.orNil()
}

// Window returns the inclusive budget window.
func (b Budget) Window() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}
