// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents so sums and differences stay exact;
// shopspring/decimal handles the conversions to and from text.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

// maxCents keeps amounts inside the DECIMAL(10,2) range of the ledger schema.
const maxCents = 99_999_999_99

var maxAmount = decimal.New(maxCents, -2)

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > maxCents {
		return ErrInvalidAmount
	}
	return nil
}

// ParseAmount converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half-up on the third decimal place. Only strictly positive values
// are accepted.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	// Bound before converting: cents past int64 would wrap.
	if d.GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	m := MoneyFromDecimal(d)
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// MoneyFromDecimal rounds d to cents, half away from zero.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// Decimal returns the amount as a decimal with two fractional digits.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimals, e.g. "150.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) GreaterThan(o Money) bool { return m.Cents > o.Cents }

func (m Money) IsZero() bool { return m.Cents == 0 }
