// Package services holds the ledger's business logic: budget evaluation,
// recurrence processing, reporting and the per-entity operations.
//
// This file implements the strategy registry used to move a recurring
// template's next occurrence forward. Each frequency maps to one strategy.
package services

import (
	"fmt"
	"sync"

	"fintrack/internal/core"
)

// AdvanceStrategy computes the occurrence following from.
type AdvanceStrategy interface {
	Next(from core.Date) core.Date
}

// FixedOffset advances by a constant number of days.
type FixedOffset struct {
	Days int
}

func (f FixedOffset) Next(from core.Date) core.Date {
	return from.AddDays(f.Days)
}

// Months are 30 days and years 365, so schedules drift against the calendar.
var (
	advanceMu         sync.RWMutex
	advanceStrategies = map[core.Frequency]AdvanceStrategy{
		core.Daily:   FixedOffset{Days: 1},
		core.Weekly:  FixedOffset{Days: 7},
		core.Monthly: FixedOffset{Days: 30},
		core.Yearly:  FixedOffset{Days: 365},
	}
)

// GetAdvanceStrategy returns the strategy registered for frequency.
func GetAdvanceStrategy(frequency core.Frequency) (AdvanceStrategy, error) {
	advanceMu.RLock()
	defer advanceMu.RUnlock()
	s, ok := advanceStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence frequency: %q", frequency)
	}
	return s, nil
}

// RegisterAdvanceStrategy replaces or adds the strategy for frequency and
// returns the previous one, if any.
func RegisterAdvanceStrategy(frequency core.Frequency, s AdvanceStrategy) AdvanceStrategy {
	advanceMu.Lock()
	defer advanceMu.Unlock()
	prev := advanceStrategies[frequency]
	advanceStrategies[frequency] = s
	return prev
}

// NextOccurrence is a shortcut for GetAdvanceStrategy(frequency).Next(from).
func NextOccurrence(frequency core.Frequency, from core.Date) (core.Date, error) {
	s, err := GetAdvanceStrategy(frequency)
	if err != nil {
		return core.Date{}, err
	}
	return s.Next(from), nil
}
