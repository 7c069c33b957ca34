// Package memory is an in-process sheets.Mirror used by tests and the
// memory backend.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/sheets"
)

type Mirror struct {
	mu    sync.Mutex
	order []int64
	rows  map[int64]sheets.Row
}

var _ sheets.Mirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[int64]sheets.Row)}
}

func (m *Mirror) Upsert(_ context.Context, r sheets.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[r.ID]; !ok {
		m.order = append(m.order, r.ID)
	}
	m.rows[r.ID] = r
	return nil
}

func (m *Mirror) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// Rows returns the live rows in first-written order.
func (m *Mirror) Rows() []sheets.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sheets.Row, 0, len(m.rows))
	for _, id := range m.order {
		if r, ok := m.rows[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
