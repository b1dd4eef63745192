// Package store provides Store implementations.
package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/clock"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	records   map[key]attendance.Record
	employees map[string]attendance.Employee
	imports   []attendance.Import
	checksums map[string]bool
}

type key struct {
	Card string
	Date string
}

func NewMemory() *Memory {
	return &Memory{
		records:   make(map[key]attendance.Record),
		employees: make(map[string]attendance.Employee),
		checksums: make(map[string]bool),
	}
}

var _ attendance.Store = (*Memory)(nil)

// SaveRecords upserts records by card and date.
func (m *Memory) SaveRecords(_ context.Context, records []attendance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		m.records[key{Card: r.Card, Date: r.Date.String()}] = r
	}
	return nil
}

func (m *Memory) GetRecord(_ context.Context, card string, date clock.Date) (*attendance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[key{Card: attendance.PadCard(card), Date: date.String()}]
	if !ok {
		return nil, attendance.ErrRecordNotFound
	}
	return &r, nil
}

// ListRecords returns matching records ordered by card then date.
func (m *Memory) ListRecords(_ context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []attendance.Record{}
	for _, r := range m.records {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b attendance.Record) int {
		if c := cmp.Compare(a.Card, b.Card); c != 0 {
			return c
		}
		return a.Date.Time().Compare(b.Date.Time())
	})
	return out, nil
}

// SaveEmployees upserts employees by card.
func (m *Memory) SaveEmployees(_ context.Context, employees []attendance.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range employees {
		e.Card = attendance.PadCard(e.Card)
		m.employees[e.Card] = e
	}
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, card string) (*attendance.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[attendance.PadCard(card)]
	if !ok {
		return nil, attendance.ErrEmployeeNotFound
	}
	return &e, nil
}

// ListEmployees returns every employee ordered by card.
func (m *Memory) ListEmployees(_ context.Context) ([]attendance.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]attendance.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b attendance.Employee) int { return cmp.Compare(a.Card, b.Card) })
	return out, nil
}

// SaveImport stores the import and its records under one lock.
func (m *Memory) SaveImport(_ context.Context, imp attendance.Import, records []attendance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.checksums[imp.Checksum] {
		return attendance.ErrDuplicateImport
	}
	m.checksums[imp.Checksum] = true
	m.imports = append(m.imports, imp)
	for _, r := range records {
		m.records[key{Card: r.Card, Date: r.Date.String()}] = r
	}
	return nil
}

// ListImports returns imports newest first.
func (m *Memory) ListImports(_ context.Context) ([]attendance.Import, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Clone(m.imports)
	slices.SortStableFunc(out, func(a, b attendance.Import) int {
		return b.ImportedAt.Compare(a.ImportedAt)
	})
	if out == nil {
		out = []attendance.Import{}
	}
	return out, nil
}

func (m *Memory) HasChecksum(_ context.Context, checksum string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checksums[checksum], nil
}
