package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// MemoryRemote is an in-process Remote. It backs the "memory" backend used for
// trying the UI without a database, and the tests.
type MemoryRemote struct {
	mu     sync.Mutex
	rows   []Item
	nextID int

	// Fail, when non-nil, is returned by every call instead of touching rows.
	Fail error
	// Calls counts remote calls by operation name: select, insert, update, delete.
	Calls map[string]int
}

// NewMemoryRemote returns a MemoryRemote holding a copy of rows.
func NewMemoryRemote(rows ...Item) *MemoryRemote {
	m := &MemoryRemote{Calls: make(map[string]int), nextID: 1}
	m.rows = append(m.rows, rows...)
	return m
}

func (m *MemoryRemote) Select(ctx context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["select"]++
	if m.Fail != nil {
		return nil, m.Fail
	}
	out := make([]Item, len(m.rows))
	copy(out, m.rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRemote) Insert(ctx context.Context, d Draft) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["insert"]++
	if m.Fail != nil {
		return nil, m.Fail
	}
	it := Item{
		ID:        m.newID(),
		Name:      d.Name,
		Count:     d.Count,
		CreatedAt: d.CreatedAt,
		Status:    d.Status,
	}
	m.rows = append(m.rows, it)
	return []Item{it}, nil
}

func (m *MemoryRemote) Update(ctx context.Context, id string, mut Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["update"]++
	if m.Fail != nil {
		return m.Fail
	}
	for i := range m.rows {
		if m.rows[i].ID == id {
			mut.apply(&m.rows[i])
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (m *MemoryRemote) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["delete"]++
	if m.Fail != nil {
		return m.Fail
	}
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Rows returns a copy of the stored rows in insertion order.
func (m *MemoryRemote) Rows() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, len(m.rows))
	copy(out, m.rows)
	return out
}

// TotalCalls sums Calls.
func (m *MemoryRemote) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		n += c
	}
	return n
}

func (m *MemoryRemote) newID() string {
	for {
		id := fmt.Sprintf("%d", m.nextID)
		m.nextID++
		if !m.has(id) {
			return id
		}
	}
}

func (m *MemoryRemote) has(id string) bool {
	for _, r := range m.rows {
		if r.ID == id {
			return true
		}
	}
	return false
}

// ErrRemoteDown is a convenience failure for MemoryRemote.Fail.
var ErrRemoteDown = errors.New("remote store unavailable")
