package tracker

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pokecounter/pokecounter/internal/utils"
	"github.com/sirupsen/logrus"
)

// Remote is the table the List mirrors.
type Remote interface {
	// Select returns all rows ordered by created_at descending.
	Select(ctx context.Context) ([]Item, error)
	// Insert stores one row and returns the row(s) the store created.
	Insert(ctx context.Context, d Draft) ([]Item, error)
	// Update writes the single field carried by m on the row with the given id.
	Update(ctx context.Context, id string, m Mutation) error
	Delete(ctx context.Context, id string) error
}

// NameValidator decides whether a hunt name may be created.
type NameValidator interface {
	Contains(name string) bool
}

// List is the local collection. Every operation calls the Remote first and
// patches the collection only when that call succeeds. The mutex guards the
// slice, never a remote call, so concurrent mutations of one row resolve by
// last write wins.
type List struct {
	remote Remote
	names  NameValidator
	log    logrus.FieldLogger
	now    func() time.Time

	mu      sync.RWMutex
	items   []Item
	marked  map[string]bool
	version uint64
}

// Option configures a List.
type Option func(*List)

// WithLogger replaces the default logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(list *List) { list.log = l }
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(list *List) { list.now = now }
}

// NewList returns an empty List. Call Load to fill it.
func NewList(remote Remote, names NameValidator, opts ...Option) *List {
	l := &List{
		remote: remote,
		names:  names,
		log:    utils.Log,
		now:    time.Now,
		marked: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Items returns a copy of the collection in display order.
func (l *List) Items() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of rows held locally.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Get returns the row with the given id.
func (l *List) Get(id string) (Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := l.indexOf(id)
	if i < 0 {
		return Item{}, false
	}
	return l.items[i], true
}

// Loaded reports whether a Load has ever succeeded.
func (l *List) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version > 0
}

// Load replaces the collection with the remote rows.
func (l *List) Load(ctx context.Context) error {
	rows, err := l.remote.Select(ctx)
	if err != nil {
		l.log.WithError(err).Error("Error loading hunts")
		return fmt.Errorf("load hunts: %w", err)
	}

	if !sort.SliceIsSorted(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) }) {
		l.log.WithField("rows", len(rows)).Warn("Remote returned hunts out of created_at order, re-sorting")
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	}

	l.mu.Lock()
	l.items = rows
	l.marked = make(map[string]bool)
	l.version++
	l.mu.Unlock()
	return nil
}

// Create validates name and inserts a new open hunt with count 0. The rows
// returned by the remote are prepended to the collection.
func (l *List) Create(ctx context.Context, name string) ([]Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: ColumnName, Msg: "please enter a name"}
	}
	if l.names != nil && !l.names.Contains(name) {
		return nil, &ValidationError{Field: ColumnName, Msg: fmt.Sprintf("%q is not a known Pokémon", name)}
	}

	created, err := l.remote.Insert(ctx, Draft{
		Name:      name,
		Count:     0,
		Status:    StatusOpen,
		CreatedAt: l.now().UTC(),
	})
	if err != nil {
		l.log.WithError(err).WithField("name", name).Error("Error creating hunt")
		return nil, fmt.Errorf("create hunt: %w", err)
	}

	l.mu.Lock()
	items := make([]Item, 0, len(created)+len(l.items))
	items = append(items, created...)
	l.items = append(items, l.items...)
	l.mu.Unlock()
	return created, nil
}

// Adjust adds delta (+1 or -1) to the count. Decrementing a zero count is a
// no-op and makes no remote call.
func (l *List) Adjust(ctx context.Context, id string, delta int) (Item, error) {
	if delta != 1 && delta != -1 {
		return Item{}, ErrInvalidDelta
	}
	it, ok := l.Get(id)
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if delta < 0 && it.Count == 0 {
		return it, nil
	}
	return l.Apply(ctx, id, SetCount{Count: it.Count + delta})
}

// EditCount overwrites the count from user text. Text that is not a
// non-negative integer is ignored: the current count is returned and no
// remote call is made. On remote failure the current count is returned with
// the error so the edit buffer can revert.
func (l *List) EditCount(ctx context.Context, id, text string) (int, error) {
	it, ok := l.Get(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	n, ok := parseCount(text)
	if !ok || n == it.Count {
		return it.Count, nil
	}
	updated, err := l.Apply(ctx, id, SetCount{Count: n})
	if err != nil {
		return it.Count, err
	}
	return updated.Count, nil
}

// ToggleStatus flips open and closed.
func (l *List) ToggleStatus(ctx context.Context, id string) (Item, error) {
	it, ok := l.Get(id)
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l.Apply(ctx, id, SetStatus{Status: it.Status.Toggle()})
}

// Apply sends m to the remote and, on success, patches the local row.
func (l *List) Apply(ctx context.Context, id string, m Mutation) (Item, error) {
	if err := m.validate(); err != nil {
		return Item{}, err
	}
	if _, ok := l.Get(id); !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := l.remote.Update(ctx, id, m); err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{"id": id, "field": m.Column()}).Error("Error updating hunt")
		return Item{}, fmt.Errorf("update %s: %w", m.Column(), err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(id)
	if i < 0 {
		// Removed locally while the update was in flight.
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.apply(&l.items[i])
	return l.items[i], nil
}

// MarkDelete is the first step of a delete.
func (l *List) MarkDelete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	l.marked[id] = true
	return nil
}

// CancelDelete clears a pending delete mark.
func (l *List) CancelDelete(id string) {
	l.mu.Lock()
	delete(l.marked, id)
	l.mu.Unlock()
}

// MarkedForDelete reports whether id awaits delete confirmation.
func (l *List) MarkedForDelete(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.marked[id]
}

// Delete removes a row previously passed to MarkDelete.
func (l *List) Delete(ctx context.Context, id string) error {
	if !l.MarkedForDelete(id) {
		return ErrNotConfirmed
	}
	if err := l.remote.Delete(ctx, id); err != nil {
		l.log.WithError(err).WithField("id", id).Error("Error deleting hunt")
		return fmt.Errorf("delete hunt: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.marked, id)
	if i := l.indexOf(id); i >= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
	return nil
}

func (l *List) indexOf(id string) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

func parseCount(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
