package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pokecounter/pokecounter/pkg/tracker"
)

// mutableColumns are the columns a tracker.Mutation may write.
var mutableColumns = map[string]bool{
	tracker.ColumnCount:  true,
	tracker.ColumnMethod: true,
	tracker.ColumnStatus: true,
	tracker.ColumnGame:   true,
}

// CounterTable is the pokemon_counters table seen as a tracker.Remote.
type CounterTable struct {
	db *DB
}

// Counters returns the hunt table.
func (d *DB) Counters() *CounterTable {
	return &CounterTable{db: d}
}

var _ tracker.Remote = (*CounterTable)(nil)

func (t *CounterTable) Select(ctx context.Context) ([]tracker.Item, error) {
	rows, err := t.db.sql.QueryContext(ctx, "SELECT id, name, count, created_at, method, status, game FROM pokemon_counters ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []tracker.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *CounterTable) Insert(ctx context.Context, d tracker.Draft) ([]tracker.Item, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	status := d.Status
	if status == "" {
		status = tracker.StatusOpen
	}

	err = t.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO pokemon_counters(id, name, count, created_at, method, status, game) VALUES(?,?,?,?,'',?,'')`, id.String(), d.Name, d.Count, createdAt.UTC().UnixNano(), string(status)); err != nil {
			return err
		}
		return logChange(ctx, tx, id.String(), d.Name, "", "", "added")
	})
	if err != nil {
		return nil, err
	}

	row := t.db.sql.QueryRowContext(ctx, "SELECT id, name, count, created_at, method, status, game FROM pokemon_counters WHERE id = ?", id.String())
	it, err := scanItem(row)
	if err != nil {
		return nil, err
	}
	return []tracker.Item{it}, nil
}

func (t *CounterTable) Update(ctx context.Context, id string, m tracker.Mutation) error {
	col := m.Column()
	if !mutableColumns[col] {
		return fmt.Errorf("column %q is not writable", col)
	}
	return t.db.withTx(ctx, func(tx *sql.Tx) error {
		var name string
		if err := tx.QueryRowContext(ctx, "SELECT name FROM pokemon_counters WHERE id = ?", id).Scan(&name); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", tracker.ErrNotFound, id)
			}
			return err
		}
		// col comes from the closed mutation set checked above.
		if _, err := tx.ExecContext(ctx, "UPDATE pokemon_counters SET "+col+" = ? WHERE id = ?", m.Value(), id); err != nil {
			return err
		}
		return logChange(ctx, tx, id, name, col, fmt.Sprint(m.Value()), "updated")
	})
}

func (t *CounterTable) Delete(ctx context.Context, id string) error {
	return t.db.withTx(ctx, func(tx *sql.Tx) error {
		var name string
		if err := tx.QueryRowContext(ctx, "SELECT name FROM pokemon_counters WHERE id = ?", id).Scan(&name); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", tracker.ErrNotFound, id)
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM pokemon_counters WHERE id = ?", id); err != nil {
			return err
		}
		return logChange(ctx, tx, id, name, "", "", "removed")
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(s rowScanner) (tracker.Item, error) {
	var (
		it        tracker.Item
		createdAt int64
		method    string
		status    string
	)
	if err := s.Scan(&it.ID, &it.Name, &it.Count, &createdAt, &method, &status, &it.Game); err != nil {
		return tracker.Item{}, err
	}
	it.CreatedAt = time.Unix(0, createdAt).UTC()
	it.Method = tracker.Method(method)
	it.Status = tracker.Status(status)
	return it, nil
}
