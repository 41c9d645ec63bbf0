package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql  *sql.DB
	path string
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS pokemon_counters (
  id         TEXT PRIMARY KEY,
  name       TEXT NOT NULL,
  count      INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
  created_at INTEGER NOT NULL,
  method     TEXT NOT NULL DEFAULT '',
  status     TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open','closed')),
  game       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_counters_created ON pokemon_counters(created_at);
CREATE TABLE IF NOT EXISTS counter_changes (
  id          INTEGER PRIMARY KEY,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  counter_id  TEXT NOT NULL,
  name        TEXT NOT NULL,
  field       TEXT NOT NULL DEFAULT '',
  value       TEXT NOT NULL DEFAULT '',
  change_type TEXT NOT NULL CHECK (change_type IN ('added','updated','removed'))
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON counter_changes(occurred_at);
CREATE TABLE IF NOT EXISTS users (
  id            TEXT PRIMARY KEY,
  email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
  password_hash TEXT NOT NULL,
  created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS password_resets (
  token      TEXT PRIMARY KEY,
  user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  expires_at INTEGER NOT NULL
);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db, path: path}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Path returns the database file the DB was opened with.
func (d *DB) Path() string {
	return d.path
}

// withTx runs fn in a transaction, committing when fn returns nil.
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func logChange(ctx context.Context, tx *sql.Tx, counterID, name, field, value, changeType string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO counter_changes(occurred_at, counter_id, name, field, value, change_type) VALUES(CURRENT_TIMESTAMP, ?, ?, ?, ?, ?)`, counterID, name, field, value, changeType)
	return err
}

// ListRecentChanges returns the most recent N changes across all counters.
func (d *DB) ListRecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT occurred_at, counter_id, name, field, value, change_type FROM counter_changes ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		var occurredAtStr string
		if err := rows.Scan(&occurredAtStr, &c.CounterID, &c.Name, &c.Field, &c.Value, &c.ChangeType); err != nil {
			return nil, err
		}
		c.OccurredAt = parseSQLiteTime(occurredAtStr)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

// parseSQLiteTime parses CURRENT_TIMESTAMP output, falling back to RFC3339.
func parseSQLiteTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

// GetStats returns hunt totals grouped by game.
func (d *DB) GetStats(ctx context.Context) ([]GameStats, error) {
	query := `
		SELECT
			game,
			COUNT(*),
			SUM(CASE WHEN status = 'open' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'closed' THEN 1 ELSE 0 END),
			SUM(count)
		FROM
			pokemon_counters
		GROUP BY
			game
		ORDER BY
			game;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []GameStats
	for rows.Next() {
		var s GameStats
		if err := rows.Scan(&s.Game, &s.Hunts, &s.Open, &s.Closed, &s.Attempts); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
