package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// DBLock serialises writers of one sqlite file across pokecounter processes.
// The lock lives in a sibling file named after the database.
type DBLock struct {
	flock *flock.Flock
}

func NewDBLock(dbPath string) (*DBLock, error) {
	abs, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}
	return &DBLock{flock: flock.New(abs + ".lock")}, nil
}

// Do runs fn with the lock held. A busy lock is announced on stderr, then
// waited for.
func (l *DBLock) Do(fn func() error) error {
	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.flock.Path(), err)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "Waiting for another pokecounter command to finish writing...")
		if err := l.flock.Lock(); err != nil {
			return fmt.Errorf("lock %s: %w", l.flock.Path(), err)
		}
	}
	defer func() {
		if err := l.flock.Unlock(); err != nil && !os.IsNotExist(err) {
			Log.WithError(err).Warnf("Could not release %s", l.flock.Path())
		}
	}()
	return fn()
}

// GetAbsDBPath makes dbPath absolute. Empty means the default location,
// ~/.config/pokecounter/pokecounter.sqlite.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath != "" {
		return filepath.Abs(dbPath)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pokecounter", "pokecounter.sqlite"), nil
}
