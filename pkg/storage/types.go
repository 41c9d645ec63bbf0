package storage

import (
	"errors"
	"time"
)

var (
	ErrUserExists    = errors.New("user already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrResetNotFound = errors.New("password reset token not found or expired")
)

// Change captures a single counter change for auditing or printing.
type Change struct {
	OccurredAt time.Time
	CounterID  string
	Name       string
	Field      string // empty for added/removed
	Value      string
	ChangeType string // added | updated | removed
}

// GameStats aggregates hunts sharing a game label.
type GameStats struct {
	Game     string
	Hunts    int
	Open     int
	Closed   int
	Attempts int
}

// User is a local account for the sqlite auth provider.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
