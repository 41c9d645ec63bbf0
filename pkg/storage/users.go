package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateUser stores a new account. Emails are unique, ignoring case.
func (d *DB) CreateUser(ctx context.Context, email, passwordHash string) (User, error) {
	email = strings.TrimSpace(email)
	id := uuid.NewString()
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&exists); err != nil {
			return err
		}
		if exists > 0 {
			return ErrUserExists
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO users(id, email, password_hash, created_at) VALUES(?, ?, ?, CURRENT_TIMESTAMP)", id, email, passwordHash)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return d.UserByEmail(ctx, email)
}

// UserByEmail finds an account, ignoring case.
func (d *DB) UserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	var createdAt string
	err := d.sql.QueryRowContext(ctx, "SELECT id, email, password_hash, created_at FROM users WHERE email = ?", strings.TrimSpace(email)).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = parseSQLiteTime(createdAt)
	return u, nil
}

// SetPasswordHash replaces an account's password hash.
func (d *DB) SetPasswordHash(ctx context.Context, userID, passwordHash string) error {
	res, err := d.sql.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreatePasswordReset stores a single-use reset token.
func (d *DB) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := d.sql.ExecContext(ctx, "INSERT INTO password_resets(token, user_id, expires_at) VALUES(?, ?, ?)", token, userID, expiresAt.UTC().Unix())
	return err
}

// ConsumePasswordReset deletes token and returns its user, provided it has
// not expired at now. Expired tokens are deleted too.
func (d *DB) ConsumePasswordReset(ctx context.Context, token string, now time.Time) (string, error) {
	var userID string
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var expiresAt int64
		err := tx.QueryRowContext(ctx, "SELECT user_id, expires_at FROM password_resets WHERE token = ?", token).Scan(&userID, &expiresAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrResetNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM password_resets WHERE token = ? OR expires_at < ?", token, now.UTC().Unix()); err != nil {
			return err
		}
		if now.UTC().Unix() > expiresAt {
			userID = ""
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if userID == "" {
		return "", ErrResetNotFound
	}
	return userID, nil
}
