package auth

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pokecounter/pokecounter/internal/utils"
	"github.com/pokecounter/pokecounter/pkg/storage"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	resetTokenTTL     = time.Hour
)

var ErrWeakPassword = errors.New("password should be at least 6 characters")

// UserStore is the account storage the Local provider needs.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (storage.User, error)
	UserByEmail(ctx context.Context, email string) (storage.User, error)
	SetPasswordHash(ctx context.Context, userID, passwordHash string) error
	CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error
	ConsumePasswordReset(ctx context.Context, token string, now time.Time) (string, error)
}

// Local authenticates against accounts kept in the sqlite database.
// Reset links are written to the log instead of being mailed.
type Local struct {
	users UserStore
	cost  int
	now   func() time.Time
}

func NewLocal(users UserStore) *Local {
	return &Local{users: users, cost: bcrypt.DefaultCost, now: time.Now}
}

// SetCost changes the bcrypt cost used for new hashes.
func (l *Local) SetCost(cost int) { l.cost = cost }

var (
	_ Provider = (*Local)(nil)
	_ Resetter = (*Local)(nil)
)

func (l *Local) SignIn(ctx context.Context, email, password string) (Identity, error) {
	u, err := l.users.UserByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{UserID: u.ID, Email: u.Email, AccessToken: uuid.NewString()}, nil
}

func (l *Local) SignUp(ctx context.Context, email, password string) (Identity, error) {
	if len(password) < MinPasswordLength {
		return Identity{}, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return Identity{}, err
	}
	u, err := l.users.CreateUser(ctx, email, string(hash))
	if errors.Is(err, storage.ErrUserExists) {
		return Identity{}, ErrUserExists
	}
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: u.ID, Email: u.Email, AccessToken: uuid.NewString()}, nil
}

// ResetPassword issues a one-hour token. Unknown addresses succeed silently.
func (l *Local) ResetPassword(ctx context.Context, email, redirectTo string) error {
	u, err := l.users.UserByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		utils.Log.WithField("email", email).Debug("Password reset for unknown address")
		return nil
	}
	if err != nil {
		return err
	}

	token := uuid.NewString()
	if err := l.users.CreatePasswordReset(ctx, u.ID, token, l.now().Add(resetTokenTTL)); err != nil {
		return err
	}

	link := redirectTo
	if parsed, perr := url.Parse(redirectTo); perr == nil {
		q := parsed.Query()
		q.Set("token", token)
		parsed.RawQuery = q.Encode()
		link = parsed.String()
	}
	utils.Log.WithField("email", u.Email).Infof("Password reset link: %s", link)
	return nil
}

func (l *Local) CompleteReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}
	userID, err := l.users.ConsumePasswordReset(ctx, token, l.now())
	if errors.Is(err, storage.ErrResetNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), l.cost)
	if err != nil {
		return err
	}
	return l.users.SetPasswordHash(ctx, userID, string(hash))
}

// SignOut has nothing to revoke for local sessions.
func (l *Local) SignOut(ctx context.Context, id Identity) error {
	return nil
}
