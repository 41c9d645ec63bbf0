// Package auth models the signed-in identity as an explicit Session object
// and drives sign-in, sign-up, password reset and sign-out against a Provider.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/pokecounter/pokecounter/internal/utils"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("an account with this email already exists")
	ErrInvalidToken       = errors.New("reset link is invalid or has expired")
	ErrMissingFields      = errors.New("email and password are required")
)

// State is the session lifecycle state.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Identity is what a Provider hands back on a successful sign-in.
type Identity struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
}

// Session is the explicit session context. It moves from Anonymous to
// Authenticated only through Manager.SignIn and back only through
// Manager.SignOut.
type Session struct {
	mu       sync.RWMutex
	state    State
	identity Identity
	since    time.Time
}

// NewSession returns an anonymous session.
func NewSession() *Session {
	return &Session{state: Anonymous}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Authenticated() bool {
	return s.State() == Authenticated
}

// Identity returns the signed-in identity, zero when anonymous.
func (s *Session) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// AccessToken is the bearer token remote stores should use, empty when anonymous.
func (s *Session) AccessToken() string {
	return s.Identity().AccessToken
}

// Since returns when the session was authenticated.
func (s *Session) Since() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.since
}

func (s *Session) authenticate(id Identity, at time.Time) {
	s.mu.Lock()
	s.state = Authenticated
	s.identity = id
	s.since = at
	s.mu.Unlock()
}

func (s *Session) reset() {
	s.mu.Lock()
	s.state = Anonymous
	s.identity = Identity{}
	s.since = time.Time{}
	s.mu.Unlock()
}

// Provider is the identity backend.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	// SignUp registers an account. It returns a zero Identity when the
	// provider requires the address to be confirmed before signing in.
	SignUp(ctx context.Context, email, password string) (Identity, error)
	// ResetPassword starts a reset; redirectTo is where the reset link leads.
	ResetPassword(ctx context.Context, email, redirectTo string) error
	SignOut(ctx context.Context, id Identity) error
}

// Resetter is implemented by providers that complete password resets
// themselves instead of delegating to a hosted page.
type Resetter interface {
	CompleteReset(ctx context.Context, token, newPassword string) error
}

// Result is the outward shape of every auth action: {error?, success?}.
type Result struct {
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success,omitempty"`
}

// ResultOf turns an action's error into a Result.
func ResultOf(err error) Result {
	if err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true}
}

// Manager runs auth actions and moves sessions through their lifecycle.
type Manager struct {
	provider Provider
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewManager(p Provider) *Manager {
	return &Manager{provider: p, log: utils.Log, now: time.Now}
}

// Provider returns the backing provider.
func (m *Manager) Provider() Provider { return m.provider }

func (m *Manager) SignIn(ctx context.Context, s *Session, email, password string) Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ResultOf(ErrMissingFields)
	}
	id, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		m.log.WithError(err).WithField("email", email).Warn("Sign in failed")
		return ResultOf(err)
	}
	s.authenticate(id, m.now())
	m.log.WithField("email", id.Email).Info("Signed in")
	return ResultOf(nil)
}

// SignUp registers and, when the provider returns a usable identity, signs
// the session in.
func (m *Manager) SignUp(ctx context.Context, s *Session, email, password string) Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ResultOf(ErrMissingFields)
	}
	id, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		m.log.WithError(err).WithField("email", email).Warn("Sign up failed")
		return ResultOf(err)
	}
	if id.UserID != "" {
		s.authenticate(id, m.now())
	}
	m.log.WithField("email", email).Info("Signed up")
	return ResultOf(nil)
}

func (m *Manager) ResetPassword(ctx context.Context, email, redirectTo string) Result {
	email = strings.TrimSpace(email)
	if email == "" {
		return ResultOf(errors.New("email is required"))
	}
	if err := m.provider.ResetPassword(ctx, email, redirectTo); err != nil {
		m.log.WithError(err).WithField("email", email).Warn("Password reset failed")
		return ResultOf(err)
	}
	return ResultOf(nil)
}

// CompleteReset finishes a reset when the provider supports it.
func (m *Manager) CompleteReset(ctx context.Context, token, newPassword string) Result {
	r, ok := m.provider.(Resetter)
	if !ok {
		return ResultOf(errors.New("password resets are completed through the hosted reset page"))
	}
	if newPassword == "" {
		return ResultOf(ErrMissingFields)
	}
	return ResultOf(r.CompleteReset(ctx, token, newPassword))
}

// SignOut signs the session out once. Signing out an anonymous session
// succeeds without calling the provider.
func (m *Manager) SignOut(ctx context.Context, s *Session) Result {
	if !s.Authenticated() {
		return ResultOf(nil)
	}
	id := s.Identity()
	if err := m.provider.SignOut(ctx, id); err != nil {
		m.log.WithError(err).WithField("email", id.Email).Error("Error signing out")
		return ResultOf(err)
	}
	s.reset()
	m.log.WithField("email", id.Email).Info("Signed out")
	return ResultOf(nil)
}
