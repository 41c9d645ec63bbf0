package auth

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pokecounter/pokecounter/internal/utils"
	"github.com/pokecounter/pokecounter/pkg/storage"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeProvider struct {
	signIns  int
	signOuts int
	failOut  error
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	f.signIns++
	if password != "pikapika" {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{UserID: "u1", Email: email, AccessToken: "tok"}, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) (Identity, error) {
	// Simulates a provider that requires email confirmation.
	return Identity{}, nil
}

func (f *fakeProvider) ResetPassword(ctx context.Context, email, redirectTo string) error {
	return nil
}

func (f *fakeProvider) SignOut(ctx context.Context, id Identity) error {
	f.signOuts++
	return f.failOut
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{}
	m := NewManager(p)
	s := NewSession()
	assert.Equal(t, Anonymous, s.State())

	res := m.SignIn(ctx, s, "ash@example.com", "wrong")
	assert.Equal(t, Result{Error: ErrInvalidCredentials.Error()}, res)
	assert.False(t, s.Authenticated())

	res = m.SignIn(ctx, s, " ash@example.com ", "pikapika")
	assert.Equal(t, Result{Success: true}, res)
	assert.True(t, s.Authenticated())
	assert.Equal(t, "tok", s.AccessToken())
	assert.Equal(t, "ash@example.com", s.Identity().Email)
	assert.False(t, s.Since().IsZero())

	res = m.SignOut(ctx, s)
	assert.True(t, res.Success)
	assert.Equal(t, Anonymous, s.State())
	assert.Empty(t, s.AccessToken())

	// A second sign out is a no-op.
	res = m.SignOut(ctx, s)
	assert.True(t, res.Success)
	assert.Equal(t, 1, p.signOuts)
}

func TestSignInRequiresFields(t *testing.T) {
	p := &fakeProvider{}
	res := NewManager(p).SignIn(context.Background(), NewSession(), "", "x")
	assert.Equal(t, ErrMissingFields.Error(), res.Error)
	assert.Equal(t, 0, p.signIns)
}

func TestSignOutFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{failOut: errors.New("network down")}
	m := NewManager(p)
	s := NewSession()
	require.True(t, m.SignIn(ctx, s, "ash@example.com", "pikapika").Success)

	res := m.SignOut(ctx, s)
	assert.Equal(t, "network down", res.Error)
	assert.True(t, s.Authenticated())
}

func TestSignUpWithConfirmationStaysAnonymous(t *testing.T) {
	s := NewSession()
	res := NewManager(&fakeProvider{}).SignUp(context.Background(), s, "ash@example.com", "pikapika")
	assert.True(t, res.Success)
	assert.False(t, s.Authenticated())
}

func TestCompleteResetUnsupported(t *testing.T) {
	res := NewManager(&fakeProvider{}).CompleteReset(context.Background(), "t", "newpassword")
	assert.NotEmpty(t, res.Error)
}

func newLocal(t *testing.T) *Local {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "auth.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	l := NewLocal(db)
	l.cost = bcrypt.MinCost
	return l
}

func TestLocalSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	m := NewManager(l)

	s := NewSession()
	res := m.SignUp(ctx, s, "ash@example.com", "pikapika")
	require.True(t, res.Success, res.Error)
	assert.True(t, s.Authenticated())

	res = m.SignUp(ctx, NewSession(), "ASH@example.com", "pikapika")
	assert.Equal(t, ErrUserExists.Error(), res.Error)

	res = m.SignUp(ctx, NewSession(), "misty@example.com", "short")
	assert.Equal(t, ErrWeakPassword.Error(), res.Error)

	s2 := NewSession()
	assert.True(t, m.SignIn(ctx, s2, "ash@example.com", "pikapika").Success)
	assert.Equal(t, ErrInvalidCredentials.Error(), m.SignIn(ctx, NewSession(), "ash@example.com", "wrong").Error)
	assert.Equal(t, ErrInvalidCredentials.Error(), m.SignIn(ctx, NewSession(), "brock@example.com", "pikapika").Error)
}

func TestLocalPasswordReset(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	m := NewManager(l)
	require.True(t, m.SignUp(ctx, NewSession(), "ash@example.com", "pikapika").Success)

	hook := test.NewLocal(utils.Log)
	defer hook.Reset()

	require.True(t, m.ResetPassword(ctx, "ash@example.com", "http://localhost:9999/password-reset").Success)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	link := strings.TrimPrefix(entry.Message, "Password reset link: ")
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	assert.Equal(t, "/password-reset", u.Path)

	assert.Equal(t, ErrInvalidToken.Error(), m.CompleteReset(ctx, "bogus", "raichu123").Error)
	require.True(t, m.CompleteReset(ctx, token, "raichu123").Success)
	assert.Equal(t, ErrInvalidToken.Error(), m.CompleteReset(ctx, token, "raichu456").Error)

	assert.True(t, m.SignIn(ctx, NewSession(), "ash@example.com", "raichu123").Success)
	assert.False(t, m.SignIn(ctx, NewSession(), "ash@example.com", "pikapika").Success)

	// Unknown addresses do not reveal themselves.
	assert.True(t, m.ResetPassword(ctx, "nobody@example.com", "http://localhost/password-reset").Success)
}
