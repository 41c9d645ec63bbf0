package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pokecounter/pokecounter/internal/utils"
	"github.com/pokecounter/pokecounter/pkg/auth"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type stubProvider struct {
	signOutErr error
	signOuts   int
}

func (p *stubProvider) SignIn(ctx context.Context, email, password string) (auth.Identity, error) {
	return auth.Identity{UserID: "u1", Email: email, AccessToken: "jwt"}, nil
}

func (p *stubProvider) SignUp(ctx context.Context, email, password string) (auth.Identity, error) {
	return auth.Identity{}, nil
}

func (p *stubProvider) ResetPassword(ctx context.Context, email, redirectTo string) error {
	return nil
}

func (p *stubProvider) SignOut(ctx context.Context, id auth.Identity) error {
	p.signOuts++
	return p.signOutErr
}

// withLogHook captures utils.Log at info level for the test.
func withLogHook(t *testing.T) *test.Hook {
	level := utils.Log.GetLevel()
	utils.Log.SetLevel(logrus.InfoLevel)
	hook := test.NewLocal(utils.Log)
	t.Cleanup(func() {
		hook.Reset()
		utils.Log.SetLevel(level)
	})
	return hook
}

func TestSignOutFuncWarnsOnFailure(t *testing.T) {
	hook := withLogHook(t)

	p := &stubProvider{signOutErr: errors.New("gateway timeout")}
	m := auth.NewManager(p)
	s := auth.NewSession()
	if res := m.SignIn(context.Background(), s, "brock@example.com", "onix"); res.Error != "" {
		t.Fatal(res.Error)
	}
	hook.Reset()

	signOutFunc(m, s)()

	if p.signOuts != 1 {
		t.Fatalf("expected one sign out call, got %d", p.signOuts)
	}
	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "gateway timeout") {
			warned = true
		}
	}
	if !warned {
		t.Fatal("failed sign out was not logged at warn level")
	}
}

func TestSignOutFuncQuietOnSuccess(t *testing.T) {
	hook := withLogHook(t)

	p := &stubProvider{}
	m := auth.NewManager(p)
	s := auth.NewSession()
	m.SignIn(context.Background(), s, "brock@example.com", "onix")
	hook.Reset()

	signOutFunc(m, s)()

	if s.Authenticated() {
		t.Fatal("session should be anonymous after sign out")
	}
	for _, e := range hook.AllEntries() {
		if e.Level <= logrus.WarnLevel {
			t.Fatalf("unexpected %s entry: %s", e.Level, e.Message)
		}
	}
}
