package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pokecounter/pokecounter/internal/backend"
	"github.com/pokecounter/pokecounter/internal/utils"
	"github.com/pokecounter/pokecounter/pkg/auth"
	"github.com/pokecounter/pokecounter/pkg/names"
	"github.com/pokecounter/pokecounter/pkg/sprites"
	"github.com/pokecounter/pokecounter/pkg/supabase"
	"github.com/pokecounter/pokecounter/pkg/tracker"
	"github.com/spf13/viper"
)

func backendConfig() backend.Config {
	return backend.Config{
		Kind:       viper.GetString("backend"),
		SQLitePath: viper.GetString("sqlite.path"),
		Supabase: supabase.Config{
			URL:     viper.GetString("supabase.url"),
			AnonKey: viper.GetString("supabase.anon_key"),
			Table:   viper.GetString("supabase.table"),
		},
	}
}

func loadNames() (*names.Registry, error) {
	if f := viper.GetString("names.file"); f != "" {
		return names.LoadFile(f)
	}
	return names.Default(), nil
}

// spriteClient returns nil when sprites are disabled.
func spriteClient(reg *names.Registry) *sprites.Client {
	if !viper.GetBool("sprites.enabled") {
		return nil
	}
	return sprites.New(viper.GetString("sprites.base_url"), reg)
}

// openSQLite opens the configured database, or path when it is set. Commands
// that only make sense locally use it.
func openSQLite(path string) (*backend.SQLite, error) {
	if path == "" {
		if kind := viper.GetString("backend"); kind != backend.KindSQLite && kind != "" {
			return nil, fmt.Errorf("this command needs the sqlite backend (configured: %s)", kind)
		}
		path = viper.GetString("sqlite.path")
	}
	return backend.OpenSQLite(path)
}

// cliSession signs in with supabase.email and supabase.password when the
// supabase backend is configured with them. Otherwise the session stays
// anonymous, which the local backends do not mind.
func cliSession(ctx context.Context, b backend.Backend) (*auth.Session, func(), error) {
	s := auth.NewSession()
	noop := func() {}
	if _, ok := b.(*backend.Supabase); !ok {
		return s, noop, nil
	}
	email := viper.GetString("supabase.email")
	if email == "" {
		utils.Log.Debug("No supabase.email configured, using the anon key")
		return s, noop, nil
	}
	m := auth.NewManager(b.Auth())
	if res := m.SignIn(ctx, s, email, viper.GetString("supabase.password")); res.Error != "" {
		return nil, noop, fmt.Errorf("sign in as %s: %s", email, res.Error)
	}
	return s, signOutFunc(m, s), nil
}

// signOutFunc signs s out once the command is done.
func signOutFunc(m *auth.Manager, s *auth.Session) func() {
	return func() {
		if res := m.SignOut(context.Background(), s); res.Error != "" {
			utils.Log.Warnf("Could not sign out: %s", res.Error)
		}
	}
}

// withList opens the configured backend, loads the hunt list and runs fn.
// Writes to a sqlite database hold its file lock for the whole run.
func withList(ctx context.Context, write bool, fn func(*tracker.List) error) error {
	b, err := backend.Open(backendConfig())
	if err != nil {
		return err
	}
	defer b.Close()

	reg, err := loadNames()
	if err != nil {
		return err
	}
	sess, signOut, err := cliSession(ctx, b)
	if err != nil {
		return err
	}
	defer signOut()

	list := tracker.NewList(b.Table(sess), reg)
	run := func() error {
		if err := list.Load(ctx); err != nil {
			return err
		}
		return fn(list)
	}

	if sq, ok := b.(*backend.SQLite); ok && write {
		lock, err := utils.NewDBLock(sq.DB.Path())
		if err != nil {
			return err
		}
		return lock.Do(run)
	}
	return run()
}

// resolveID accepts a full id or an unambiguous prefix of one.
func resolveID(list *tracker.List, arg string) (string, error) {
	if _, ok := list.Get(arg); ok {
		return arg, nil
	}
	var matches []string
	for _, it := range list.Items() {
		if strings.HasPrefix(it.ID, arg) {
			matches = append(matches, it.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", tracker.ErrNotFound, arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d hunts)", arg, len(matches))
	}
}
