// Package backend pairs a remote counters store with the auth provider that
// guards it, as selected by configuration.
package backend

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pokecounter/pokecounter/internal/utils"
	"github.com/pokecounter/pokecounter/pkg/auth"
	"github.com/pokecounter/pokecounter/pkg/storage"
	"github.com/pokecounter/pokecounter/pkg/supabase"
	"github.com/pokecounter/pokecounter/pkg/tracker"
)

const (
	KindSQLite   = "sqlite"
	KindSupabase = "supabase"
	KindMemory   = "memory"
)

type Config struct {
	Kind       string
	SQLitePath string
	Supabase   supabase.Config
}

// Backend hands out the counters table for a session and the provider that
// authenticates sessions.
type Backend interface {
	Table(s *auth.Session) tracker.Remote
	Auth() auth.Provider
	Close() error
}

func Open(cfg Config) (Backend, error) {
	switch cfg.Kind {
	case KindSQLite, "":
		return OpenSQLite(cfg.SQLitePath)
	case KindSupabase:
		return OpenSupabase(cfg.Supabase)
	case KindMemory:
		return OpenMemory()
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s, %s or %s)", cfg.Kind, KindSQLite, KindSupabase, KindMemory)
	}
}

// SQLite keeps counters and accounts in one local database file.
type SQLite struct {
	DB   *storage.DB
	auth *auth.Local
}

func OpenSQLite(path string) (*SQLite, error) {
	abs, err := utils.GetAbsDBPath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := storage.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", abs, err)
	}
	utils.Log.WithField("path", abs).Debug("Opened sqlite backend")
	return &SQLite{DB: db, auth: auth.NewLocal(db)}, nil
}

// Table ignores the session: a local database has a single owner.
func (b *SQLite) Table(*auth.Session) tracker.Remote { return b.DB.Counters() }
func (b *SQLite) Auth() auth.Provider                { return b.auth }
func (b *SQLite) Close() error                       { return b.DB.Close() }

// Supabase uses the hosted project for both counters and accounts.
type Supabase struct {
	Client *supabase.Client
}

func OpenSupabase(cfg supabase.Config) (*Supabase, error) {
	c, err := supabase.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Supabase{Client: c}, nil
}

// Table uses the session's access token so row level security applies.
func (b *Supabase) Table(s *auth.Session) tracker.Remote {
	return b.Client.Table(s.AccessToken())
}
func (b *Supabase) Auth() auth.Provider { return b.Client }
func (b *Supabase) Close() error        { return nil }

// Memory keeps counters in process and accounts in a throwaway database. It
// is meant for trying the UI and for tests.
type Memory struct {
	Remote *tracker.MemoryRemote
	DB     *storage.DB
	auth   *auth.Local
	dir    string
}

func OpenMemory() (*Memory, error) {
	dir, err := os.MkdirTemp("", "pokecounter-")
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(filepath.Join(dir, "accounts.sqlite"))
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return &Memory{Remote: tracker.NewMemoryRemote(), DB: db, auth: auth.NewLocal(db), dir: dir}, nil
}

func (b *Memory) Table(*auth.Session) tracker.Remote { return b.Remote }
func (b *Memory) Auth() auth.Provider                { return b.auth }

// SetPasswordCost lowers the bcrypt cost, for tests.
func (b *Memory) SetPasswordCost(cost int) { b.auth.SetCost(cost) }

func (b *Memory) Close() error {
	err := b.DB.Close()
	os.RemoveAll(b.dir)
	return err
}
