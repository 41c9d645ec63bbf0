package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pokecounter/pokecounter/pkg/auth"
	"github.com/pokecounter/pokecounter/pkg/supabase"
	"github.com/pokecounter/pokecounter/pkg/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hunts.sqlite")
	b, err := Open(Config{Kind: KindSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	table := b.Table(auth.NewSession())
	_, err = table.Insert(ctx, tracker.Draft{Name: "Pikachu", Status: tracker.StatusOpen})
	require.NoError(t, err)
	rows, err := table.Select(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, ok := b.Auth().(*auth.Local)
	assert.True(t, ok)
}

func TestOpenSupabase(t *testing.T) {
	b, err := Open(Config{Kind: KindSupabase, Supabase: supabase.Config{URL: "https://example.supabase.co", AnonKey: "anon"}})
	require.NoError(t, err)
	assert.IsType(t, &supabase.Table{}, b.Table(auth.NewSession()))
	assert.NoError(t, b.Close())

	_, err = Open(Config{Kind: KindSupabase})
	assert.Error(t, err)
}

func TestOpenMemory(t *testing.T) {
	b, err := Open(Config{Kind: KindMemory})
	require.NoError(t, err)
	m := b.(*Memory)
	assert.Same(t, m.Remote, b.Table(auth.NewSession()))
	require.NoError(t, b.Close())
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open(Config{Kind: "postgres"})
	assert.ErrorContains(t, err, "unknown backend")
}
