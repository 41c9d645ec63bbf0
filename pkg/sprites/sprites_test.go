package sprites

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pokecounter/pokecounter/pkg/names"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	cases := map[string]string{
		"Pikachu":    "pikachu",
		"Mr. Mime":   "mr-mime",
		"Nidoran♀":   "nidoran-f",
		"Nidoran♂":   "nidoran-m",
		"Farfetch'd": "farfetchd",
		"  Mew  ":    "mew",
	}
	for in, want := range cases {
		assert.Equal(t, want, Key(in), in)
	}
}

func TestLookup(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/pokemon/pikachu":
			io.WriteString(w, `{"sprites":{"front_default":"d.png","front_shiny":"s.png"}}`)
		case "/pokemon/ditto":
			io.WriteString(w, `{"sprites":{"front_default":"ditto.png","front_shiny":null}}`)
		case "/pokemon/mewtwo":
			io.WriteString(w, `{"sprites":{}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, names.Default())
	ctx := context.Background()

	sprite, ok := c.Lookup(ctx, "Pikachu")
	require.True(t, ok)
	assert.Equal(t, "s.png", sprite)

	// Cached: no second request.
	_, _ = c.Lookup(ctx, "pikachu")
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	sprite, ok = c.Lookup(ctx, "Ditto")
	require.True(t, ok)
	assert.Equal(t, "ditto.png", sprite)

	_, ok = c.Lookup(ctx, "Mewtu")
	assert.False(t, ok)

	_, ok = c.Lookup(ctx, "Missingno")
	assert.False(t, ok)
}

func TestLookupTranslatesGerman(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		io.WriteString(w, `{"sprites":{"front_shiny":"x.png"}}`)
	}))
	defer srv.Close()

	_, ok := New(srv.URL, names.Default()).Lookup(context.Background(), "Glumanda")
	require.True(t, ok)
	assert.Equal(t, "/pokemon/charmander", path)
}

func TestLookupSwallowsNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, nil)
	c.http.RetryMax = 0
	_, ok := c.Lookup(context.Background(), "Pikachu")
	assert.False(t, ok)
}

func TestLookupSkipsUnknownNames(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		io.WriteString(w, `{"sprites":{"front_shiny":"x.png"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, names.Default())
	for _, n := range []string{"Agumon", "Gabumon", "Missingno"} {
		_, ok := c.Lookup(context.Background(), n)
		assert.False(t, ok, n)
	}
	assert.Zero(t, atomic.LoadInt32(&hits))
	assert.Empty(t, c.cache)
}

func TestCacheIsBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"sprites":{"front_shiny":"x.png"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	c.cacheLimit = 2
	for _, n := range []string{"Pikachu", "Evoli", "Mew", "Ditto"} {
		_, ok := c.Lookup(context.Background(), n)
		require.True(t, ok, n)
	}
	assert.Len(t, c.cache, 2)
}
