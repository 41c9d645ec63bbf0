// Package names holds the static bilingual Pokémon name registry used to
// validate new hunts and to translate names for sprite lookups.
package names

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

//go:embed data/pokemon.csv
var defaultCSV string

// Entry is one Pokémon in both languages.
type Entry struct {
	English string
	German  string
}

// Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// New builds a Registry from two index-aligned lists.
func New(english, german []string) (*Registry, error) {
	if len(english) != len(german) {
		return nil, fmt.Errorf("name lists differ in length: %d english, %d german", len(english), len(german))
	}
	r := &Registry{
		entries: make([]Entry, 0, len(english)),
		index:   make(map[string]int, 2*len(english)),
	}
	for i := range english {
		en, de := strings.TrimSpace(english[i]), strings.TrimSpace(german[i])
		if en == "" || de == "" {
			return nil, fmt.Errorf("empty name at position %d", i+1)
		}
		r.entries = append(r.entries, Entry{English: en, German: de})
		r.index[key(en)] = i
		if _, taken := r.index[key(de)]; !taken {
			r.index[key(de)] = i
		}
	}
	return r, nil
}

// Parse reads a CSV with an "english,german" header.
func Parse(rd io.Reader) (*Registry, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !strings.EqualFold(header[0], "english") || !strings.EqualFold(header[1], "german") {
		return nil, errors.New(`name list must start with an "english,german" header`)
	}

	var english, german []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		english = append(english, rec[0])
		german = append(german, rec[1])
	}
	return New(english, german)
}

// LoadFile parses a registry CSV from disk.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the embedded registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Parse(strings.NewReader(defaultCSV))
		if err != nil {
			panic("names: embedded list: " + err.Error())
		}
		defaultReg = r
	})
	return defaultReg
}

// Contains reports whether name matches an entry in either language,
// ignoring case and surrounding space.
func (r *Registry) Contains(name string) bool {
	_, ok := r.index[key(name)]
	return ok
}

// Lookup returns the entry for a name in either language.
func (r *Registry) Lookup(name string) (Entry, bool) {
	i, ok := r.index[key(name)]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// English translates name to its English spelling.
func (r *Registry) English(name string) (string, bool) {
	e, ok := r.Lookup(name)
	return e.English, ok
}

// German translates name to its German spelling.
func (r *Registry) German(name string) (string, bool) {
	e, ok := r.Lookup(name)
	return e.German, ok
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// Names returns every distinct spelling, German first then English, in
// registry order. Used for input suggestions.
func (r *Registry) Names() []string {
	seen := make(map[string]bool, 2*len(r.entries))
	out := make([]string, 0, 2*len(r.entries))
	for _, lang := range []func(Entry) string{
		func(e Entry) string { return e.German },
		func(e Entry) string { return e.English },
	} {
		for _, e := range r.entries {
			n := lang(e)
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
