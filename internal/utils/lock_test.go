package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBLockDo(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hunts.sqlite")
	first, err := NewDBLock(dbPath)
	require.NoError(t, err)
	second, err := NewDBLock(dbPath)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = first.Do(func() error {
		_, statErr := os.Stat(dbPath + ".lock")
		assert.NoError(t, statErr)

		held, err := second.flock.TryLock()
		require.NoError(t, err)
		assert.False(t, held, "lock must be exclusive while fn runs")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ran := false
	require.NoError(t, second.Do(func() error { ran = true; return nil }))
	assert.True(t, ran)
}

func TestGetAbsDBPath(t *testing.T) {
	p, err := GetAbsDBPath("hunts.sqlite")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p))

	p, err = GetAbsDBPath("")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, filepath.Join(".config", "pokecounter", "pokecounter.sqlite")), p)
}
