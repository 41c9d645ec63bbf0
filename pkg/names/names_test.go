package names

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, 151, r.Len())

	for _, name := range []string{"Pikachu", "pikachu", "  Glumanda ", "CHARMANDER", "Evoli", "Mr. Mime", "Nidoran♀"} {
		assert.True(t, r.Contains(name), name)
	}
	for _, name := range []string{"", "Agumon", "Pika", "Pikachuu"} {
		assert.False(t, r.Contains(name), name)
	}
}

func TestTranslation(t *testing.T) {
	r := Default()

	en, ok := r.English("glumanda")
	require.True(t, ok)
	assert.Equal(t, "Charmander", en)

	de, ok := r.German("Eevee")
	require.True(t, ok)
	assert.Equal(t, "Evoli", de)

	en, ok = r.English("Pikachu")
	require.True(t, ok)
	assert.Equal(t, "Pikachu", en)

	_, ok = r.English("Agumon")
	assert.False(t, ok)
}

func TestNamesAreDistinct(t *testing.T) {
	all := Default().Names()
	seen := map[string]bool{}
	for _, n := range all {
		assert.False(t, seen[n], "duplicate %s", n)
		seen[n] = true
	}
	assert.Equal(t, "Bisasam", all[0])
}

func TestNewRejectsMisalignedLists(t *testing.T) {
	_, err := New([]string{"Pikachu", "Raichu"}, []string{"Pikachu"})
	require.Error(t, err)

	_, err = New([]string{"Pikachu", ""}, []string{"Pikachu", "Raichu"})
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	r, err := Parse(strings.NewReader("english,german\nTogepi,Togepi\nMarill,Marill\nTotodile,Karnimani\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	assert.True(t, r.Contains("karnimani"))

	_, err = Parse(strings.NewReader("name,other\nA,B\n"))
	require.Error(t, err)

	_, err = Parse(strings.NewReader("english,german\nA,B,C\n"))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.csv")
	require.NoError(t, os.WriteFile(path, []byte("english,german\nChikorita,Endivie\n"), 0o644))

	r, err := LoadFile(path)
	require.NoError(t, err)
	de, ok := r.German("chikorita")
	require.True(t, ok)
	assert.Equal(t, "Endivie", de)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
