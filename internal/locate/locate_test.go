package locate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameVariants(t *testing.T) {
	variants := NameVariants("Hollow Knight")

	assert.Contains(t, variants, "Hollow Knight")
	assert.Contains(t, variants, "HollowKnight")
	assert.Contains(t, variants, "Hollow_Knight")
	assert.Contains(t, variants, "hollow knight")
	assert.Contains(t, variants, "hollowknight")
	assert.Contains(t, variants, ".hollowknight")
}

func TestNameVariantsStripsPunctuation(t *testing.T) {
	variants := NameVariants("Baldur's Gate 3")
	assert.Contains(t, variants, "Baldurs Gate 3")
}

func TestNameVariantsDeduplicates(t *testing.T) {
	variants := NameVariants("celeste")

	seen := map[string]int{}
	for _, v := range variants {
		seen[v]++
	}
	for v, n := range seen {
		assert.Equal(t, 1, n, v)
	}
}

func TestNameVariantsEmpty(t *testing.T) {
	assert.Nil(t, NameVariants(""))
	assert.Nil(t, NameVariants("   "))
}

func TestSearchDirMatchesVariants(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "HollowKnight"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "unrelated"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "Team Cherry", "Hollow Knight"), 0755))

	var suggestions []Suggestion
	searchDir(base, NameVariants("Hollow Knight"), 2, &suggestions)

	var paths []string
	for _, s := range suggestions {
		paths = append(paths, s.Path)
	}

	assert.Contains(t, paths, filepath.Join(base, "HollowKnight"))
	assert.Contains(t, paths, filepath.Join(base, "Team Cherry", "Hollow Knight"))
	assert.NotContains(t, paths, filepath.Join(base, "unrelated"))
}

func TestSearchDirRespectsDepth(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "a", "b", "HollowKnight"), 0755))

	var suggestions []Suggestion
	searchDir(base, NameVariants("Hollow Knight"), 2, &suggestions)

	assert.Empty(t, suggestions, "matches below the depth limit are not reported")
}
