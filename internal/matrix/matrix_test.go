package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conveyor-ci/conveyor/internal/model"
)

func TestExpand_CrossProductPlusIncludes(t *testing.T) {
	m := &model.Matrix{
		Runtimes: []string{"3.7", "3.8", "3.9"},
		OSes:     []string{"ubuntu-22.04", "macos-13"},
		Includes: []model.Include{
			{Runtime: "3.8", OS: "windows-2022"},
			{Runtime: "3.9", OS: "windows-2022"},
		},
	}

	entries, err := Expand(m)
	require.NoError(t, err)

	// |runtimes| * |oses| + |includes|
	require.Len(t, entries, 3*2+2)

	// Runtime-major ordering for the cross-product.
	assert.Equal(t, Entry{Runtime: "3.7", OS: "ubuntu-22.04"}, entries[0])
	assert.Equal(t, Entry{Runtime: "3.7", OS: "macos-13"}, entries[1])
	assert.Equal(t, Entry{Runtime: "3.8", OS: "ubuntu-22.04"}, entries[2])

	// Includes come last, in declaration order.
	assert.Equal(t, Entry{Runtime: "3.8", OS: "windows-2022"}, entries[6])
	assert.Equal(t, Entry{Runtime: "3.9", OS: "windows-2022"}, entries[7])
}

func TestExpand_IncludesAreNotDeduplicated(t *testing.T) {
	m := &model.Matrix{
		Runtimes: []string{"3.9"},
		OSes:     []string{"ubuntu-22.04"},
		Includes: []model.Include{
			{Runtime: "3.9", OS: "ubuntu-22.04"},
		},
	}

	entries, err := Expand(m)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0], entries[1])
}

func TestExpand_EmptyDimensionYieldsOnlyIncludes(t *testing.T) {
	m := &model.Matrix{
		Runtimes: nil,
		OSes:     nil,
		Includes: []model.Include{{Runtime: "3.9", OS: "ubuntu-22.04"}},
	}

	entries, err := Expand(m)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestExpand_RejectsEmptyValues(t *testing.T) {
	_, err := Expand(&model.Matrix{Runtimes: []string{""}, OSes: []string{"ubuntu-22.04"}})
	require.Error(t, err)

	_, err = Expand(&model.Matrix{Runtimes: []string{"3.9"}, OSes: []string{""}})
	require.Error(t, err)

	_, err = Expand(&model.Matrix{Includes: []model.Include{{Runtime: "3.9"}}})
	require.Error(t, err)

	_, err = Expand(nil)
	require.Error(t, err)
}

func TestExpand_RejectsEmptyExpansion(t *testing.T) {
	_, err := Expand(&model.Matrix{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entries")

	_, err = Expand(&model.Matrix{Runtimes: []string{"3.9"}, OSes: nil})
	require.Error(t, err)
}

func TestEntryLabel(t *testing.T) {
	e := Entry{Runtime: "pypy-3.9", OS: "ubuntu-22.04"}
	assert.Equal(t, "ubuntu-22.04-pypy-3.9", e.Label())
	assert.Equal(t, "(ubuntu-22.04, pypy-3.9)", e.String())
}
