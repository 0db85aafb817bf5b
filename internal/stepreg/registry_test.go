package stepreg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	h := &Handler{}
	r.Register("checkout", h)

	got, err := r.Lookup("checkout")
	require.NoError(t, err)
	assert.Same(t, h, got)

	_, err = r.Lookup("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}

func TestRegister_DuplicatePanics(t *testing.T) {
	r := New()
	r.Register("checkout", &Handler{})
	assert.Panics(t, func() {
		r.Register("checkout", &Handler{})
	})
}

func TestNames_Sorted(t *testing.T) {
	r := New()
	r.Register("toolchain", &Handler{})
	r.Register("checkout", &Handler{})
	assert.Equal(t, []string{"checkout", "toolchain"}, r.Names())
}
