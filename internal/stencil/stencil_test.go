package stencil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/heatgrid/internal/grid"
)

func TestUpdate_SinglePoint(t *testing.T) {
	old, err := grid.New(3, 3)
	require.NoError(t, err)
	next, err := grid.New(3, 3)
	require.NoError(t, err)

	old.Set(2, 2, 1)
	next.Set(2, 2, 1)

	heat := Update(old, next)

	// centre keeps half of its previous next value, the four neighbors get
	// an eighth each
	assert.InDelta(t, 0.5, next.At(2, 2), 1e-12)
	for _, c := range [][2]int{{1, 2}, {3, 2}, {2, 1}, {2, 3}} {
		assert.InDelta(t, 0.125, next.At(c[0], c[1]), 1e-12)
	}
	assert.InDelta(t, 0.0, next.At(1, 1), 1e-12)
	assert.InDelta(t, 1.0, heat, 1e-12)
}

func TestUpdate_ReadsGhosts(t *testing.T) {
	old, err := grid.New(1, 1)
	require.NoError(t, err)
	next, err := grid.New(1, 1)
	require.NoError(t, err)

	old.Set(0, 1, 1)
	old.Set(2, 1, 2)
	old.Set(1, 0, 3)
	old.Set(1, 2, 4)
	next.Set(1, 1, 8)

	heat := Update(old, next)
	assert.InDelta(t, 4+10.0/8, heat, 1e-12)
	assert.Equal(t, 0.0, next.At(0, 1), "ghosts of next are not written")
}

func TestUpdate_SizeMismatchPanics(t *testing.T) {
	a, err := grid.New(2, 2)
	require.NoError(t, err)
	b, err := grid.New(2, 3)
	require.NoError(t, err)
	assert.Panics(t, func() { Update(a, b) })
}
