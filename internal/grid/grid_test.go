package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffset_RowMajorWithPadding(t *testing.T) {
	assert.Equal(t, 0, Offset(0, 0, 4))
	assert.Equal(t, 5, Offset(5, 0, 4))
	assert.Equal(t, 6, Offset(0, 1, 4))
	assert.Equal(t, 7, Offset(1, 1, 4))

	assert.Panics(t, func() { Offset(6, 0, 4) })
	assert.Panics(t, func() { Offset(-1, 0, 4) })
	assert.Panics(t, func() { Offset(0, -1, 4) })
}

func TestBuffer_AccessorBounds(t *testing.T) {
	b, err := New(3, 2)
	require.NoError(t, err)
	assert.Len(t, b.Cells(), 5*4)

	b.Set(3, 2, 1.5)
	b.Set(0, 3, -1)
	assert.Equal(t, 1.5, b.At(3, 2))
	assert.Equal(t, -1.0, b.At(0, 3))

	assert.Panics(t, func() { b.At(0, 4) })
	assert.Panics(t, func() { b.Set(5, 0, 1) })
}

func TestBuffer_Interior(t *testing.T) {
	b, err := New(2, 2)
	require.NoError(t, err)
	b.Set(0, 0, 99) // ghost, must not show up
	b.Set(1, 1, 1)
	b.Set(2, 1, 2)
	b.Set(1, 2, 3)
	b.Set(2, 2, 4)

	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, b.Interior())
}

func TestNew_Allocation(t *testing.T) {
	_, err := New(0, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllocation))
}

func TestPair_Swap(t *testing.T) {
	p, err := NewPair(2, 2)
	require.NoError(t, err)

	first, second := p.Active(), p.Next()
	require.NotSame(t, first, second)

	first.Set(1, 1, 7)
	p.Swap()
	assert.Same(t, second, p.Active())
	assert.Same(t, first, p.Next())
	assert.Equal(t, 7.0, p.Next().At(1, 1), "swap must not reallocate")

	p.Swap()
	assert.Same(t, first, p.Get(Active))
	assert.Same(t, second, p.Get(Next))
}
