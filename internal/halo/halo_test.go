package halo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/heatgrid/internal/grid"
	"github.com/vk/heatgrid/internal/mesh"
)

func filled(t *testing.T, bx, by int) *grid.Buffer {
	t.Helper()
	b, err := grid.New(bx, by)
	require.NoError(t, err)
	for y := 1; y <= by; y++ {
		for x := 1; x <= bx; x++ {
			b.Set(x, y, float64(10*y+x))
		}
	}
	return b
}

func TestPack(t *testing.T) {
	s := New(3, 2)
	s.Pack(filled(t, 3, 2))

	assert.Equal(t, []float64{11, 12, 13}, s.Send[mesh.North])
	assert.Equal(t, []float64{21, 22, 23}, s.Send[mesh.South])
	assert.Equal(t, []float64{13, 23}, s.Send[mesh.East])
	assert.Equal(t, []float64{11, 21}, s.Send[mesh.West])
}

// A periodic 1x1 mesh is its own neighbor on every side: after packing and
// delivering each message to the opposite side, every ghost must mirror the
// interior edge across the block.
func TestSelfLoopRoundTrip(t *testing.T) {
	const bx, by = 4, 3
	buf := filled(t, bx, by)
	s := New(bx, by)
	s.Pack(buf)

	for _, d := range mesh.Directions {
		copy(s.Recv[d.Opposite()], s.Send[d])
	}
	s.Unpack(buf, mesh.Neighbors{0, 0, 0, 0})

	for x := 1; x <= bx; x++ {
		assert.Equal(t, buf.At(x, by), buf.At(x, 0), "north ghost at x=%d", x)
		assert.Equal(t, buf.At(x, 1), buf.At(x, by+1), "south ghost at x=%d", x)
	}
	for y := 1; y <= by; y++ {
		assert.Equal(t, buf.At(1, y), buf.At(bx+1, y), "east ghost at y=%d", y)
		assert.Equal(t, buf.At(bx, y), buf.At(0, y), "west ghost at y=%d", y)
	}
}

func TestUnpack_SkipsMissingNeighbors(t *testing.T) {
	buf := filled(t, 2, 2)
	s := New(2, 2)
	for _, d := range mesh.Directions {
		for i := range s.Recv[d] {
			s.Recv[d][i] = -1
		}
	}

	s.Unpack(buf, mesh.Neighbors{mesh.NoNeighbor, 5, mesh.NoNeighbor, 7})

	assert.Equal(t, 0.0, buf.At(1, 0), "north ghost untouched")
	assert.Equal(t, 0.0, buf.At(3, 1), "east ghost untouched")
	assert.Equal(t, -1.0, buf.At(1, 3))
	assert.Equal(t, -1.0, buf.At(0, 2))
	assert.Equal(t, 0.0, buf.At(0, 0), "corners are never written")
}

func TestPack_SizeMismatchPanics(t *testing.T) {
	s := New(2, 2)
	assert.Panics(t, func() { s.Pack(filled(t, 3, 2)) })
}
