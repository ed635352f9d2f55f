// Package halo copies boundary rows and columns of a block into contiguous
// message buffers and back into the ghost border.
package halo

import (
	"fmt"

	"github.com/vk/heatgrid/internal/grid"
	"github.com/vk/heatgrid/internal/mesh"
)

// Set is the eight per-direction message buffers of one worker. North and
// South hold bx values, East and West hold by values. They are allocated
// once and reused on every iteration.
type Set struct {
	Send [4][]float64
	Recv [4][]float64
	bx   int
	by   int
}

// New allocates the buffers for a bx×by block.
func New(bx, by int) *Set {
	s := &Set{bx: bx, by: by}
	for _, d := range mesh.Directions {
		n := Len(d, bx, by)
		s.Send[d] = make([]float64, n)
		s.Recv[d] = make([]float64, n)
	}
	return s
}

// Len returns the message length for direction d of a bx×by block.
func Len(d mesh.Direction, bx, by int) int {
	if d == mesh.North || d == mesh.South {
		return bx
	}
	return by
}

func (s *Set) check(buf *grid.Buffer) {
	if buf.BX() != s.bx || buf.BY() != s.by {
		panic(fmt.Sprintf("halo: buffer is %dx%d, set was built for %dx%d", buf.BX(), buf.BY(), s.bx, s.by))
	}
}

// Pack copies the outermost interior row or column on each side of buf into
// the send buffers.
func (s *Set) Pack(buf *grid.Buffer) {
	s.check(buf)
	for x := 1; x <= s.bx; x++ {
		s.Send[mesh.North][x-1] = buf.At(x, 1)
		s.Send[mesh.South][x-1] = buf.At(x, s.by)
	}
	for y := 1; y <= s.by; y++ {
		s.Send[mesh.East][y-1] = buf.At(s.bx, y)
		s.Send[mesh.West][y-1] = buf.At(1, y)
	}
}

// Unpack writes the receive buffers into the ghost border of buf. Sides
// without a neighbor are left untouched.
func (s *Set) Unpack(buf *grid.Buffer, neighbors mesh.Neighbors) {
	s.check(buf)
	if neighbors[mesh.North] != mesh.NoNeighbor {
		for x := 1; x <= s.bx; x++ {
			buf.Set(x, 0, s.Recv[mesh.North][x-1])
		}
	}
	if neighbors[mesh.South] != mesh.NoNeighbor {
		for x := 1; x <= s.bx; x++ {
			buf.Set(x, s.by+1, s.Recv[mesh.South][x-1])
		}
	}
	if neighbors[mesh.East] != mesh.NoNeighbor {
		for y := 1; y <= s.by; y++ {
			buf.Set(s.bx+1, y, s.Recv[mesh.East][y-1])
		}
	}
	if neighbors[mesh.West] != mesh.NoNeighbor {
		for y := 1; y <= s.by; y++ {
			buf.Set(0, y, s.Recv[mesh.West][y-1])
		}
	}
}
