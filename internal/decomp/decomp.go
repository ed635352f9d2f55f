// Package decomp maps a worker's mesh coordinates onto the block of the
// global grid it owns. Everything here is pure: every worker evaluates it
// locally and all of them arrive at the same disjoint tiling.
package decomp

import (
	"errors"
	"fmt"

	"github.com/vk/heatgrid/internal/mesh"
)

var (
	// ErrNotDivisibleX is returned when the grid size is not a multiple of px.
	ErrNotDivisibleX = errors.New("grid size n must be divisible by px")
	// ErrNotDivisibleY is returned when the grid size is not a multiple of py.
	ErrNotDivisibleY = errors.New("grid size n must be divisible by py")
)

// Block is the part of the global n×n grid owned by one worker.
type Block struct {
	BX   int // width
	BY   int // height
	OffX int // global x of local x=1
	OffY int // global y of local y=1
}

// Validate checks that an n×n grid tiles evenly over the mesh shape.
func Validate(n int, shape mesh.Shape) error {
	if n <= 0 {
		return fmt.Errorf("grid size must be positive, got %d", n)
	}
	if shape.PX <= 0 || shape.PY <= 0 {
		return fmt.Errorf("invalid mesh shape %dx%d", shape.PX, shape.PY)
	}
	if n%shape.PX != 0 {
		return fmt.Errorf("%w: %d %% %d = %d", ErrNotDivisibleX, n, shape.PX, n%shape.PX)
	}
	if n%shape.PY != 0 {
		return fmt.Errorf("%w: %d %% %d = %d", ErrNotDivisibleY, n, shape.PY, n%shape.PY)
	}
	return nil
}

// Decompose returns the block owned by the worker at coord.
func Decompose(n int, shape mesh.Shape, coord mesh.Coord) (Block, error) {
	if err := Validate(n, shape); err != nil {
		return Block{}, err
	}
	if coord.X < 0 || coord.X >= shape.PX || coord.Y < 0 || coord.Y >= shape.PY {
		return Block{}, fmt.Errorf("coordinate %s outside %dx%d mesh", coord, shape.PX, shape.PY)
	}

	bx := n / shape.PX
	by := n / shape.PY
	return Block{
		BX:   bx,
		BY:   by,
		OffX: coord.X * bx,
		OffY: coord.Y * by,
	}, nil
}

// Contains reports whether global cell (gx, gy) lies inside the block.
func (b Block) Contains(gx, gy int) bool {
	return gx >= b.OffX && gx < b.OffX+b.BX && gy >= b.OffY && gy < b.OffY+b.BY
}

// ToLocal translates a global cell to the block's ghost-padded indices. The
// result is only meaningful when Contains(gx, gy) holds.
func (b Block) ToLocal(gx, gy int) (x, y int) {
	return gx - b.OffX + 1, gy - b.OffY + 1
}

// ToGlobal is the inverse of ToLocal for interior cells.
func (b Block) ToGlobal(x, y int) (gx, gy int) {
	return x - 1 + b.OffX, y - 1 + b.OffY
}
