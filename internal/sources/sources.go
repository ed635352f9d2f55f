// Package sources injects constant heat at fixed global grid cells.
package sources

import (
	"fmt"

	"github.com/vk/heatgrid/internal/decomp"
	"github.com/vk/heatgrid/internal/grid"
)

// Point is a cell in global grid coordinates.
type Point struct {
	X int
	Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Defaults returns the three standard sources of an n×n grid.
func Defaults(n int) []Point {
	return []Point{
		{X: n / 2, Y: n / 2},
		{X: n / 3, Y: n / 3},
		{X: n * 4 / 5, Y: n * 8 / 9},
	}
}

// Injector holds the sources that fall inside one worker's block, already
// translated to ghost-padded local indices.
type Injector struct {
	local  []Point
	energy float64
}

// NewInjector keeps the points owned by block. Points outside the global grid
// simply match no block.
func NewInjector(points []Point, block decomp.Block, energy float64) *Injector {
	inj := &Injector{energy: energy}
	for _, p := range points {
		if !block.Contains(p.X, p.Y) {
			continue
		}
		x, y := block.ToLocal(p.X, p.Y)
		inj.local = append(inj.local, Point{X: x, Y: y})
	}
	return inj
}

// Apply overwrites every local source cell of buf with the energy constant.
// Applying twice has the same effect as applying once.
func (i *Injector) Apply(buf *grid.Buffer) {
	for _, p := range i.local {
		buf.Set(p.X, p.Y, i.energy)
	}
}

// Local returns the owned sources in local coordinates.
func (i *Injector) Local() []Point {
	return append([]Point(nil), i.local...)
}
