// Package stencil applies the five-point heat diffusion update.
package stencil

import (
	"fmt"

	"github.com/vk/heatgrid/internal/grid"
)

// Update writes the next state of every interior cell into next:
//
//	next[x,y] = next[x,y]/2 + (old[x-1,y] + old[x+1,y] + old[x,y-1] + old[x,y+1]) / 4 / 2
//
// It reads old including its ghost border and never writes it. The return
// value is the sum of all updated interior cells.
func Update(old, next *grid.Buffer) float64 {
	if old.BX() != next.BX() || old.BY() != next.BY() {
		panic(fmt.Sprintf("stencil: buffers differ in size (%dx%d vs %dx%d)", old.BX(), old.BY(), next.BX(), next.BY()))
	}
	bx, by := old.BX(), old.BY()
	src, dst := old.Cells(), next.Cells()
	stride := bx + 2

	var heat float64
	for y := 1; y <= by; y++ {
		row := y * stride
		for x := 1; x <= bx; x++ {
			i := row + x
			v := dst[i]/2 + (src[i-1]+src[i+1]+src[i-stride]+src[i+stride])/4/2
			dst[i] = v
			heat += v
		}
	}
	return heat
}
