// Package snapshot defines the periodic state output of a run and the sinks
// that receive it.
package snapshot

import (
	"context"

	"github.com/vk/heatgrid/internal/decomp"
	"github.com/vk/heatgrid/internal/grid"
	"github.com/vk/heatgrid/internal/mesh"
)

// DefaultEvery is the output interval used when none is configured.
const DefaultEvery = 1000

// Frame is one worker's state at an output iteration.
type Frame struct {
	Iteration int
	Final     bool
	N         int
	Shape     mesh.Shape
	Rank      int
	Size      int
	Coord     mesh.Coord
	Block     decomp.Block
	// Buffer is the state computed by step Iteration, read after the buffers
	// were swapped. It is not the source-injected field that step read from.
	// It is only valid for the duration of Publish; sinks that keep data must
	// copy it.
	Buffer *grid.Buffer
}

// Cells returns a copy of the block's interior, indexed [y][x] from zero.
func (f Frame) Cells() [][]float64 {
	return f.Buffer.Interior()
}

// Heat returns the sum of the interior cells.
func (f Frame) Heat() float64 {
	var sum float64
	for _, row := range f.Cells() {
		for _, v := range row {
			sum += v
		}
	}
	return sum
}

// Sink receives frames. Publish is called from the worker goroutine and
// blocks the iteration loop, so sinks must be safe for concurrent use when
// several workers share one.
type Sink interface {
	Publish(ctx context.Context, f Frame) error
	Close(ctx context.Context) error
}

// Discard drops every frame.
type Discard struct{}

func (Discard) Publish(context.Context, Frame) error { return nil }
func (Discard) Close(context.Context) error          { return nil }

// Cadence decides which iterations produce output.
type Cadence struct {
	Every int // zero disables periodic output, the last iteration still fires
	Last  int // index of the final iteration
}

// Due reports whether iteration iter (counted from zero) is an output
// iteration.
func (c Cadence) Due(iter int) bool {
	if iter == c.Last {
		return true
	}
	return c.Every > 0 && iter%c.Every == 0
}

// Payload is the JSON form of a Frame sent by remote sinks.
type Payload struct {
	Iteration int         `json:"iteration"`
	Final     bool        `json:"final"`
	N         int         `json:"n"`
	Mesh      [2]int      `json:"mesh"`
	Rank      int         `json:"rank"`
	Size      int         `json:"size"`
	Coord     [2]int      `json:"coord"`
	Offset    [2]int      `json:"offset"`
	Heat      float64     `json:"heat"`
	Cells     [][]float64 `json:"cells"`
}

// Payload copies the frame into its wire form.
func (f Frame) Payload() Payload {
	cells := f.Cells()
	var heat float64
	for _, row := range cells {
		for _, v := range row {
			heat += v
		}
	}
	return Payload{
		Iteration: f.Iteration,
		Final:     f.Final,
		N:         f.N,
		Mesh:      [2]int{f.Shape.PX, f.Shape.PY},
		Rank:      f.Rank,
		Size:      f.Size,
		Coord:     [2]int{f.Coord.X, f.Coord.Y},
		Offset:    [2]int{f.Block.OffX, f.Block.OffY},
		Heat:      heat,
		Cells:     cells,
	}
}
