// Package print provides the console sink, which renders each frame as a
// colored heat map.
package print

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"
	"github.com/vk/heatgrid/internal/config"
	"github.com/vk/heatgrid/internal/ctxlog"
	"github.com/vk/heatgrid/internal/registry"
	"github.com/vk/heatgrid/internal/snapshot"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// maxCells bounds the side of a rendered block; larger blocks are sampled.
const maxCells = 32

// Sink writes frames to an io.Writer.
type Sink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewSink is the factory registered for the "console" sink.
func NewSink(ctx context.Context, _ config.Output, out io.Writer) (snapshot.Sink, error) {
	ctxlog.FromContext(ctx).Debug("Console sink created.")
	return &Sink{out: out}, nil
}

// Publish renders one frame. Frames from different workers never interleave.
func (s *Sink) Publish(ctx context.Context, f snapshot.Frame) error {
	cells := f.Cells()
	var b strings.Builder

	fmt.Fprintf(&b, "iteration=%d rank=%d coord=%s block=%dx%d+%d+%d heat=%g\n",
		f.Iteration, f.Rank, f.Coord, f.Block.BX, f.Block.BY, f.Block.OffX, f.Block.OffY, f.Heat())
	render(&b, cells)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.out, b.String())
	return err
}

// Close is a no-op.
func (s *Sink) Close(context.Context) error {
	return nil
}

// render draws one two-character swatch per cell, scaled against the hottest
// cell of the block.
func render(b *strings.Builder, cells [][]float64) {
	var hottest float64
	for _, row := range cells {
		for _, v := range row {
			hottest = max(hottest, v)
		}
	}

	for _, y := range sample(len(cells)) {
		row := cells[y]
		for _, x := range sample(len(row)) {
			b.WriteString(swatch(row[x], hottest))
		}
		b.WriteByte('\n')
	}
}

// sample picks at most maxCells evenly spread indexes out of n.
func sample(n int) []int {
	count := min(n, maxCells)
	idx := make([]int, count)
	for i := range idx {
		idx[i] = i * n / count
	}
	return idx
}

func swatch(v, hottest float64) string {
	if hottest <= 0 || v <= 0 {
		return color.RGB(0, 0, 64, true).Sprint("  ")
	}
	level := uint8(min(v/hottest, 1) * 255)
	return color.RGB(level, 0, 255-level, true).Sprint("  ")
}

// Register registers the sink with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterSink(config.SinkConsole, NewSink)
}
