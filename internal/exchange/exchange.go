// Package exchange runs the per-iteration halo exchange of one worker.
package exchange

import (
	"context"
	"fmt"

	"github.com/vk/heatgrid/internal/grid"
	"github.com/vk/heatgrid/internal/halo"
	"github.com/vk/heatgrid/internal/mesh"
	"github.com/vk/heatgrid/internal/transport"
)

// TagBase is the first halo message tag. A message travelling in direction d
// carries TagBase+d.
const TagBase = 9

// Tag returns the tag of a halo message travelling in direction d.
func Tag(d mesh.Direction) int {
	return TagBase + int(d)
}

// Exchanger moves boundary lines between a worker and its four neighbors.
type Exchanger struct {
	t    transport.Transport
	mesh mesh.Mesh
	set  *halo.Set
	reqs []transport.Request
}

// New returns an exchanger for the worker described by m.
func New(t transport.Transport, m mesh.Mesh, set *halo.Set) *Exchanger {
	return &Exchanger{t: t, mesh: m, set: set, reqs: make([]transport.Request, 0, 8)}
}

// Exchange packs the boundary of buf, posts all four receives, then all four
// sends, waits for the eight operations and writes the received lines into
// the ghost border of buf.
//
// The receive for side d expects the tag of a message travelling toward d's
// opposite, so a neighbor that is both east and west of this worker still
// fills each ghost column from the right boundary.
func (e *Exchanger) Exchange(ctx context.Context, buf *grid.Buffer) error {
	e.set.Pack(buf)

	e.reqs = e.reqs[:0]
	for _, d := range mesh.Directions {
		e.reqs = append(e.reqs, e.t.Irecv(ctx, e.set.Recv[d], e.mesh.Neighbors[d], Tag(d.Opposite())))
	}
	for _, d := range mesh.Directions {
		e.reqs = append(e.reqs, e.t.Isend(ctx, e.set.Send[d], e.mesh.Neighbors[d], Tag(d)))
	}

	if err := transport.WaitAll(ctx, e.reqs...); err != nil {
		return fmt.Errorf("halo exchange on rank %d failed: %w", e.mesh.Rank, err)
	}

	e.set.Unpack(buf, e.mesh.Neighbors)
	return nil
}
