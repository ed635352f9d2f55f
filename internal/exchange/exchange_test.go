package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/heatgrid/internal/grid"
	"github.com/vk/heatgrid/internal/halo"
	"github.com/vk/heatgrid/internal/mesh"
	"github.com/vk/heatgrid/internal/transport"
	"github.com/vk/heatgrid/internal/transport/local"
	"golang.org/x/sync/errgroup"
)

type worker struct {
	mesh mesh.Mesh
	buf  *grid.Buffer
	ex   *Exchanger
}

// setup builds one exchanger per rank over a local hub. Every interior cell
// holds 100*rank + 10*y + x so that received values reveal their origin.
func setup(t *testing.T, shape mesh.Shape, periodic mesh.Periodicity, bx, by int) []*worker {
	t.Helper()
	ctx := context.Background()
	topo, err := mesh.Build(ctx, shape.Size(), shape, periodic)
	require.NoError(t, err)
	hub := local.NewHub(shape.Size())

	workers := make([]*worker, shape.Size())
	for r := range workers {
		m, err := mesh.For(ctx, topo, r)
		require.NoError(t, err)
		ep, err := hub.Endpoint(r)
		require.NoError(t, err)
		buf, err := grid.New(bx, by)
		require.NoError(t, err)
		for y := 1; y <= by; y++ {
			for x := 1; x <= bx; x++ {
				buf.Set(x, y, float64(100*r+10*y+x))
			}
		}
		workers[r] = &worker{mesh: m, buf: buf, ex: New(ep, m, halo.New(bx, by))}
	}
	return workers
}

func exchangeAll(t *testing.T, workers []*worker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error { return w.ex.Exchange(gctx, w.buf) })
	}
	require.NoError(t, g.Wait())
}

func TestExchange_GhostsMirrorNeighbors(t *testing.T) {
	const bx, by = 3, 2
	workers := setup(t, mesh.Shape{PX: 2, PY: 2}, mesh.Periodicity{}, bx, by)
	exchangeAll(t, workers)

	for _, w := range workers {
		for _, d := range mesh.Directions {
			n := w.mesh.Neighbors[d]
			for i := 1; i <= halo.Len(d, bx, by); i++ {
				var ghost, want float64
				switch d {
				case mesh.North:
					ghost = w.buf.At(i, 0)
					if n != mesh.NoNeighbor {
						want = workers[n].buf.At(i, by)
					}
				case mesh.South:
					ghost = w.buf.At(i, by+1)
					if n != mesh.NoNeighbor {
						want = workers[n].buf.At(i, 1)
					}
				case mesh.East:
					ghost = w.buf.At(bx+1, i)
					if n != mesh.NoNeighbor {
						want = workers[n].buf.At(1, i)
					}
				case mesh.West:
					ghost = w.buf.At(0, i)
					if n != mesh.NoNeighbor {
						want = workers[n].buf.At(bx, i)
					}
				}
				assert.Equal(t, want, ghost, "rank %d %s ghost %d", w.mesh.Rank, d, i)
			}
		}
	}
}

// With two periodic columns the east and west neighbor are the same rank.
// Each ghost column must still come from the matching boundary column.
func TestExchange_SameRankBothSides(t *testing.T) {
	const bx, by = 3, 1
	workers := setup(t, mesh.Shape{PX: 2, PY: 1}, mesh.Periodicity{X: true}, bx, by)
	require.Equal(t, 1, workers[0].mesh.Neighbors[mesh.East])
	require.Equal(t, 1, workers[0].mesh.Neighbors[mesh.West])

	exchangeAll(t, workers)

	// rank 1 row is 111 112 113
	assert.Equal(t, 111.0, workers[0].buf.At(bx+1, 1), "east ghost is rank 1's west column")
	assert.Equal(t, 113.0, workers[0].buf.At(0, 1), "west ghost is rank 1's east column")
}

func TestExchange_PeriodicSelf(t *testing.T) {
	const bx, by = 2, 2
	workers := setup(t, mesh.Shape{PX: 1, PY: 1}, mesh.Periodicity{X: true, Y: true}, bx, by)
	exchangeAll(t, workers)

	b := workers[0].buf
	assert.Equal(t, b.At(1, by), b.At(1, 0))
	assert.Equal(t, b.At(2, 1), b.At(2, by+1))
	assert.Equal(t, b.At(1, 1), b.At(bx+1, 1))
	assert.Equal(t, b.At(bx, 2), b.At(0, 2))
}

func TestExchange_RepeatedIterations(t *testing.T) {
	workers := setup(t, mesh.Shape{PX: 4, PY: 1}, mesh.Periodicity{}, 1, 4)
	for i := 0; i < 3; i++ {
		for _, w := range workers {
			w.buf.Set(1, 1, float64(i*10+w.mesh.Rank))
		}
		exchangeAll(t, workers)
		assert.Equal(t, float64(i*10+2), workers[1].buf.At(2, 1), "iteration %d", i)
		assert.Equal(t, float64(i*10+0), workers[1].buf.At(0, 1), "iteration %d", i)
	}
}

func TestExchange_AbortFails(t *testing.T) {
	ctx := context.Background()
	topo, err := mesh.Build(ctx, 2, mesh.Shape{PX: 2, PY: 1}, mesh.Periodicity{})
	require.NoError(t, err)
	m, err := mesh.For(ctx, topo, 0)
	require.NoError(t, err)

	hub := local.NewHub(2)
	ep, err := hub.Endpoint(0)
	require.NoError(t, err)
	buf, err := grid.New(2, 2)
	require.NoError(t, err)

	hub.Abort(errors.New("peer died"))
	err = New(ep, m, halo.New(2, 2)).Exchange(ctx, buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, transport.ErrAborted))
}

func TestTag(t *testing.T) {
	assert.Equal(t, TagBase, Tag(mesh.North))
	assert.Equal(t, TagBase+3, Tag(mesh.West))
}
