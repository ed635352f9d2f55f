// Package worker runs the iteration loop of one mesh cell: inject sources,
// exchange halos, apply the stencil, swap buffers and publish snapshots.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/heatgrid/internal/ctxlog"
	"github.com/vk/heatgrid/internal/decomp"
	"github.com/vk/heatgrid/internal/exchange"
	"github.com/vk/heatgrid/internal/grid"
	"github.com/vk/heatgrid/internal/halo"
	"github.com/vk/heatgrid/internal/inmemorystore"
	"github.com/vk/heatgrid/internal/mesh"
	"github.com/vk/heatgrid/internal/nodestore"
	"github.com/vk/heatgrid/internal/reduce"
	"github.com/vk/heatgrid/internal/snapshot"
	"github.com/vk/heatgrid/internal/sources"
	"github.com/vk/heatgrid/internal/stencil"
	"github.com/vk/heatgrid/internal/transport"
)

// Params are the run parameters shared by every worker.
type Params struct {
	N          int
	Energy     float64
	Iterations int
	Sources    []sources.Point
	// Initial, when set, gives the starting temperature of global cell
	// (gx, gy). Both buffers start from it.
	Initial func(gx, gy int) float64
	// OutputEvery is the snapshot interval; the last iteration always
	// publishes.
	OutputEvery int
}

// Options carries the collaborators of a worker. Zero values are replaced
// with a discarding sink and a private status store.
type Options struct {
	Sink  snapshot.Sink
	Store nodestore.Store
}

// Setup is everything a worker derives before iterating.
type Setup struct {
	Mesh    mesh.Mesh
	Block   decomp.Block
	Grid    *grid.Pair
	Halo    *halo.Set
	Sources *sources.Injector
}

// Result is what a worker reports after its last iteration.
type Result struct {
	Rank       int
	Iterations int
	// Heat is the sum of this worker's block after the last iteration.
	Heat float64
	// Total is Heat summed over every worker.
	Total   float64
	Elapsed time.Duration
}

// Worker is one participant of a run.
type Worker struct {
	t      transport.Transport
	params Params
	setup  *Setup
	ex     *exchange.Exchanger
	sink   snapshot.Sink
	store  nodestore.Store
}

// Prepare derives the worker's mesh view, block geometry, buffers and local
// sources. It performs no communication.
func Prepare(ctx context.Context, topo mesh.Topology, rank int, p Params) (*Setup, error) {
	m, err := mesh.For(ctx, topo, rank)
	if err != nil {
		return nil, err
	}
	block, err := decomp.Decompose(p.N, m.Shape, m.Coord)
	if err != nil {
		return nil, err
	}
	pair, err := grid.NewPair(block.BX, block.BY)
	if err != nil {
		return nil, err
	}
	if p.Initial != nil {
		for _, r := range []grid.Role{grid.Active, grid.Next} {
			fill(pair.Get(r), block, p.Initial)
		}
	}

	return &Setup{
		Mesh:    m,
		Block:   block,
		Grid:    pair,
		Halo:    halo.New(block.BX, block.BY),
		Sources: sources.NewInjector(p.Sources, block, p.Energy),
	}, nil
}

func fill(buf *grid.Buffer, block decomp.Block, f func(gx, gy int) float64) {
	for y := 1; y <= block.BY; y++ {
		for x := 1; x <= block.BX; x++ {
			buf.Set(x, y, f(block.ToGlobal(x, y)))
		}
	}
}

// New prepares the worker of t's rank.
func New(ctx context.Context, t transport.Transport, topo mesh.Topology, p Params, opts Options) (*Worker, error) {
	setup, err := Prepare(ctx, topo, t.Rank(), p)
	if err != nil {
		return nil, fmt.Errorf("failed to set up rank %d: %w", t.Rank(), err)
	}
	if opts.Sink == nil {
		opts.Sink = snapshot.Discard{}
	}
	if opts.Store == nil {
		opts.Store = inmemorystore.New()
	}
	return &Worker{
		t:      t,
		params: p,
		setup:  setup,
		ex:     exchange.New(t, setup.Mesh, setup.Halo),
		sink:   opts.Sink,
		store:  opts.Store,
	}, nil
}

// Setup returns the worker's derived geometry.
func (w *Worker) Setup() *Setup {
	return w.setup
}

// Run iterates, then all-reduces the final heat. Any failure aborts the
// whole group through the transport.
func (w *Worker) Run(ctx context.Context) (*Result, error) {
	rank := w.t.Rank()
	ctx = ctxlog.WithWorker(ctx, rank)
	logger := ctxlog.FromContext(ctx)

	res, err := w.run(ctx)
	if err != nil {
		logger.Error("Worker failed.", "error", err)
		w.t.Abort(err)
		_ = w.store.SetError(ctx, rank, err)
		_ = w.store.SetStatus(ctx, rank, nodestore.StatusFailed)
		return nil, err
	}

	_ = w.store.SetStatus(ctx, rank, nodestore.StatusCompleted)
	if rank == reduce.Root {
		logger.Info("Run finished.", "last_heat", res.Total, "time", res.Elapsed)
	}
	return res, nil
}

func (w *Worker) run(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	m := w.setup.Mesh
	pair := w.setup.Grid

	_ = w.store.SetStatus(ctx, m.Rank, nodestore.StatusRunning)
	logger.Info("Worker topology.",
		"coord", m.Coord.String(),
		"west", m.Neighbors[mesh.West],
		"east", m.Neighbors[mesh.East],
		"north", m.Neighbors[mesh.North],
		"south", m.Neighbors[mesh.South],
		"sources", w.setup.Sources.Local(),
	)

	cadence := snapshot.Cadence{Every: w.params.OutputEvery, Last: w.params.Iterations - 1}
	var heat float64

	start := time.Now()
	for iter := 0; iter < w.params.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		w.setup.Sources.Apply(pair.Active())
		if err := w.ex.Exchange(ctx, pair.Active()); err != nil {
			return nil, err
		}
		heat = stencil.Update(pair.Active(), pair.Next())
		pair.Swap()

		_ = w.store.SetProgress(ctx, m.Rank, nodestore.Progress{Iteration: iter, Heat: heat})

		if cadence.Due(iter) {
			if m.Rank == reduce.Root {
				logger.Info("Outputting state.", "iteration", iter)
			}
			if err := w.sink.Publish(ctx, w.frame(iter)); err != nil {
				return nil, fmt.Errorf("failed to publish iteration %d: %w", iter, err)
			}
		}
	}
	elapsed := time.Since(start)

	total, err := reduce.AllSum(ctx, w.t, heat)
	if err != nil {
		return nil, err
	}

	return &Result{
		Rank:       m.Rank,
		Iterations: w.params.Iterations,
		Heat:       heat,
		Total:      total,
		Elapsed:    elapsed,
	}, nil
}

func (w *Worker) frame(iter int) snapshot.Frame {
	m := w.setup.Mesh
	return snapshot.Frame{
		Iteration: iter,
		Final:     iter == w.params.Iterations-1,
		N:         w.params.N,
		Shape:     m.Shape,
		Rank:      m.Rank,
		Size:      m.Size(),
		Coord:     m.Coord,
		Block:     w.setup.Block,
		Buffer:    w.setup.Grid.Active(),
	}
}
