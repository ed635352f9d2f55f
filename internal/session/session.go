// Package session defines the core interfaces for creating and managing a
// simulation run. It abstracts away whether the workers of a run live in
// this process or are spread over several.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/vk/heatgrid/internal/decomp"
	"github.com/vk/heatgrid/internal/mesh"
	"github.com/vk/heatgrid/internal/nodestore"
	"github.com/vk/heatgrid/internal/snapshot"
	"github.com/vk/heatgrid/internal/worker"
)

// Job is everything a session needs to set up its workers.
type Job struct {
	Params   worker.Params
	Shape    mesh.Shape
	Periodic mesh.Periodicity
	// Workers is the size of the whole group, not just the local part.
	Workers int
	Sink    snapshot.Sink
	Store   nodestore.Store
}

// Validate runs the startup checks every worker performs before any
// communication, in the order they are reported.
func (j *Job) Validate(ctx context.Context) (mesh.Topology, error) {
	if j.Params.Iterations < 0 {
		return nil, errors.New("iterations must not be negative")
	}
	topo, err := mesh.NewWorld(j.Workers).BuildMesh(ctx, j.Shape, j.Periodic)
	if err != nil {
		return nil, err
	}
	if err := decomp.Validate(j.Params.N, j.Shape); err != nil {
		return nil, err
	}
	return topo, nil
}

// Report summarises a finished run.
type Report struct {
	// Results holds one entry per worker run by this session, by rank.
	Results []*worker.Result
	// Total is the group-wide heat after the last iteration.
	Total   float64
	Elapsed time.Duration
}

// Factory creates a Session. Different implementations place workers
// in-process or across processes.
type Factory interface {
	NewSession(ctx context.Context, job *Job) (Session, error)
}

// Session represents a single run and manages its lifecycle.
type Session interface {
	Run(ctx context.Context) (*Report, error)
	// Close releases any resources held by the session. It accepts a context
	// to allow for graceful cleanup operations.
	Close(ctx context.Context) error
}
