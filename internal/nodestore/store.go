// Package nodestore defines the interface for storing and retrieving the
// mutable run state of workers: their status, how far they have iterated,
// the heat they last reported, and why they failed.
//
// It is kept apart from topologystore, which holds the immutable placement
// of ranks in the mesh. Workers write here continuously while the health
// server reads, so implementations must be safe for concurrent use.
//
// Workers follow this lifecycle:
//
//	Pending → Running → Completed OR Failed
package nodestore

import (
	"context"
	"fmt"
)

// Status is a worker's lifecycle state.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Progress is the latest iteration a worker finished and the local heat it
// computed there.
type Progress struct {
	Iteration int
	Heat      float64
}

// Store tracks the run state of every worker of a session.
type Store interface {
	// SetStatus records a lifecycle transition of rank.
	SetStatus(ctx context.Context, rank int, status Status) error
	// GetStatus returns StatusPending for ranks that never reported.
	GetStatus(ctx context.Context, rank int) (Status, error)

	// SetProgress records the last completed iteration of rank.
	SetProgress(ctx context.Context, rank int, p Progress) error
	// GetProgress reports false when rank has not completed an iteration.
	GetProgress(ctx context.Context, rank int) (Progress, bool, error)

	// SetError records why rank failed.
	SetError(ctx context.Context, rank int, workerErr error) error
	// GetError returns nil when rank has not failed.
	GetError(ctx context.Context, rank int) (error, error)

	// Ranks lists every rank with any recorded state, ascending.
	Ranks(ctx context.Context) ([]int, error)
}
