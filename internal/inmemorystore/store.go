package inmemorystore

import (
	"context"
	"slices"
	"sync"

	"github.com/vk/heatgrid/internal/nodestore"
)

// Store is an in-memory implementation of nodestore.Store using sync.Map
// for fine-grained concurrent access without global lock contention.
//
// The store maintains three independent sync.Maps keyed by rank:
//   - states: nodestore.Status
//   - progress: nodestore.Progress
//   - errors: error
type Store struct {
	states   sync.Map
	progress sync.Map
	errors   sync.Map
}

// New creates a new, empty in-memory worker state store.
func New() nodestore.Store {
	return &Store{}
}

// SetStatus updates the status of a worker.
func (s *Store) SetStatus(ctx context.Context, rank int, status nodestore.Status) error {
	s.states.Store(rank, status)
	return nil
}

// GetStatus retrieves the status of a worker.
// If a status has not been set, it returns StatusPending.
func (s *Store) GetStatus(ctx context.Context, rank int) (nodestore.Status, error) {
	status, ok := s.states.Load(rank)
	if !ok {
		return nodestore.StatusPending, nil
	}
	return status.(nodestore.Status), nil
}

// SetProgress records the last completed iteration of a worker.
func (s *Store) SetProgress(ctx context.Context, rank int, p nodestore.Progress) error {
	s.progress.Store(rank, p)
	return nil
}

// GetProgress retrieves the last completed iteration of a worker.
func (s *Store) GetProgress(ctx context.Context, rank int) (nodestore.Progress, bool, error) {
	p, ok := s.progress.Load(rank)
	if !ok {
		return nodestore.Progress{}, false, nil
	}
	return p.(nodestore.Progress), true, nil
}

// SetError records the failure of a worker.
func (s *Store) SetError(ctx context.Context, rank int, workerErr error) error {
	s.errors.Store(rank, workerErr)
	return nil
}

// GetError retrieves the recorded failure of a worker.
func (s *Store) GetError(ctx context.Context, rank int) (error, error) {
	err, ok := s.errors.Load(rank)
	if !ok {
		return nil, nil // If not found, there is no error.
	}
	return err.(error), nil
}

// Ranks lists every rank with a recorded status, progress or error.
func (s *Store) Ranks(ctx context.Context) ([]int, error) {
	seen := make(map[int]struct{})
	collect := func(k, _ any) bool {
		seen[k.(int)] = struct{}{}
		return true
	}
	s.states.Range(collect)
	s.progress.Range(collect)
	s.errors.Range(collect)

	ranks := make([]int, 0, len(seen))
	for r := range seen {
		ranks = append(ranks, r)
	}
	slices.Sort(ranks)
	return ranks, nil
}
