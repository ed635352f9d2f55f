// Package inmemorytopology provides a simple, thread-safe, in-memory
// implementation of the topologystore.Store interface.
package inmemorytopology

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/heatgrid/internal/topologystore"
)

// Store implements the topologystore.Store interface using two maps and a
// mutex for thread-safe concurrent access.
type Store struct {
	mu     sync.RWMutex
	coords map[int]topologystore.Coord
	ranks  map[topologystore.Coord]int
}

// New creates a new, empty in-memory topology store.
func New() topologystore.Store {
	return &Store{
		coords: make(map[int]topologystore.Coord),
		ranks:  make(map[topologystore.Coord]int),
	}
}

// Place records the rank at the given coordinate.
func (s *Store) Place(ctx context.Context, rank int, c topologystore.Coord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.coords[rank]; ok {
		if existing == c {
			return nil
		}
		return fmt.Errorf("rank %d already placed at %s, cannot move it to %s", rank, existing, c)
	}
	if occupant, ok := s.ranks[c]; ok {
		return fmt.Errorf("coordinate %s already holds rank %d, cannot place rank %d", c, occupant, rank)
	}

	s.coords[rank] = c
	s.ranks[c] = rank
	return nil
}

// CoordOf returns the coordinate of a rank.
func (s *Store) CoordOf(ctx context.Context, rank int) (topologystore.Coord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.coords[rank]
	return c, ok
}

// RankAt returns the rank placed at a coordinate.
func (s *Store) RankAt(ctx context.Context, c topologystore.Coord) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.ranks[c]
	return r, ok
}

// Len returns the number of placed ranks.
func (s *Store) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.coords)
}
