// Package topologystore defines the interface for storing and retrieving the
// static structure of a process mesh: which rank sits at which mesh
// coordinate.
//
// # Why Topology Store Exists
//
// The store isolates the **immutable rank-to-coordinate registry** from the
// code that derives neighbors and block geometry from it. Decomposition and
// neighbor lookup must agree on one identity space, so both read the same
// store instead of recomputing the mapping independently.
//
// # Lifecycle and Usage
//
// The topology store is:
//  1. **Created** once per run, when the mesh is built
//  2. **Populated** with one entry per rank during mesh construction
//  3. **Read-only** while workers iterate
//  4. **Discarded** when the run ends
package topologystore

import (
	"context"
	"fmt"
)

// Coord is a position in the 2D process mesh. X grows eastward and Y grows
// southward.
type Coord struct {
	X int
	Y int
}

// String implements fmt.Stringer.
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Store is the interface for managing the rank/coordinate bijection of a
// process mesh.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent reads, since every worker
// goroutine queries the store while it sets up.
//
// # Typical Implementation
//
// See internal/inmemorytopology for the reference in-memory implementation
// using maps and sync.RWMutex.
type Store interface {
	// Place records that rank sits at coordinate c.
	//
	// Placing the same (rank, c) pair twice is idempotent. Placing a rank at a
	// second coordinate, or a second rank at an occupied coordinate, is an
	// error because it would break the bijection.
	Place(ctx context.Context, rank int, c Coord) error

	// CoordOf returns the coordinate of rank, and false if the rank is unknown.
	CoordOf(ctx context.Context, rank int) (Coord, bool)

	// RankAt returns the rank placed at c, and false if c is empty.
	RankAt(ctx context.Context, c Coord) (int, bool)

	// Len returns the number of placed ranks.
	Len(ctx context.Context) int
}
