package mesh

import (
	"context"
	"fmt"

	"github.com/vk/heatgrid/internal/inmemorytopology"
	"github.com/vk/heatgrid/internal/topologystore"
)

// Topology is a built process mesh that can be queried for coordinates and
// neighbors.
type Topology interface {
	Shape() Shape
	Periodicity() Periodicity
	Coordinates(ctx context.Context, rank int) (Coord, error)
	Neighbor(ctx context.Context, rank int, axis Axis, disp int) (int, error)
}

// Group is the process-group capability a mesh is built from.
type Group interface {
	Size() int
	BuildMesh(ctx context.Context, shape Shape, periodic Periodicity) (Topology, error)
}

// World is the group of all workers of a run.
type World struct {
	size int
}

// NewWorld returns a group of size workers.
func NewWorld(size int) *World {
	return &World{size: size}
}

// Size returns the number of workers in the group.
func (w *World) Size() int {
	return w.size
}

// BuildMesh arranges the group into a Cartesian mesh.
func (w *World) BuildMesh(ctx context.Context, shape Shape, periodic Periodicity) (Topology, error) {
	return Build(ctx, w.size, shape, periodic)
}

// Cartesian is a row-major 2D mesh backed by a topology store.
type Cartesian struct {
	shape    Shape
	periodic Periodicity
	store    topologystore.Store
}

// Build validates the shape against the worker count and places every rank.
func Build(ctx context.Context, size int, shape Shape, periodic Periodicity) (*Cartesian, error) {
	if shape.PX <= 0 || shape.PY <= 0 {
		return nil, fmt.Errorf("invalid mesh shape %dx%d: both dimensions must be positive", shape.PX, shape.PY)
	}
	if shape.Size() != size {
		return nil, fmt.Errorf("%w: %d * %d != %d", ErrShapeMismatch, shape.PX, shape.PY, size)
	}

	store := inmemorytopology.New()
	for rank := 0; rank < size; rank++ {
		c := Coord{X: rank % shape.PX, Y: rank / shape.PX}
		if err := store.Place(ctx, rank, c); err != nil {
			return nil, fmt.Errorf("failed to place rank %d: %w", rank, err)
		}
	}

	return &Cartesian{shape: shape, periodic: periodic, store: store}, nil
}

// Shape returns the mesh shape.
func (c *Cartesian) Shape() Shape {
	return c.shape
}

// Periodicity returns the wraparound flags.
func (c *Cartesian) Periodicity() Periodicity {
	return c.periodic
}

// Coordinates returns the mesh position of rank.
func (c *Cartesian) Coordinates(ctx context.Context, rank int) (Coord, error) {
	coord, ok := c.store.CoordOf(ctx, rank)
	if !ok {
		return Coord{}, fmt.Errorf("rank %d is not part of the %dx%d mesh", rank, c.shape.PX, c.shape.PY)
	}
	return coord, nil
}

// Neighbor returns the rank reached from rank by moving disp steps along
// axis, or NoNeighbor when that leaves a non-periodic axis.
func (c *Cartesian) Neighbor(ctx context.Context, rank int, axis Axis, disp int) (int, error) {
	coord, err := c.Coordinates(ctx, rank)
	if err != nil {
		return NoNeighbor, err
	}

	pos, dim := coord.X, c.shape.PX
	if axis == AxisY {
		pos, dim = coord.Y, c.shape.PY
	}

	next := pos + disp
	if next < 0 || next >= dim {
		if !c.periodic.On(axis) {
			return NoNeighbor, nil
		}
		next = ((next % dim) + dim) % dim
	}

	target := coord
	if axis == AxisX {
		target.X = next
	} else {
		target.Y = next
	}

	r, ok := c.store.RankAt(ctx, target)
	if !ok {
		return NoNeighbor, fmt.Errorf("no rank placed at %s", target)
	}
	return r, nil
}

// For assembles the per-worker mesh view of rank from a topology.
func For(ctx context.Context, topo Topology, rank int) (Mesh, error) {
	coord, err := topo.Coordinates(ctx, rank)
	if err != nil {
		return Mesh{}, err
	}

	m := Mesh{
		Shape:    topo.Shape(),
		Periodic: topo.Periodicity(),
		Rank:     rank,
		Coord:    coord,
	}

	steps := [4]struct {
		axis Axis
		disp int
	}{
		North: {AxisY, -1},
		South: {AxisY, 1},
		East:  {AxisX, 1},
		West:  {AxisX, -1},
	}
	for _, d := range Directions {
		n, err := topo.Neighbor(ctx, rank, steps[d].axis, steps[d].disp)
		if err != nil {
			return Mesh{}, fmt.Errorf("failed to resolve %s neighbor of rank %d: %w", d, rank, err)
		}
		m.Neighbors[d] = n
	}
	return m, nil
}
