package mesh

import (
	"errors"
	"fmt"

	"github.com/vk/heatgrid/internal/topologystore"
)

// NoNeighbor is the rank reported for a direction that leaves a non-periodic
// mesh. Communication addressed to it completes immediately without data.
const NoNeighbor = -1

// ErrShapeMismatch is returned when px*py does not equal the worker count.
var ErrShapeMismatch = errors.New("px * py must equal the number of workers")

// Coord is a worker's position in the mesh.
type Coord = topologystore.Coord

// Axis selects one of the two mesh dimensions.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Direction names one of the four halo sides of a block.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// Directions lists all four directions in exchange order.
var Directions = [4]Direction{North, South, East, West}

// Opposite returns the direction facing d.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	default:
		return East
	}
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Shape is the mesh size along each axis.
type Shape struct {
	PX int
	PY int
}

// Size returns the number of workers the shape holds.
func (s Shape) Size() int {
	return s.PX * s.PY
}

// Periodicity marks which axes wrap around.
type Periodicity struct {
	X bool
	Y bool
}

// On reports whether the given axis wraps.
func (p Periodicity) On(axis Axis) bool {
	if axis == AxisX {
		return p.X
	}
	return p.Y
}

// Neighbors holds one rank per Direction, or NoNeighbor.
type Neighbors [4]int

// Mesh is one worker's immutable view of the process mesh.
type Mesh struct {
	Shape     Shape
	Periodic  Periodicity
	Rank      int
	Coord     Coord
	Neighbors Neighbors
}

// Has reports whether the worker has a neighbor in direction d.
func (m Mesh) Has(d Direction) bool {
	return m.Neighbors[d] != NoNeighbor
}

// Size returns the total worker count of the mesh.
func (m Mesh) Size() int {
	return m.Shape.Size()
}
