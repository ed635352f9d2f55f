// Package mesh builds the 2D process mesh that the workers of a run are
// arranged in, and answers the two questions every worker asks of it: where
// am I, and who are my four neighbors.
//
// Ranks are placed row-major: rank = ry*px + rx. Moving along AxisX with a
// positive displacement goes east, along AxisY with a positive displacement
// goes south. On a non-periodic axis, a step past the mesh edge yields
// NoNeighbor; on a periodic axis it wraps.
package mesh
