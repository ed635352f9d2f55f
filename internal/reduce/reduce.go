// Package reduce combines one scalar per worker into a group-wide total.
package reduce

import (
	"context"
	"fmt"

	"github.com/vk/heatgrid/internal/transport"
)

const (
	// GatherTag carries each worker's contribution to the root.
	GatherTag = 100
	// BroadcastTag carries the total from the root back to every worker.
	BroadcastTag = 101
)

// Root is the rank the reduction is computed on.
const Root = 0

// AllSum returns the sum of value over every worker of t's group. The root
// adds contributions in rank order, so every run over the same inputs
// produces the same floating-point result. Every worker must call it.
func AllSum(ctx context.Context, t transport.Transport, value float64) (float64, error) {
	size := t.Size()
	if size == 1 {
		return value, nil
	}

	if t.Rank() != Root {
		out := []float64{value}
		total := make([]float64, 1)
		recv := t.Irecv(ctx, total, Root, BroadcastTag)
		send := t.Isend(ctx, out, Root, GatherTag)
		if err := transport.WaitAll(ctx, send, recv); err != nil {
			return 0, fmt.Errorf("all-reduce on rank %d failed: %w", t.Rank(), err)
		}
		return total[0], nil
	}

	parts := make([][]float64, size)
	reqs := make([]transport.Request, 0, size-1)
	for r := 1; r < size; r++ {
		parts[r] = make([]float64, 1)
		reqs = append(reqs, t.Irecv(ctx, parts[r], r, GatherTag))
	}
	if err := transport.WaitAll(ctx, reqs...); err != nil {
		return 0, fmt.Errorf("all-reduce gather failed: %w", err)
	}

	total := value
	for r := 1; r < size; r++ {
		total += parts[r][0]
	}

	out := []float64{total}
	reqs = reqs[:0]
	for r := 1; r < size; r++ {
		reqs = append(reqs, t.Isend(ctx, out, r, BroadcastTag))
	}
	if err := transport.WaitAll(ctx, reqs...); err != nil {
		return 0, fmt.Errorf("all-reduce broadcast failed: %w", err)
	}
	return total, nil
}
