// Package transport is the message-passing capability workers exchange
// halos and reductions over. Operations are non-blocking: Irecv and Isend
// return a Request that is completed later and waited on with a context.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/heatgrid/internal/mesh"
)

// ProcNull addresses no worker. Operations on it complete immediately
// without touching data.
const ProcNull = mesh.NoNeighbor

var (
	// ErrAborted is returned by every operation after the group was aborted.
	ErrAborted = errors.New("transport aborted")
	// ErrTruncated is returned when a message does not fit the posted buffer.
	ErrTruncated = errors.New("message length does not match receive buffer")
)

// Transport connects one worker to every other worker of its group.
type Transport interface {
	Rank() int
	Size() int
	// Irecv posts a receive of len(buf) values from src with tag.
	Irecv(ctx context.Context, buf []float64, src, tag int) Request
	// Isend posts a send of data to dst with tag. The caller may reuse data
	// once the request completes.
	Isend(ctx context.Context, data []float64, dst, tag int) Request
	// Abort fails all outstanding and future operations of the whole group.
	Abort(err error)
	Close() error
}

// Request is a pending non-blocking operation.
type Request interface {
	Wait(ctx context.Context) error
}

// Op is a Request completed exactly once by its producer.
type Op struct {
	done chan struct{}
	once sync.Once
	err  error
}

// NewOp returns a pending operation.
func NewOp() *Op {
	return &Op{done: make(chan struct{})}
}

// Completed returns an operation that has already finished with err.
func Completed(err error) *Op {
	op := NewOp()
	op.Complete(err)
	return op
}

// Complete finishes the operation. Later calls are ignored.
func (o *Op) Complete(err error) {
	o.once.Do(func() {
		o.err = err
		close(o.done)
	})
}

// Done is closed when the operation completes.
func (o *Op) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the operation completes or ctx ends.
func (o *Op) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitAll waits for every request. It returns as soon as any request fails,
// without waiting for the others, so a failed send is never hidden behind a
// receive that can no longer complete.
func WaitAll(ctx context.Context, reqs ...Request) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)
	for i, r := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Wait(ctx); err != nil {
				once.Do(func() {
					first = fmt.Errorf("request %d failed: %w", i, err)
					cancel()
				})
			}
		}()
	}
	wg.Wait()
	return first
}

// Aborted wraps cause so that errors.Is(err, ErrAborted) holds.
func Aborted(cause error) error {
	switch {
	case cause == nil:
		return ErrAborted
	case errors.Is(cause, ErrAborted):
		return cause
	}
	return fmt.Errorf("%w: %w", ErrAborted, cause)
}
