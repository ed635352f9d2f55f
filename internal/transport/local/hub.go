// Package local is the in-process transport: every worker is a goroutine
// and messages are copied straight into the destination's mailbox.
package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/heatgrid/internal/transport"
)

// Hub owns one mailbox per rank.
type Hub struct {
	boxes []*transport.Mailbox
	once  sync.Once
}

// NewHub returns a hub for size workers.
func NewHub(size int) *Hub {
	boxes := make([]*transport.Mailbox, size)
	for i := range boxes {
		boxes[i] = transport.NewMailbox()
	}
	return &Hub{boxes: boxes}
}

// Size returns the number of ranks served.
func (h *Hub) Size() int {
	return len(h.boxes)
}

// Endpoint returns the transport of rank.
func (h *Hub) Endpoint(rank int) (*Endpoint, error) {
	if rank < 0 || rank >= len(h.boxes) {
		return nil, fmt.Errorf("rank %d outside hub of %d", rank, len(h.boxes))
	}
	return &Endpoint{hub: h, rank: rank}, nil
}

// Abort fails every mailbox of the hub.
func (h *Hub) Abort(err error) {
	h.once.Do(func() {
		for _, b := range h.boxes {
			b.Abort(err)
		}
	})
}

// Endpoint is one rank's view of a Hub.
type Endpoint struct {
	hub  *Hub
	rank int
}

var _ transport.Transport = (*Endpoint)(nil)

func (e *Endpoint) Rank() int { return e.rank }

func (e *Endpoint) Size() int { return e.hub.Size() }

func (e *Endpoint) Irecv(_ context.Context, buf []float64, src, tag int) transport.Request {
	if src == transport.ProcNull {
		return transport.Completed(nil)
	}
	if src < 0 || src >= e.hub.Size() {
		return transport.Completed(fmt.Errorf("receive from unknown rank %d", src))
	}
	return e.hub.boxes[e.rank].Post(buf, src, tag)
}

func (e *Endpoint) Isend(_ context.Context, data []float64, dst, tag int) transport.Request {
	if dst == transport.ProcNull {
		return transport.Completed(nil)
	}
	if dst < 0 || dst >= e.hub.Size() {
		return transport.Completed(fmt.Errorf("send to unknown rank %d", dst))
	}
	msg := append([]float64(nil), data...)
	if err := e.hub.boxes[dst].Deliver(e.rank, tag, msg); err != nil {
		return transport.Completed(fmt.Errorf("send to rank %d: %w", dst, err))
	}
	return transport.Completed(nil)
}

func (e *Endpoint) Abort(err error) {
	e.hub.Abort(fmt.Errorf("rank %d: %w", e.rank, err))
}

// Close is a no-op; the hub is released with its last reference.
func (e *Endpoint) Close() error { return nil }
