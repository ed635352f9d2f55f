// Package netsession runs the single worker of this process as one rank of
// a group connected over the websocket transport.
package netsession

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/vk/heatgrid/internal/ctxlog"
	"github.com/vk/heatgrid/internal/session"
	"github.com/vk/heatgrid/internal/transport/wsnet"
	"github.com/vk/heatgrid/internal/worker"
)

// Factory implements session.Factory for one rank of a multi-process run.
type Factory struct {
	Rank  int
	Peers []string
	// Listener optionally replaces listening on Peers[Rank].
	Listener    net.Listener
	DialTimeout time.Duration
}

// NewSession validates the job, starts the mesh endpoint and prepares the
// local worker. Job.Workers must equal the number of peers.
func (f *Factory) NewSession(ctx context.Context, job *session.Job) (session.Session, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("netsession.Factory.NewSession called", "rank", f.Rank, "peers", len(f.Peers))

	if len(f.Peers) == 0 {
		return nil, errors.New("no peers configured")
	}
	topo, err := job.Validate(ctx)
	if err != nil {
		return nil, err
	}

	node, err := wsnet.Listen(ctx, wsnet.Config{
		Rank:        f.Rank,
		Peers:       f.Peers,
		Listener:    f.Listener,
		DialTimeout: f.DialTimeout,
	})
	if err != nil {
		return nil, err
	}

	w, err := worker.New(ctx, node, topo, job.Params, worker.Options{Sink: job.Sink, Store: job.Store})
	if err != nil {
		_ = node.Close()
		return nil, err
	}
	return &Session{node: node, worker: w}, nil
}

// Session implements session.Session for one networked rank.
type Session struct {
	node   *wsnet.Node
	worker *worker.Worker
}

// Run iterates this rank to completion.
func (s *Session) Run(ctx context.Context) (*session.Report, error) {
	start := time.Now()
	res, err := s.worker.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("worker %d: %w", s.node.Rank(), err)
	}
	return &session.Report{
		Results: []*worker.Result{res},
		Total:   res.Total,
		Elapsed: time.Since(start),
	}, nil
}

// Close shuts the mesh endpoint down.
func (s *Session) Close(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("netsession.Session.Close called")
	return s.node.Close()
}
