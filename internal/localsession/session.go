// Package localsession provides a concrete implementation of the
// session.Session and session.Factory interfaces that runs every worker of
// the mesh as a goroutine of this process.
package localsession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/heatgrid/internal/ctxlog"
	"github.com/vk/heatgrid/internal/inmemorystore"
	"github.com/vk/heatgrid/internal/session"
	"github.com/vk/heatgrid/internal/transport/local"
	"github.com/vk/heatgrid/internal/worker"
	"golang.org/x/sync/errgroup"
)

// Factory implements session.Factory for local runs.
type Factory struct{}

// NewSession validates the job and creates one worker per rank over a shared
// in-process hub.
func (f *Factory) NewSession(ctx context.Context, job *session.Job) (session.Session, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("localsession.Factory.NewSession called", "workers", job.Workers)

	topo, err := job.Validate(ctx)
	if err != nil {
		return nil, err
	}
	if job.Store == nil {
		job.Store = inmemorystore.New()
	}

	hub := local.NewHub(job.Workers)
	workers := make([]*worker.Worker, job.Workers)
	for rank := range workers {
		ep, err := hub.Endpoint(rank)
		if err != nil {
			return nil, err
		}
		workers[rank], err = worker.New(ctx, ep, topo, job.Params, worker.Options{
			Sink:  job.Sink,
			Store: job.Store,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Session{hub: hub, workers: workers}, nil
}

// Session implements session.Session for local runs.
type Session struct {
	hub     *local.Hub
	workers []*worker.Worker
}

// Run starts every worker and waits for all of them. The first failure
// cancels the others.
func (s *Session) Run(ctx context.Context) (*session.Report, error) {
	start := time.Now()
	results := make([]*worker.Result, len(s.workers))

	g, gctx := errgroup.WithContext(ctx)
	for rank, w := range s.workers {
		g.Go(func() error {
			res, err := w.Run(gctx)
			if err != nil {
				return fmt.Errorf("worker %d: %w", rank, err)
			}
			results[rank] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &session.Report{
		Results: results,
		Total:   results[0].Total,
		Elapsed: time.Since(start),
	}, nil
}

// Close aborts the hub so no goroutine stays parked on a receive.
func (s *Session) Close(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("localsession.Session.Close called")
	s.hub.Abort(errors.New("session closed"))
	return nil
}
