package app

import (
	"context"
	"fmt"

	"github.com/vk/heatgrid/internal/ctxlog"
	"github.com/vk/heatgrid/internal/localsession"
	"github.com/vk/heatgrid/internal/mesh"
	"github.com/vk/heatgrid/internal/netsession"
	"github.com/vk/heatgrid/internal/session"
	"github.com/vk/heatgrid/internal/worker"
)

// Run executes one simulation with the loaded configuration and returns the
// report of the workers this process ran.
func (a *App) Run(ctx context.Context) (*session.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.cfg.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.cfg.HealthcheckPort)
		defer func() {
			// Shut down on a fresh context: ctx may already be cancelled.
			_ = a.closeHealthcheckServer(context.Background())
		}()
	}

	job, err := a.buildJob(ctx)
	if err != nil {
		return nil, err
	}

	sink, err := a.registry.NewSink(ctx, a.model.Output, a.outW)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := sink.Close(context.Background()); err != nil {
			a.logger.Warn("Failed to close sink.", "error", err)
		}
	}()
	job.Sink = sink

	factory := a.sessionFactory()
	sess, err := factory.NewSession(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("failed to set up run: %w", err)
	}
	defer func() {
		if err := sess.Close(context.Background()); err != nil {
			a.logger.Warn("Failed to close session.", "error", err)
		}
	}()

	a.logger.Info("🚀 Starting heat diffusion run...",
		"transport", a.cfg.Transport, "workers", job.Workers, "n", job.Params.N, "iterations", job.Params.Iterations)
	report, err := sess.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run failed: %w", err)
	}
	a.logger.Info("🏁 Run finished.", "total_heat", report.Total, "elapsed", report.Elapsed)

	a.logger.Debug("App.Run method finished.")
	return report, nil
}

// buildJob evaluates the configuration into worker parameters.
func (a *App) buildJob(ctx context.Context) (*session.Job, error) {
	m := a.model

	points, err := m.ResolveSources(ctx, a.converter)
	if err != nil {
		return nil, err
	}
	initial, err := m.InitialField(ctx, a.converter)
	if err != nil {
		return nil, err
	}

	shape := mesh.Shape{PX: m.Mesh.PX, PY: m.Mesh.PY}
	workers := a.cfg.Workers
	switch {
	case a.cfg.Transport == TransportWS:
		workers = len(a.cfg.Peers)
	case workers == 0:
		workers = shape.Size()
	}

	return &session.Job{
		Params: worker.Params{
			N:           m.Grid.Size,
			Energy:      m.Grid.Energy,
			Iterations:  m.Grid.Iterations,
			Sources:     points,
			Initial:     initial,
			OutputEvery: m.Output.Every,
		},
		Shape:    shape,
		Periodic: mesh.Periodicity{X: m.Mesh.PeriodicX, Y: m.Mesh.PeriodicY},
		Workers:  workers,
		Store:    a.store,
	}, nil
}

func (a *App) sessionFactory() session.Factory {
	if a.cfg.Transport == TransportWS {
		return &netsession.Factory{Rank: a.cfg.Rank, Peers: a.cfg.Peers}
	}
	return &localsession.Factory{}
}
