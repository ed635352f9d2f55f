// Package http_client provides the "http" sink, which POSTs every frame as
// JSON to a collector endpoint.
package http_client

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vk/heatgrid/internal/config"
	"github.com/vk/heatgrid/internal/ctxlog"
	"github.com/vk/heatgrid/internal/registry"
	"github.com/vk/heatgrid/internal/snapshot"
	"resty.dev/v3"
)

// Module implements the registry.Module interface. It's the main entrypoint
// for the http_client module.
type Module struct{}

const defaultTimeout = 10 * time.Second

// Sink posts frames to a URL. It is safe for concurrent use.
type Sink struct {
	client *resty.Client
	url    string
}

// NewSink is the factory registered for the "http" sink.
func NewSink(ctx context.Context, cfg config.Output, _ io.Writer) (snapshot.Sink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: http sink needs a url", config.ErrInvalid)
	}
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json")
	ctxlog.FromContext(ctx).Debug("HTTP sink created.", "url", cfg.URL)
	return &Sink{client: client, url: cfg.URL}, nil
}

// Publish sends one frame and fails on any non-2xx response.
func (s *Sink) Publish(ctx context.Context, f snapshot.Frame) error {
	logger := ctxlog.FromContext(ctx)

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(f.Payload()).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("failed to post frame: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("collector rejected frame %d from rank %d: %s", f.Iteration, f.Rank, resp.Status())
	}

	logger.Debug("Frame posted.", "iteration", f.Iteration, "status", resp.StatusCode())
	return nil
}

// Close releases the client's idle connections.
func (s *Sink) Close(context.Context) error {
	return s.client.Close()
}

// Register registers the sink with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterSink(config.SinkHTTP, NewSink)
}
