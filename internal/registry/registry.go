package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/vk/heatgrid/internal/config"
	"github.com/vk/heatgrid/internal/snapshot"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// SinkFactory builds a snapshot sink from the output block. out is where
// local sinks write.
type SinkFactory func(ctx context.Context, cfg config.Output, out io.Writer) (snapshot.Sink, error)

// Registry holds the registered sink factories for a single application
// instance.
type Registry struct {
	sinks map[string]SinkFactory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		sinks: make(map[string]SinkFactory),
	}
}

// RegisterSink registers the factory for a sink name.
func (r *Registry) RegisterSink(name string, factory SinkFactory) {
	if name == config.SinkNone {
		panic(fmt.Sprintf("sink name '%s' is reserved", name))
	}
	if _, exists := r.sinks[name]; exists {
		panic(fmt.Sprintf("sink with name '%s' already registered", name))
	}
	slog.Debug("Registering sink.", "name", name)
	r.sinks[name] = factory
}

// Sinks returns the registered sink names, sorted.
func (r *Registry) Sinks() []string {
	names := make([]string, 0, len(r.sinks))
	for name := range r.sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSink builds the sink named by cfg.Sink. The "none" sink discards every
// frame.
func (r *Registry) NewSink(ctx context.Context, cfg config.Output, out io.Writer) (snapshot.Sink, error) {
	if cfg.Sink == config.SinkNone || cfg.Sink == "" {
		return snapshot.Discard{}, nil
	}
	factory, ok := r.sinks[cfg.Sink]
	if !ok {
		return nil, fmt.Errorf("%w: no sink registered for %q", config.ErrInvalid, cfg.Sink)
	}
	sink, err := factory(ctx, cfg, out)
	if err != nil {
		return nil, fmt.Errorf("failed to create sink %q: %w", cfg.Sink, err)
	}
	return sink, nil
}

// Validate checks that every named sink has a registered factory. With no
// names it checks every sink a run file may name.
func (r *Registry) Validate(names ...string) error {
	if len(names) == 0 {
		names = []string{config.SinkConsole, config.SinkSocketIO, config.SinkHTTP}
	}
	var missing []string
	for _, name := range names {
		if name == config.SinkNone {
			continue
		}
		if _, ok := r.sinks[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("registry validation failed: no module provides sinks %v", missing)
	}
	return nil
}
