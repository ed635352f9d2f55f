package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/heatgrid/internal/config"
	"github.com/vk/heatgrid/internal/ctxlog"
	"github.com/vk/heatgrid/internal/inmemorystore"
	"github.com/vk/heatgrid/internal/nodestore"
	"github.com/vk/heatgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	cfg        *Config
	registry   *registry.Registry
	model      *config.Model
	converter  config.Converter
	store      nodestore.Store
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads and merges
// the run configuration, registers the modules and checks that the
// configured sink exists. The returned App has its own isolated logger and
// registry.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	var configPaths []string
	if cfg.ConfigPath != "" {
		configPaths = append(configPaths, cfg.ConfigPath)
	}

	model, converter, err := loader.Load(ctx, config.Default(), configPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	model.Apply(cfg.Overrides)
	if err := model.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded and merged.",
		"n", model.Grid.Size, "iterations", model.Grid.Iterations,
		"mesh", fmt.Sprintf("%dx%d", model.Mesh.PX, model.Mesh.PY), "sources", len(model.Sources))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "sinks", reg.Sinks())

	if err := reg.Validate(model.Output.Sink); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	return &App{
		outW:      outW,
		logger:    logger,
		cfg:       cfg,
		registry:  reg,
		model:     model,
		converter: converter,
		store:     inmemorystore.New(),
	}, nil
}

// Model returns the merged run configuration. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// Store returns the worker state store the health server reads.
func (a *App) Store() nodestore.Store {
	return a.store
}
