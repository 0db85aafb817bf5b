package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/hclload"
	"github.com/conveyor-ci/conveyor/internal/model"
	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *stepreg.Registry
	pipeline *model.Pipeline
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Extra modules replace the core set when provided, which is how tests
// inject fake handlers.
func NewApp(outW io.Writer, config *Config, modules ...stepreg.Module) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	pipeline, err := hclload.Load(ctx, config.PipelinePath)
	if err != nil {
		// A failure to load the pipeline is a fatal startup error.
		panic(fmt.Errorf("failed to load pipeline: %w", err))
	}
	logger.Debug("Pipeline loaded.", "name", pipeline.Name)

	registry := stepreg.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(registry)
	}
	logger.Debug("Step modules registered.", "handlers", registry.Names())

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		registry: registry,
		pipeline: pipeline,
	}
}

// Pipeline returns the loaded pipeline. This is primarily for testing.
func (a *App) Pipeline() *model.Pipeline {
	return a.pipeline
}

// Registry returns the application's step registry. This is primarily for testing.
func (a *App) Registry() *stepreg.Registry {
	return a.registry
}
