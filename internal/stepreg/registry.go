// Package stepreg holds the registry of step handlers. A handler implements
// one `uses` step kind (checkout, coverage upload, release, ...); its
// arguments arrive as a decoded input struct from the step's `with` block.
package stepreg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/hashicorp/hcl/v2"

	"github.com/conveyor-ci/conveyor/internal/matrix"
)

// Module is the interface all built-in step modules implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// StepContext carries the per-job execution state a handler may need.
type StepContext struct {
	// RunID identifies the pipeline run.
	RunID string

	// Workspace is the job's isolated working directory.
	Workspace string

	// Spec is the matrix entry this job executes for. Zero for publish-phase
	// steps, which run once per pipeline run.
	Spec matrix.Entry

	// Env is the job environment; handlers may add variables for later steps.
	Env map[string]string

	// EvalCtx evaluates the step's `with` block.
	EvalCtx *hcl.EvalContext

	// Stdout and Stderr receive step output.
	Stdout io.Writer
	Stderr io.Writer
}

// Handler holds the compiled Go parts of a step kind.
type Handler struct {
	// NewInput returns a fresh input struct for the `with` block, or nil for
	// handlers without arguments.
	NewInput func() any

	// Fn executes the step. The input is the struct returned by NewInput,
	// populated from the step's `with` block.
	Fn func(ctx context.Context, sc *StepContext, input any) error
}

// Registry maps `uses` names to their handlers for a single application
// instance.
type Registry struct {
	handlers map[string]*Handler
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{handlers: make(map[string]*Handler)}
}

// Register registers a step handler under a `uses` name.
func (r *Registry) Register(name string, handler *Handler) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("step handler with name '%s' already registered", name))
	}
	slog.Debug("Registering step handler.", "name", name)
	r.handlers[name] = handler
}

// Lookup returns the handler for a `uses` name.
func (r *Registry) Lookup(name string) (*Handler, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown step handler '%s'", name)
	}
	return handler, nil
}

// Names returns the registered handler names in sorted order, for startup
// logging.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
