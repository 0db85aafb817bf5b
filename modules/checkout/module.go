// Package checkout stages the project source tree into the job's isolated
// workspace, so steps never mutate the checkout other jobs read from.
package checkout

import (
	"context"
	"fmt"
	"os"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/fsutil"
	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

// Module implements the stepreg.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'with' block.
type Input struct {
	// Source is the directory to stage; defaults to the current directory.
	Source string `hcl:"source,optional"`
}

// Register registers the checkout handler with the registry.
func (m *Module) Register(r *stepreg.Registry) {
	r.Register("checkout", &stepreg.Handler{
		NewInput: func() any { return new(Input) },
		Fn:       run,
	})
}

func run(ctx context.Context, sc *stepreg.StepContext, input any) error {
	in, _ := input.(*Input)
	if in == nil {
		in = &Input{}
	}

	source := in.Source
	if source == "" {
		source = "."
	}

	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("checkout source %s: %w", source, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("checkout source %s is not a directory", source)
	}

	logger := ctxlog.FromContext(ctx).With("step", "checkout")
	logger.Debug("Staging source tree.", "source", source, "workspace", sc.Workspace)

	if err := fsutil.CopyTree(source, sc.Workspace); err != nil {
		return fmt.Errorf("failed to stage source tree: %w", err)
	}
	return nil
}
