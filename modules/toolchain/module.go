// Package toolchain records the requested runtime version in the job
// environment and prints host diagnostics, replacing the usual
// "print environment info" pipeline step.
package toolchain

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

// Module implements the stepreg.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'with' block.
type Input struct {
	// Version is the runtime version this job targets, usually
	// matrix.runtime.
	Version string `hcl:"version"`
}

// Register registers the toolchain handler with the registry.
func (m *Module) Register(r *stepreg.Registry) {
	r.Register("toolchain", &stepreg.Handler{
		NewInput: func() any { return new(Input) },
		Fn:       run,
	})
}

func run(ctx context.Context, sc *stepreg.StepContext, input any) error {
	in, ok := input.(*Input)
	if !ok || in.Version == "" {
		return fmt.Errorf("toolchain step requires a version")
	}

	sc.Env["TOOLCHAIN_VERSION"] = in.Version

	hostname, _ := os.Hostname()
	logger := ctxlog.FromContext(ctx).With("step", "toolchain")
	logger.Info("Toolchain configured.",
		"version", in.Version,
		"goos", runtime.GOOS,
		"goarch", runtime.GOARCH,
		"go", runtime.Version(),
		"host", hostname,
	)

	fmt.Fprintf(sc.Stdout, "toolchain %s on %s/%s (%s)\n", in.Version, runtime.GOOS, runtime.GOARCH, hostname)
	return nil
}
