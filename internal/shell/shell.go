// Package shell executes `run` step scripts with an embedded POSIX shell
// interpreter, so pipelines behave the same on every host.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Options configures one script execution.
type Options struct {
	// Dir is the working directory; empty means the process cwd.
	Dir string

	// Env is the complete environment for the script.
	Env map[string]string

	Stdout io.Writer
	Stderr io.Writer
}

// ExitError reports a script that ran to completion with a non-zero status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("script exited with status %d", e.Code)
}

// Run parses and executes a shell script.
func Run(ctx context.Context, script string, opts Options) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "script")
	if err != nil {
		return fmt.Errorf("script syntax error: %w", err)
	}

	runner, err := interp.New(
		interp.Dir(opts.Dir),
		interp.Env(expand.ListEnviron(envToSlice(opts.Env)...)),
		interp.StdIO(nil, opts.Stdout, opts.Stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &ExitError{Code: int(exitStatus)}
		}
		return fmt.Errorf("script execution failed: %w", err)
	}
	return nil
}

// envToSlice flattens an environment map into sorted KEY=VALUE form.
func envToSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
