package executor

import (
	"context"
	"fmt"
	"os"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/plan"
	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

// runJob executes one matrix job: an isolated workspace, then the
// template's steps in declaration order. The first failing step halts the
// job and the remaining steps are skipped.
func (e *Executor) runJob(ctx context.Context, job plan.JobInstance) error {
	logger := ctxlog.FromContext(ctx).With("job", job.ID)
	logger.Info("▶️ Starting job")

	workspace, err := os.MkdirTemp("", "conveyor-job-*")
	if err != nil {
		return fmt.Errorf("failed to create job workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	env := environMap()
	env["CONVEYOR_RUN_ID"] = e.plan.RunID
	env["CONVEYOR_RUNTIME"] = job.Spec.Runtime
	env["CONVEYOR_OS"] = job.Spec.OS

	spec := job.Spec
	sc := &stepreg.StepContext{
		RunID:     e.plan.RunID,
		Workspace: workspace,
		Spec:      spec,
		Env:       env,
		EvalCtx:   e.evalContext(&spec, workspace),
		Stdout:    e.outW,
		Stderr:    e.outW,
	}

	for _, step := range job.Template.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runStep(ctx, sc, step); err != nil {
			return fmt.Errorf("step %q failed: %w", step.Name, err)
		}
	}

	logger.Info("✅ Finished job")
	return nil
}
