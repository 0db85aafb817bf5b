package executor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/notify"
	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

// publishJobID names the publish phase in results and status events.
const publishJobID = "publish"

// runPublishPhase decides and, when permitted, executes the publish phase.
// It runs once per pipeline run: only after every matrix job finished, only
// when every needed job succeeded, and only when the release gate is true.
// A false gate is a skip, not an error.
func (e *Executor) runPublishPhase(ctx context.Context, result *RunResult) error {
	if e.plan.Publish == nil {
		return nil
	}
	logger := ctxlog.FromContext(ctx).With("job", publishJobID)

	if !e.needsSatisfied(result) {
		logger.Warn("Publish skipped: not all required jobs succeeded.")
		result.PublishStatus = notify.StatusSkipped
		return nil
	}

	gate, err := e.releaseGate()
	if err != nil {
		return err
	}
	result.Gate = gate
	if !gate {
		logger.Info("Publish skipped: release gate is closed.", "ref", e.plan.Event.Ref)
		result.PublishStatus = notify.StatusSkipped
		return nil
	}

	e.notifier.Emit(ctx, notify.Event{
		RunID:    e.plan.RunID,
		Pipeline: e.plan.Pipeline.Name,
		Job:      publishJobID,
		Status:   notify.StatusRunning,
		At:       time.Now(),
	})

	err = e.runPublishSteps(ctx)
	if err != nil {
		logger.Error("Publish failed.", "error", err)
		result.PublishStatus = notify.StatusFailed
		result.PublishErr = err
	} else {
		logger.Info("✅ Publish finished")
		result.PublishStatus = notify.StatusSucceeded
	}

	e.notifier.Emit(ctx, notify.Event{
		RunID:    e.plan.RunID,
		Pipeline: e.plan.Pipeline.Name,
		Job:      publishJobID,
		Status:   result.PublishStatus,
		At:       time.Now(),
	})
	return nil
}

// releaseGate evaluates the publish `when` expression once for the run. A
// missing expression leaves the phase gated only by job success.
func (e *Executor) releaseGate() (bool, error) {
	if e.plan.Publish.When == nil {
		return true, nil
	}
	val, diags := e.plan.Publish.When.Value(e.evalContext(nil, ""))
	if diags.HasErrors() {
		return false, fmt.Errorf("failed to evaluate publish gate: %w", diags)
	}
	boolVal, err := convert.Convert(val, cty.Bool)
	if err != nil || boolVal.IsNull() {
		return false, fmt.Errorf("publish gate is not a boolean")
	}
	return boolVal.True(), nil
}

// runPublishSteps executes the publish steps in their own workspace. Publish
// steps see no matrix variable: the phase runs once, not per job.
func (e *Executor) runPublishSteps(ctx context.Context) error {
	workspace, err := os.MkdirTemp("", "conveyor-publish-*")
	if err != nil {
		return fmt.Errorf("failed to create publish workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	env := environMap()
	env["CONVEYOR_RUN_ID"] = e.plan.RunID

	sc := &stepreg.StepContext{
		RunID:     e.plan.RunID,
		Workspace: workspace,
		Env:       env,
		EvalCtx:   e.evalContext(nil, workspace),
		Stdout:    e.outW,
		Stderr:    e.outW,
	}

	for _, step := range e.plan.Publish.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runStep(ctx, sc, step); err != nil {
			return fmt.Errorf("step %q failed: %w", step.Name, err)
		}
	}
	return nil
}
