package executor

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/model"
	"github.com/conveyor-ci/conveyor/internal/shell"
	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

// runStep executes one step against the job's step context. A step whose
// `if` evaluates to false is skipped without error.
func (e *Executor) runStep(ctx context.Context, sc *stepreg.StepContext, step *model.Step) error {
	logger := ctxlog.FromContext(ctx).With("step", step.Name)

	run, err := e.stepShouldRun(step, sc.EvalCtx)
	if err != nil {
		return err
	}
	if !run {
		logger.Info("⏭️ Step skipped by condition")
		return nil
	}

	env, err := stepEnv(sc.Env, step, sc.EvalCtx)
	if err != nil {
		return err
	}

	logger.Info("▶️ Starting step")

	if step.Run != nil {
		script, err := evalString(step.Run, sc.EvalCtx)
		if err != nil {
			return fmt.Errorf("failed to evaluate run script: %w", err)
		}
		err = shell.Run(ctx, script, shell.Options{
			Dir:    sc.Workspace,
			Env:    env,
			Stdout: sc.Stdout,
			Stderr: sc.Stderr,
		})
		if err != nil {
			return err
		}
		logger.Info("✅ Finished step")
		return nil
	}

	handler, err := e.registry.Lookup(step.Uses)
	if err != nil {
		return err
	}

	var input any
	if handler.NewInput != nil {
		input = handler.NewInput()
		body := step.With
		if body == nil {
			body = hcl.EmptyBody()
		}
		if diags := gohcl.DecodeBody(body, sc.EvalCtx, input); diags.HasErrors() {
			return fmt.Errorf("failed to decode arguments for step %q: %w", step.Name, diags)
		}
	}

	stepSc := *sc
	stepSc.Env = env
	before := make(map[string]string, len(env))
	for k, v := range env {
		before[k] = v
	}
	if err := handler.Fn(ctx, &stepSc, input); err != nil {
		return err
	}
	// Handlers may export variables for later steps. Only keys the handler
	// added or changed are merged back; the step's own env block stays
	// scoped to this step.
	for k, v := range stepSc.Env {
		if prev, ok := before[k]; !ok || prev != v {
			sc.Env[k] = v
		}
	}

	logger.Info("✅ Finished step")
	return nil
}

// stepShouldRun resolves the step's `if` condition. A missing condition
// means the step always runs.
func (e *Executor) stepShouldRun(step *model.Step, evalCtx *hcl.EvalContext) (bool, error) {
	if step.If == nil {
		return true, nil
	}
	val, diags := step.If.Value(evalCtx)
	if diags.HasErrors() {
		return false, fmt.Errorf("failed to evaluate condition for step %q: %w", step.Name, diags)
	}
	boolVal, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("condition for step %q is not a boolean: %w", step.Name, err)
	}
	if boolVal.IsNull() {
		return false, fmt.Errorf("condition for step %q evaluated to null", step.Name)
	}
	return boolVal.True(), nil
}

// stepEnv merges the step's `env` map expression over the job environment.
// The job environment itself is left untouched for `uses` steps until the
// handler finishes.
func stepEnv(base map[string]string, step *model.Step, evalCtx *hcl.EvalContext) (map[string]string, error) {
	env := make(map[string]string, len(base))
	for k, v := range base {
		env[k] = v
	}
	if step.Env == nil {
		return env, nil
	}

	val, diags := step.Env.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate env for step %q: %w", step.Name, diags)
	}
	if val.IsNull() || !val.CanIterateElements() {
		return nil, fmt.Errorf("env for step %q must be a map of strings", step.Name)
	}

	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		strVal, err := convert.Convert(v, cty.String)
		if err != nil || strVal.IsNull() {
			return nil, fmt.Errorf("env value %q for step %q is not a string", k.AsString(), step.Name)
		}
		env[k.AsString()] = strVal.AsString()
	}
	return env, nil
}

// evalString resolves an expression to a non-null string.
func evalString(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	strVal, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	if strVal.IsNull() {
		return "", fmt.Errorf("expression evaluated to null")
	}
	return strVal.AsString(), nil
}
