package hclload

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/conveyor-ci/conveyor/internal/model"
	"github.com/conveyor-ci/conveyor/internal/schema"
)

// translate converts a raw schema pipeline into the model, validating the
// structural invariants the executor relies on.
func translate(raw *schema.Pipeline, filePath string) (*model.Pipeline, error) {
	if raw.On == nil {
		return nil, fmt.Errorf("pipeline %q in %s has no 'on' block", raw.Name, filePath)
	}
	if raw.Matrix == nil {
		return nil, fmt.Errorf("pipeline %q in %s has no 'matrix' block", raw.Name, filePath)
	}
	if len(raw.Jobs) == 0 {
		return nil, fmt.Errorf("pipeline %q in %s declares no jobs", raw.Name, filePath)
	}

	p := &model.Pipeline{
		Name:     raw.Name,
		Source:   filePath,
		Triggers: translateTriggers(raw.On),
	}

	m, err := translateMatrix(raw.Matrix, raw.Name)
	if err != nil {
		return nil, err
	}
	p.Matrix = m

	for _, rawJob := range raw.Jobs {
		job, err := translateJob(rawJob, raw.Name)
		if err != nil {
			return nil, err
		}
		p.Jobs = append(p.Jobs, job)
	}

	if raw.Publish != nil {
		pub, err := translatePublish(raw.Publish, p)
		if err != nil {
			return nil, err
		}
		p.Publish = pub
	}

	return p, nil
}

func translateTriggers(on *schema.On) *model.Triggers {
	t := &model.Triggers{}
	if on.Push != nil {
		t.Push = &model.PushTrigger{Branches: on.Push.Branches, Tags: on.Push.Tags}
	}
	if on.PullRequest != nil {
		t.PullRequest = &model.PullRequestTrigger{Branches: on.PullRequest.Branches}
	}
	return t
}

func translateMatrix(raw *schema.Matrix, pipelineName string) (*model.Matrix, error) {
	m := &model.Matrix{
		Runtimes: raw.Runtime,
		OSes:     raw.OS,
	}
	for i, inc := range raw.Includes {
		if inc.Runtime == "" || inc.OS == "" {
			return nil, fmt.Errorf("pipeline %q: matrix include #%d must set both runtime and os", pipelineName, i+1)
		}
		m.Includes = append(m.Includes, model.Include{Runtime: inc.Runtime, OS: inc.OS})
	}

	// A pipeline with zero jobs would satisfy the publish dependency
	// vacuously, letting a tag push release without a single test run.
	if len(m.Runtimes)*len(m.OSes)+len(m.Includes) == 0 {
		return nil, fmt.Errorf("pipeline %q: matrix expands to no jobs", pipelineName)
	}
	return m, nil
}

func translateJob(raw *schema.Job, pipelineName string) (*model.Job, error) {
	if len(raw.Steps) == 0 {
		return nil, fmt.Errorf("pipeline %q: job %q declares no steps", pipelineName, raw.Name)
	}
	job := &model.Job{Name: raw.Name}
	for _, rawStep := range raw.Steps {
		step, err := translateStep(rawStep, pipelineName, raw.Name)
		if err != nil {
			return nil, err
		}
		job.Steps = append(job.Steps, step)
	}
	return job, nil
}

func translateStep(raw *schema.Step, pipelineName, jobName string) (*model.Step, error) {
	hasRun := !exprAbsent(raw.Run)
	hasUses := raw.Uses != ""

	if hasRun == hasUses {
		return nil, fmt.Errorf("pipeline %q: step %q in %q must set exactly one of 'run' and 'uses'",
			pipelineName, raw.Name, jobName)
	}
	if raw.With != nil && !hasUses {
		return nil, fmt.Errorf("pipeline %q: step %q in %q has a 'with' block but no 'uses'",
			pipelineName, raw.Name, jobName)
	}

	step := &model.Step{
		Name: raw.Name,
		Uses: raw.Uses,
		If:   normalizeExpr(raw.If),
		Env:  normalizeExpr(raw.Env),
	}
	if hasRun {
		step.Run = raw.Run
	}
	if raw.With != nil {
		step.With = raw.With.Body
	}
	return step, nil
}

func translatePublish(raw *schema.Publish, p *model.Pipeline) (*model.Publish, error) {
	if len(raw.Steps) == 0 {
		return nil, fmt.Errorf("pipeline %q: publish block declares no steps", p.Name)
	}
	for _, need := range raw.Needs {
		if p.Job(need) == nil {
			return nil, fmt.Errorf("pipeline %q: publish needs unknown job %q", p.Name, need)
		}
	}

	pub := &model.Publish{
		Needs: raw.Needs,
		When:  normalizeExpr(raw.When),
	}
	for _, rawStep := range raw.Steps {
		step, err := translateStep(rawStep, p.Name, "publish")
		if err != nil {
			return nil, err
		}
		pub.Steps = append(pub.Steps, step)
	}
	return pub, nil
}

// exprAbsent reports whether an optional expression attribute was omitted.
// gohcl fills omitted expression fields with a static null expression rather
// than leaving them nil, so absence means: no referenced variables, and a
// nil-context evaluation yielding null.
func exprAbsent(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	if len(expr.Variables()) > 0 {
		return false
	}
	val, diags := expr.Value(nil)
	return !diags.HasErrors() && val.IsNull()
}

// normalizeExpr collapses absent optional expressions to a plain nil.
func normalizeExpr(expr hcl.Expression) hcl.Expression {
	if exprAbsent(expr) {
		return nil
	}
	return expr
}
