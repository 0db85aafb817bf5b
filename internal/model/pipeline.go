// Package model holds the format-agnostic representation of a loaded
// pipeline. The raw schema structs mirror HCL syntax; everything downstream
// (planning, matrix expansion, execution) operates on this model instead.
// Conditions stay as unevaluated hcl.Expression values: a step's `if` or the
// publish `when` can only be resolved once the per-job evaluation context
// (matrix entry, trigger event, secrets) exists.
package model

// Pipeline is the format-agnostic representation of a `pipeline` block.
type Pipeline struct {
	Name     string
	Triggers *Triggers
	Matrix   *Matrix
	Jobs     []*Job
	Publish  *Publish

	// Source is the file the pipeline was loaded from, for diagnostics.
	Source string
}

// Triggers is the event surface a pipeline responds to.
type Triggers struct {
	Push        *PushTrigger
	PullRequest *PullRequestTrigger
}

// PushTrigger matches pushes to the named branches, and any tag push when
// Tags is set.
type PushTrigger struct {
	Branches []string
	Tags     bool
}

// PullRequestTrigger matches pull requests targeting the named branches.
type PullRequestTrigger struct {
	Branches []string
}

// Job locates a job template by name.
func (p *Pipeline) Job(name string) *Job {
	for _, j := range p.Jobs {
		if j.Name == name {
			return j
		}
	}
	return nil
}
