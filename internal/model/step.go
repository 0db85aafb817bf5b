package model

import "github.com/hashicorp/hcl/v2"

// Job is the template executed once per matrix entry.
type Job struct {
	Name  string
	Steps []*Step
}

// Step is a single unit of work inside a job. Exactly one of Run and Uses is
// set. Run, If and Env stay unevaluated until execution so they can
// reference matrix, event and secret values.
type Step struct {
	Name string

	// Run is a shell script expression, nil for `uses` steps.
	Run hcl.Expression

	// Uses names a registered step handler, empty for `run` steps.
	Uses string

	// With is the raw body of the handler arguments, nil when absent.
	With hcl.Body

	// If gates the step; a nil expression means the step always runs.
	If hcl.Expression

	// Env is an optional map expression of extra environment variables.
	Env hcl.Expression
}

// Publish is the run-level publish phase. It runs at most once, strictly
// after every matrix job finished, and only when all of them succeeded and
// When evaluates to true.
type Publish struct {
	// Needs lists the job templates that must succeed first. An empty list
	// means all jobs in the pipeline.
	Needs []string

	// When is the release gate expression; a nil expression means always.
	When hcl.Expression

	Steps []*Step
}
