// Package schema defines the raw HCL decoding structures for pipeline files.
// The structs here mirror the file syntax one-to-one; translation into the
// format-agnostic model happens in the hclload package.
package schema

import "github.com/hashicorp/hcl/v2"

// --- Primary Pipeline Structures ---

// File represents the top-level structure of a pipeline file.
type File struct {
	Pipelines []*Pipeline `hcl:"pipeline,block"`
	Body      hcl.Body    `hcl:",remain"`
}

// Pipeline represents a `pipeline` block from a user's pipeline file.
type Pipeline struct {
	Name    string   `hcl:"name,label"`
	On      *On      `hcl:"on,block"`
	Matrix  *Matrix  `hcl:"matrix,block"`
	Jobs    []*Job   `hcl:"job,block"`
	Publish *Publish `hcl:"publish,block"`
}

// On represents the trigger surface of a pipeline.
type On struct {
	Push        *PushTrigger        `hcl:"push,block"`
	PullRequest *PullRequestTrigger `hcl:"pull_request,block"`
}

// PushTrigger matches push events by branch name, or any tag push when
// `tags` is set.
type PushTrigger struct {
	Branches []string `hcl:"branches,optional"`
	Tags     bool     `hcl:"tags,optional"`
}

// PullRequestTrigger matches pull request events by their target branch.
type PullRequestTrigger struct {
	Branches []string `hcl:"branches,optional"`
}

// Matrix declares the build dimensions. The `include` blocks are extra
// (runtime, os) pairs appended outside the cross-product.
type Matrix struct {
	Runtime  []string   `hcl:"runtime"`
	OS       []string   `hcl:"os"`
	Includes []*Include `hcl:"include,block"`
}

// Include is one explicit extra matrix pair.
type Include struct {
	Runtime string `hcl:"runtime"`
	OS      string `hcl:"os"`
}

// Job is the per-matrix-entry job template.
type Job struct {
	Name  string  `hcl:"name,label"`
	Steps []*Step `hcl:"step,block"`
}

// Step represents a single `step` block. Exactly one of `run` and `uses`
// must be set; `run`, `if` and `env` are captured as expressions and
// evaluated later against the job's evaluation context.
type Step struct {
	Name string         `hcl:"name,label"`
	Run  hcl.Expression `hcl:"run,optional"`
	Uses string         `hcl:"uses,optional"`
	If   hcl.Expression `hcl:"if,optional"`
	Env  hcl.Expression `hcl:"env,optional"`
	With *WithBlock     `hcl:"with,block"`
}

// WithBlock holds the undecoded handler arguments of a `uses` step.
type WithBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Publish represents the run-level publish phase, gated by `when`.
type Publish struct {
	Needs []string       `hcl:"needs,optional"`
	When  hcl.Expression `hcl:"when,optional"`
	Steps []*Step        `hcl:"step,block"`
}
