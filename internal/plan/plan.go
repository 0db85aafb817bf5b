// Package plan turns a loaded pipeline and a trigger event into an
// execution-ready run plan: the expanded job specifications for the test
// phase and, when declared, the publish phase with its dependency on every
// test job.
package plan

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/event"
	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/model"
)

// JobInstance is one schedulable unit: a job template bound to a matrix
// entry.
type JobInstance struct {
	// ID is the display identifier, e.g. `test (ubuntu-22.04, 3.9)`.
	ID       string
	Spec     matrix.Entry
	Template *model.Job
}

// Plan is the immutable run plan for a single trigger.
type Plan struct {
	RunID    string
	Pipeline *model.Pipeline
	Event    event.Event

	// Matched is false when the event does not match the pipeline's trigger
	// surface; an unmatched plan carries no jobs and is not an error.
	Matched bool

	Jobs    []JobInstance
	Publish *model.Publish
}

// Build expands the pipeline into a run plan for the given event.
func Build(ctx context.Context, p *model.Pipeline, ev event.Event) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)

	if err := ev.Validate(); err != nil {
		return nil, err
	}

	runPlan := &Plan{
		RunID:    uuid.NewString(),
		Pipeline: p,
		Event:    ev,
	}

	if !ev.Matches(p.Triggers) {
		logger.Debug("Event does not match pipeline triggers.", "event", ev.Name, "ref", ev.Ref)
		return runPlan, nil
	}
	runPlan.Matched = true

	entries, err := matrix.Expand(p.Matrix)
	if err != nil {
		return nil, fmt.Errorf("failed to expand matrix for pipeline %q: %w", p.Name, err)
	}

	for _, job := range p.Jobs {
		for _, entry := range entries {
			runPlan.Jobs = append(runPlan.Jobs, JobInstance{
				ID:       fmt.Sprintf("%s %s", job.Name, entry),
				Spec:     entry,
				Template: job,
			})
		}
	}

	runPlan.Publish = p.Publish

	logger.Debug("Run plan built.", "run_id", runPlan.RunID, "jobs", len(runPlan.Jobs))
	return runPlan, nil
}
