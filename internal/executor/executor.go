// Package executor runs a plan: the matrix jobs concurrently over a worker
// pool, then the publish phase once every job has finished. Matrix jobs are
// independent: one job failing never cancels its siblings. The publish phase
// is the only ordering edge, and it requires every needed job to have
// succeeded plus a true release gate.
package executor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/notify"
	"github.com/conveyor-ci/conveyor/internal/plan"
	"github.com/conveyor-ci/conveyor/internal/secrets"
	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

// Executor orchestrates one pipeline run.
type Executor struct {
	plan     *plan.Plan
	registry *stepreg.Registry
	secrets  secrets.Store
	notifier notify.Notifier
	workers  int
	outW     io.Writer
}

// New creates an Executor for a run plan.
func New(p *plan.Plan, registry *stepreg.Registry, store secrets.Store, notifier notify.Notifier, workers int, outW io.Writer) *Executor {
	if workers < 1 {
		workers = 1
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Executor{
		plan:     p,
		registry: registry,
		secrets:  store,
		notifier: notifier,
		workers:  workers,
		outW:     outW,
	}
}

// JobResult is the outcome of one matrix job.
type JobResult struct {
	ID       string
	Spec     matrix.Entry
	Status   notify.Status
	Err      error
	Duration time.Duration
}

// RunResult is the outcome of the whole run.
type RunResult struct {
	Jobs []JobResult

	// Gate is the release gate value; only meaningful when the pipeline
	// declares a publish phase and all needed jobs succeeded.
	Gate bool

	// PublishStatus is succeeded, failed, or skipped. Skipped is not a
	// failure when the gate was false.
	PublishStatus notify.Status
	PublishErr    error
}

// Failed reports whether the run as a whole failed.
func (r *RunResult) Failed() bool {
	for _, job := range r.Jobs {
		if job.Status == notify.StatusFailed {
			return true
		}
	}
	return r.PublishStatus == notify.StatusFailed
}

// indexedJob pairs a job instance with its slot in the results slice.
type indexedJob struct {
	idx int
	job plan.JobInstance
}

// Run executes the plan to completion and returns the per-job outcomes.
// Job failures are reported in the result, not as an error; the returned
// error is reserved for failures of the executor itself.
func (e *Executor) Run(ctx context.Context) (*RunResult, error) {
	logger := ctxlog.FromContext(ctx)

	result := &RunResult{
		Jobs: make([]JobResult, len(e.plan.Jobs)),
	}
	if e.plan.Publish != nil {
		result.PublishStatus = notify.StatusSkipped
	}

	e.notifier.Emit(ctx, notify.Event{
		RunID:    e.plan.RunID,
		Pipeline: e.plan.Pipeline.Name,
		Status:   notify.StatusRunning,
		At:       time.Now(),
	})

	jobsChan := make(chan indexedJob)
	var wg sync.WaitGroup
	wg.Add(len(e.plan.Jobs))

	for workerID := 0; workerID < e.workers; workerID++ {
		go e.worker(ctx, jobsChan, result.Jobs, &wg, workerID)
	}

	for idx, job := range e.plan.Jobs {
		e.notifier.Emit(ctx, notify.Event{
			RunID:    e.plan.RunID,
			Pipeline: e.plan.Pipeline.Name,
			Job:      job.ID,
			Status:   notify.StatusQueued,
			At:       time.Now(),
		})
		jobsChan <- indexedJob{idx: idx, job: job}
	}
	close(jobsChan)
	wg.Wait()

	if err := e.runPublishPhase(ctx, result); err != nil {
		return nil, err
	}

	finalStatus := notify.StatusSucceeded
	if result.Failed() {
		finalStatus = notify.StatusFailed
	}
	e.notifier.Emit(ctx, notify.Event{
		RunID:    e.plan.RunID,
		Pipeline: e.plan.Pipeline.Name,
		Status:   finalStatus,
		At:       time.Now(),
	})

	logger.Debug("Executor finished.", "status", string(finalStatus))
	return result, nil
}

// needsSatisfied reports whether every job the publish phase depends on
// succeeded. An empty needs list means all jobs.
func (e *Executor) needsSatisfied(result *RunResult) bool {
	needs := map[string]bool{}
	if e.plan.Publish != nil {
		for _, name := range e.plan.Publish.Needs {
			needs[name] = true
		}
	}

	for i, job := range e.plan.Jobs {
		if len(needs) > 0 && !needs[job.Template.Name] {
			continue
		}
		if result.Jobs[i].Status != notify.StatusSucceeded {
			return false
		}
	}
	return true
}

// WriteSummary prints the per-job outcome table and the publish decision.
func (r *RunResult) WriteSummary(w io.Writer) {
	for _, job := range r.Jobs {
		line := fmt.Sprintf("%-10s %s (%.1fs)", string(job.Status), job.ID, job.Duration.Seconds())
		if job.Err != nil {
			line += ": " + job.Err.Error()
		}
		fmt.Fprintln(w, line)
	}
	switch r.PublishStatus {
	case notify.StatusSucceeded:
		fmt.Fprintln(w, "publish    succeeded")
	case notify.StatusFailed:
		fmt.Fprintf(w, "publish    failed: %v\n", r.PublishErr)
	case notify.StatusSkipped:
		fmt.Fprintln(w, "publish    skipped")
	}
}
