package executor

import (
	"context"
	"sync"
	"time"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/notify"
)

// worker is the core processing loop for a single concurrent worker. A
// failed job only fails itself; the channel keeps feeding the remaining
// matrix jobs to the pool.
func (e *Executor) worker(ctx context.Context, jobsChan chan indexedJob, results []JobResult, wg *sync.WaitGroup, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for ij := range jobsChan {
		workerLogger := logger.With("workerID", workerID, "jobID", ij.job.ID)

		e.notifier.Emit(ctx, notify.Event{
			RunID:    e.plan.RunID,
			Pipeline: e.plan.Pipeline.Name,
			Job:      ij.job.ID,
			Status:   notify.StatusRunning,
			At:       time.Now(),
		})

		workerLogger.Debug("Worker picked up job.")
		started := time.Now()
		err := e.runJob(ctx, ij.job)
		duration := time.Since(started)

		result := JobResult{
			ID:       ij.job.ID,
			Spec:     ij.job.Spec,
			Duration: duration,
		}
		if err != nil {
			workerLogger.Error("Job failed.", "error", err)
			result.Status = notify.StatusFailed
			result.Err = err
		} else {
			workerLogger.Debug("Job succeeded.")
			result.Status = notify.StatusSucceeded
		}
		results[ij.idx] = result

		e.notifier.Emit(ctx, notify.Event{
			RunID:    e.plan.RunID,
			Pipeline: e.plan.Pipeline.Name,
			Job:      ij.job.ID,
			Status:   result.Status,
			At:       time.Now(),
		})
		wg.Done()
	}

	logger.Debug("Worker finished.", "workerID", workerID)
}
