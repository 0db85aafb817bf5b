// Package notify streams run and job lifecycle events to an optional
// socket.io endpoint. Notification is best-effort: a failed or missing
// connection never affects the run outcome.
package notify

import (
	"context"
	"time"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
)

// Status is the lifecycle state reported for a run or a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Event is one lifecycle notification.
type Event struct {
	RunID    string `json:"run_id"`
	Pipeline string `json:"pipeline"`

	// Job is empty for run-level events.
	Job    string    `json:"job,omitempty"`
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
}

// Notifier receives lifecycle events.
type Notifier interface {
	Emit(ctx context.Context, ev Event)
	Close()
}

// Nop discards all events. It is the default when no endpoint is configured.
type Nop struct{}

// Emit implements Notifier.
func (Nop) Emit(ctx context.Context, ev Event) {
	ctxlog.FromContext(ctx).Debug("Status event.", "job", ev.Job, "status", string(ev.Status))
}

// Close implements Notifier.
func (Nop) Close() {}
