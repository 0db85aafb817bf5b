package executor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conveyor-ci/conveyor/internal/event"
	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/model"
	"github.com/conveyor-ci/conveyor/internal/notify"
	"github.com/conveyor-ci/conveyor/internal/plan"
	"github.com/conveyor-ci/conveyor/internal/secrets"
	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

type recordedEvent struct {
	Job    string
	Status notify.Status
}

// fakeNotifier records every emitted lifecycle event for sequence assertions.
type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeNotifier) Emit(ctx context.Context, ev notify.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Job: ev.Job, Status: ev.Status})
}

func (f *fakeNotifier) Close() {}

func (f *fakeNotifier) recorded() []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedEvent, len(f.events))
	copy(out, f.events)
	return out
}

func noopRegistry(t *testing.T, failJobs bool) *stepreg.Registry {
	t.Helper()
	r := stepreg.New()
	r.Register("noop", &stepreg.Handler{
		Fn: func(ctx context.Context, sc *stepreg.StepContext, input any) error {
			if failJobs {
				return fmt.Errorf("handler failed as instructed")
			}
			return nil
		},
	})
	return r
}

func testPlan(ref string, when hcl.Expression) *plan.Plan {
	job := &model.Job{Name: "test", Steps: []*model.Step{{Name: "unit", Uses: "noop"}}}
	return &plan.Plan{
		RunID:    "run-1",
		Pipeline: &model.Pipeline{Name: "ci"},
		Event:    event.Event{Name: event.Push, Ref: ref},
		Matched:  true,
		Jobs: []plan.JobInstance{{
			ID:       "test (ubuntu-22.04, 3.9)",
			Spec:     matrix.Entry{Runtime: "3.9", OS: "ubuntu-22.04"},
			Template: job,
		}},
		Publish: &model.Publish{
			When:  when,
			Steps: []*model.Step{{Name: "pub", Uses: "noop"}},
		},
	}
}

func parseExpr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return expr
}

func TestRun_EmitsLifecycleSequence(t *testing.T) {
	notifier := &fakeNotifier{}
	exec := New(testPlan("refs/tags/v1.2.3", nil), noopRegistry(t, false), secrets.Store{}, notifier, 1, io.Discard)

	result, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.True(t, result.Gate)
	assert.Equal(t, notify.StatusSucceeded, result.PublishStatus)

	jobID := "test (ubuntu-22.04, 3.9)"
	assert.Equal(t, []recordedEvent{
		{Job: "", Status: notify.StatusRunning},
		{Job: jobID, Status: notify.StatusQueued},
		{Job: jobID, Status: notify.StatusRunning},
		{Job: jobID, Status: notify.StatusSucceeded},
		{Job: "publish", Status: notify.StatusRunning},
		{Job: "publish", Status: notify.StatusSucceeded},
		{Job: "", Status: notify.StatusSucceeded},
	}, notifier.recorded())
}

func TestRun_FailedJobEmitsFailureAndSkipsPublish(t *testing.T) {
	notifier := &fakeNotifier{}
	exec := New(testPlan("refs/tags/v1.2.3", nil), noopRegistry(t, true), secrets.Store{}, notifier, 1, io.Discard)

	result, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.Equal(t, notify.StatusSkipped, result.PublishStatus)

	jobID := "test (ubuntu-22.04, 3.9)"
	assert.Equal(t, []recordedEvent{
		{Job: "", Status: notify.StatusRunning},
		{Job: jobID, Status: notify.StatusQueued},
		{Job: jobID, Status: notify.StatusRunning},
		{Job: jobID, Status: notify.StatusFailed},
		{Job: "", Status: notify.StatusFailed},
	}, notifier.recorded())
}

func TestRun_ClosedGateEmitsNoPublishEvents(t *testing.T) {
	notifier := &fakeNotifier{}
	gate := parseExpr(t, "event.is_tag")
	exec := New(testPlan("refs/heads/master", gate), noopRegistry(t, false), secrets.Store{}, notifier, 1, io.Discard)

	result, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.False(t, result.Gate)
	assert.Equal(t, notify.StatusSkipped, result.PublishStatus)

	for _, ev := range notifier.recorded() {
		assert.NotEqual(t, "publish", ev.Job)
	}
}
