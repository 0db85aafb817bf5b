package testutil

import (
	"context"
	"sync"

	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

// Invocation records one handler execution.
type Invocation struct {
	Handler string
	Runtime string
	OS      string
}

// Recorder is a step module that registers no-op handlers and records every
// invocation, for asserting on matrix expansion and step gating.
type Recorder struct {
	// Names are the handler names this module registers.
	Names []string

	// Fail lists handler names that return an error when invoked.
	Fail map[string]bool

	mu          sync.Mutex
	invocations []Invocation
}

// Register implements stepreg.Module.
func (rec *Recorder) Register(r *stepreg.Registry) {
	for _, name := range rec.Names {
		name := name
		r.Register(name, &stepreg.Handler{
			Fn: func(ctx context.Context, sc *stepreg.StepContext, input any) error {
				rec.mu.Lock()
				rec.invocations = append(rec.invocations, Invocation{
					Handler: name,
					Runtime: sc.Spec.Runtime,
					OS:      sc.Spec.OS,
				})
				rec.mu.Unlock()
				if rec.Fail[name] {
					return errFail
				}
				return nil
			},
		})
	}
}

// Invocations returns a copy of the recorded invocations.
func (rec *Recorder) Invocations() []Invocation {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]Invocation, len(rec.invocations))
	copy(out, rec.invocations)
	return out
}

// Count returns how many times the named handler ran.
func (rec *Recorder) Count(handler string) int {
	n := 0
	for _, inv := range rec.Invocations() {
		if inv.Handler == handler {
			n++
		}
	}
	return n
}

type failError struct{}

func (failError) Error() string { return "handler failed as instructed" }

var errFail = failError{}
