package app

import (
	"context"
	"fmt"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/event"
	"github.com/conveyor-ci/conveyor/internal/executor"
	"github.com/conveyor-ci/conveyor/internal/notify"
	"github.com/conveyor-ci/conveyor/internal/plan"
	"github.com/conveyor-ci/conveyor/internal/secrets"
)

// Run executes one pipeline run for the configured trigger event.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	ev, err := a.resolveEvent()
	if err != nil {
		return err
	}

	runPlan, err := plan.Build(ctx, a.pipeline, ev)
	if err != nil {
		return fmt.Errorf("failed to build run plan: %w", err)
	}

	if !runPlan.Matched {
		a.logger.Info("Event does not match pipeline triggers, nothing to run.",
			"pipeline", a.pipeline.Name, "event", ev.Name, "ref", ev.Ref)
		return nil
	}

	notifier, err := a.newNotifier(ctx)
	if err != nil {
		return err
	}
	defer notifier.Close()

	a.logger.Info("🚀 Starting run",
		"pipeline", a.pipeline.Name, "run_id", runPlan.RunID, "jobs", len(runPlan.Jobs))

	exec := executor.New(runPlan, a.registry, secrets.FromEnv(), notifier, a.config.WorkerCount, a.outW)
	result, err := exec.Run(ctx)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	result.WriteSummary(a.outW)
	a.logger.Info("🏁 Run finished.")

	if result.Failed() {
		return fmt.Errorf("run failed")
	}
	return nil
}

// resolveEvent builds the trigger event from flags, or loads the YAML
// payload when one is configured. The payload file takes precedence.
func (a *App) resolveEvent() (event.Event, error) {
	if a.config.EventFile != "" {
		return event.LoadFile(a.config.EventFile)
	}
	ev := event.Event{
		Name: a.config.EventName,
		Ref:  a.config.EventRef,
		Base: a.config.EventBase,
	}
	if err := ev.Validate(); err != nil {
		return event.Event{}, err
	}
	return ev, nil
}

func (a *App) newNotifier(ctx context.Context) (notify.Notifier, error) {
	if a.config.NotifyURL == "" {
		return notify.Nop{}, nil
	}
	notifier, err := notify.NewSocket(ctx, a.config.NotifyURL, "/")
	if err != nil {
		return nil, fmt.Errorf("failed to configure status stream: %w", err)
	}
	return notifier, nil
}
