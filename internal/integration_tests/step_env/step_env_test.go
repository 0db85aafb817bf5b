package step_env

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conveyor-ci/conveyor/internal/app"
	"github.com/conveyor-ci/conveyor/internal/stepreg"
	"github.com/conveyor-ci/conveyor/internal/testutil"
)

// exporter is a step module whose handler exports a variable into the job
// environment, the way the toolchain handler records a runtime version.
type exporter struct{}

func (exporter) Register(r *stepreg.Registry) {
	r.Register("exporter", &stepreg.Handler{
		Fn: func(ctx context.Context, sc *stepreg.StepContext, input any) error {
			sc.Env["FROM_HANDLER"] = "1"
			return nil
		},
	})
}

// The verify step fails unless STEP_ONLY stayed scoped to the prepare step
// while the handler's export reached the rest of the job.
const pipelineHCL = `
pipeline "ci" {
  on {
    push { branches = ["master"] }
  }

  matrix {
    runtime = ["3.9"]
    os      = ["ubuntu-22.04"]
  }

  job "test" {
    step "prepare" {
      uses = "exporter"
      env = {
        STEP_ONLY = "yes"
      }
    }

    step "verify" {
      run = "test -z \"$STEP_ONLY\" && test \"$FROM_HANDLER\" = \"1\""
    }
  }
}
`

func TestHandlerExportsPropagateButStepEnvStaysScoped(t *testing.T) {
	result := testutil.RunPipeline(t,
		map[string]string{"pipeline.hcl": pipelineHCL},
		app.Config{EventName: "push", EventRef: "refs/heads/master"},
		exporter{},
	)
	require.NoError(t, result.Err)
}
