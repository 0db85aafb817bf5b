package error_handling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conveyor-ci/conveyor/internal/app"
	"github.com/conveyor-ci/conveyor/internal/testutil"
)

const independentJobsHCL = `
pipeline "ci" {
  on {
    push {
      branches = ["master"]
    }
  }

  matrix {
    runtime = ["3.7", "3.8", "3.9"]
    os      = ["ubuntu-22.04"]
  }

  job "test" {
    step "flaky" {
      if   = matrix.runtime == "3.7"
      uses = "flaky"
    }

    step "unit" {
      uses = "unit"
    }
  }
}
`

// A failing job must not cancel its matrix siblings.
func TestFailingJob_SiblingsStillRun(t *testing.T) {
	rec := &testutil.Recorder{
		Names: []string{"flaky", "unit"},
		Fail:  map[string]bool{"flaky": true},
	}
	result := testutil.RunPipeline(t,
		map[string]string{"pipeline.hcl": independentJobsHCL},
		app.Config{EventName: "push", EventRef: "refs/heads/master"},
		rec,
	)
	require.Error(t, result.Err)

	// The flaky step only fires on 3.7 and fails that job before its unit
	// step, while the other two jobs run to completion.
	assert.Equal(t, 1, rec.Count("flaky"))
	assert.Equal(t, 2, rec.Count("unit"))
}

const shellFailureHCL = `
pipeline "ci" {
  on {
    push {
      branches = ["master"]
    }
  }

  matrix {
    runtime = ["3.9"]
    os      = ["ubuntu-22.04"]
  }

  job "test" {
    step "boom" {
      run = "exit 3"
    }

    step "unit" {
      uses = "unit"
    }
  }
}
`

func TestShellStepFailure_FailsJobAndStopsLaterSteps(t *testing.T) {
	rec := &testutil.Recorder{Names: []string{"unit"}}
	result := testutil.RunPipeline(t,
		map[string]string{"pipeline.hcl": shellFailureHCL},
		app.Config{EventName: "push", EventRef: "refs/heads/master"},
		rec,
	)
	require.Error(t, result.Err)
	assert.Equal(t, 0, rec.Count("unit"))
	assert.Contains(t, result.LogOutput, "Job failed.")
	assert.Contains(t, result.LogOutput, "boom")
}

const unknownHandlerHCL = `
pipeline "ci" {
  on {
    push {
      branches = ["master"]
    }
  }

  matrix {
    runtime = ["3.9"]
    os      = ["ubuntu-22.04"]
  }

  job "test" {
    step "mystery" {
      uses = "no-such-handler"
    }
  }
}
`

func TestUnknownHandler_FailsTheRun(t *testing.T) {
	result := testutil.RunPipeline(t,
		map[string]string{"pipeline.hcl": unknownHandlerHCL},
		app.Config{EventName: "push", EventRef: "refs/heads/master"},
	)
	require.Error(t, result.Err)
	assert.Contains(t, result.LogOutput, "no-such-handler")
}
