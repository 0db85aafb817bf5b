package release_gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conveyor-ci/conveyor/internal/app"
	"github.com/conveyor-ci/conveyor/internal/testutil"
)

const pipelineHCL = `
pipeline "release" {
  on {
    push {
      branches = ["master"]
      tags     = true
    }
  }

  matrix {
    runtime = ["3.8", "3.9"]
    os      = ["ubuntu-22.04"]
  }

  job "test" {
    step "unit" {
      uses = "unit"
    }
  }

  publish {
    needs = ["test"]
    when  = event.is_tag

    step "pub" {
      uses = "pub"
    }
  }
}
`

func run(t *testing.T, ref string, fail map[string]bool) (*testutil.Recorder, *testutil.HarnessResult) {
	t.Helper()
	rec := &testutil.Recorder{Names: []string{"unit", "pub"}, Fail: fail}
	result := testutil.RunPipeline(t,
		map[string]string{"pipeline.hcl": pipelineHCL},
		app.Config{EventName: "push", EventRef: ref},
		rec,
	)
	return rec, result
}

func TestTagPush_PublishRunsAfterAllJobs(t *testing.T) {
	rec, result := run(t, "refs/tags/v1.2.3", nil)
	require.NoError(t, result.Err)

	assert.Equal(t, 2, rec.Count("unit"))
	assert.Equal(t, 1, rec.Count("pub"))

	// Publish is the final invocation of the run.
	invs := rec.Invocations()
	require.NotEmpty(t, invs)
	assert.Equal(t, "pub", invs[len(invs)-1].Handler)
}

func TestBranchPush_GateStaysClosed(t *testing.T) {
	rec, result := run(t, "refs/heads/master", nil)
	require.NoError(t, result.Err)

	assert.Equal(t, 2, rec.Count("unit"))
	assert.Equal(t, 0, rec.Count("pub"))
	assert.Contains(t, result.LogOutput, "release gate is closed")
}

func TestTagPush_FailedJobBlocksPublish(t *testing.T) {
	rec, result := run(t, "refs/tags/v1.2.3", map[string]bool{"unit": true})
	require.Error(t, result.Err)

	assert.Equal(t, 0, rec.Count("pub"))
	assert.Contains(t, result.LogOutput, "not all required jobs succeeded")
}
