package executor

import (
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/conveyor-ci/conveyor/internal/matrix"
)

// evalContext builds the evaluation context for step expressions. The
// matrix variable is only present for matrix jobs; publish-phase steps
// evaluate without it.
func (e *Executor) evalContext(spec *matrix.Entry, workspace string) *hcl.EvalContext {
	ev := e.plan.Event

	vars := map[string]cty.Value{
		"event": cty.ObjectVal(map[string]cty.Value{
			"name":   cty.StringVal(ev.Name),
			"ref":    cty.StringVal(ev.Ref),
			"branch": cty.StringVal(ev.Branch()),
			"tag":    cty.StringVal(ev.Tag()),
			"is_tag": cty.BoolVal(ev.IsTag()),
		}),
		"secrets": secretsValue(e.secrets),
		"run": cty.ObjectVal(map[string]cty.Value{
			"id":        cty.StringVal(e.plan.RunID),
			"workspace": cty.StringVal(workspace),
		}),
	}

	if spec != nil {
		vars["matrix"] = cty.ObjectVal(map[string]cty.Value{
			"runtime": cty.StringVal(spec.Runtime),
			"os":      cty.StringVal(spec.OS),
		})
	}

	return &hcl.EvalContext{Variables: vars}
}

func secretsValue(store map[string]string) cty.Value {
	if len(store) == 0 {
		return cty.EmptyObjectVal
	}
	values := make(map[string]cty.Value, len(store))
	for name, value := range store {
		values[name] = cty.StringVal(value)
	}
	return cty.ObjectVal(values)
}

// environMap captures the process environment as a map, the base for each
// job's environment.
func environMap() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[name] = value
	}
	return env
}
