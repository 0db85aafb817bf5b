// Package hclload discovers and parses pipeline HCL files and translates
// them into the format-agnostic model.
package hclload

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/fsutil"
	"github.com/conveyor-ci/conveyor/internal/model"
	"github.com/conveyor-ci/conveyor/internal/schema"
)

// Load finds all .hcl files under pipelinePath (a single file or a
// directory) and returns the one pipeline they define. Multiple pipeline
// blocks across the file set are rejected: a run executes exactly one
// pipeline.
func Load(ctx context.Context, pipelinePath string) (*model.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading pipeline from path", "path", pipelinePath)

	files, err := fsutil.FindFilesByExtension(pipelinePath, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find pipeline files in %s: %w", pipelinePath, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl pipeline files found in %s", pipelinePath)
	}

	parser := hclparse.NewParser()
	var pipeline *model.Pipeline
	for _, file := range files {
		parsed, err := parseFile(file, parser)
		if err != nil {
			return nil, err
		}
		for _, raw := range parsed.Pipelines {
			if pipeline != nil {
				return nil, fmt.Errorf("multiple pipeline blocks found: %q in %s and %q in %s",
					pipeline.Name, pipeline.Source, raw.Name, file)
			}
			pipeline, err = translate(raw, file)
			if err != nil {
				return nil, err
			}
		}
	}

	if pipeline == nil {
		return nil, fmt.Errorf("no pipeline block found in %s", pipelinePath)
	}

	logger.Debug("Pipeline loaded.", "name", pipeline.Name, "jobs", len(pipeline.Jobs))
	return pipeline, nil
}

// parseFile parses a single HCL file into the raw schema structures.
func parseFile(filePath string, parser *hclparse.Parser) (*schema.File, error) {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}

	var parsed schema.File
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}
	return &parsed, nil
}
