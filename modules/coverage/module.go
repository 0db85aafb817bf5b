// Package coverage uploads a job's coverage report to the aggregation
// service. Each upload is tagged with a name derived from the job's matrix
// entry so parallel jobs never collide at the service.
package coverage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

// Module implements the stepreg.Module interface for this package.
type Module struct{}

// httpClient is shared across uploads to reuse TCP connections.
var httpClient = &http.Client{Timeout: 60 * time.Second}

// Input defines the arguments for the 'with' block.
type Input struct {
	// File is the report path, relative to the job workspace.
	File string `hcl:"file"`

	// URL is the upload endpoint of the aggregation service.
	URL string `hcl:"url"`

	// Name distinguishes this upload; defaults to "<os>-<runtime>".
	Name string `hcl:"name,optional"`

	// Token authenticates the upload; usually secrets.coverage_token.
	Token string `hcl:"token,optional"`

	// FailOnError fails the whole job when the upload fails. Defaults to
	// true, matching the strictness of the source pipeline.
	FailOnError *bool `hcl:"fail_on_error,optional"`
}

// Register registers the coverage handler with the registry.
func (m *Module) Register(r *stepreg.Registry) {
	r.Register("coverage", &stepreg.Handler{
		NewInput: func() any { return new(Input) },
		Fn:       run,
	})
}

func run(ctx context.Context, sc *stepreg.StepContext, input any) error {
	in, ok := input.(*Input)
	if !ok || in.File == "" || in.URL == "" {
		return fmt.Errorf("coverage step requires file and url")
	}

	name := in.Name
	if name == "" {
		name = sc.Spec.Label()
	}
	failOnError := in.FailOnError == nil || *in.FailOnError

	logger := ctxlog.FromContext(ctx).With("step", "coverage", "name", name)

	err := upload(ctx, sc, in, name)
	if err == nil {
		logger.Info("Coverage report uploaded.")
		return nil
	}
	if failOnError {
		return err
	}
	logger.Warn("Coverage upload failed, continuing.", "error", err)
	return nil
}

func upload(ctx context.Context, sc *stepreg.StepContext, in *Input, name string) error {
	reportPath := filepath.Join(sc.Workspace, in.File)
	report, err := os.Open(reportPath)
	if err != nil {
		return fmt.Errorf("failed to open coverage report %s: %w", in.File, err)
	}
	defer report.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("name", name); err != nil {
		return err
	}
	if in.Token != "" {
		if err := writer.WriteField("token", in.Token); err != nil {
			return err
		}
	}
	part, err := writer.CreateFormFile("report", filepath.Base(in.File))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, report); err != nil {
		return fmt.Errorf("failed to read coverage report: %w", err)
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, in.URL, &body)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coverage upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("coverage service returned %s: %s", resp.Status, snippet)
	}
	return nil
}
