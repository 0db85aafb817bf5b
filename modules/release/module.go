// Package release publishes the distribution artifacts to a package index,
// and optionally mirrors them to an S3-compatible artifact store. It only
// ever runs inside the publish phase, behind the release gate.
package release

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
	"github.com/conveyor-ci/conveyor/internal/objectstore"
	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

// Module implements the stepreg.Module interface for this package.
type Module struct{}

// httpClient is shared across uploads to reuse TCP connections.
var httpClient = &http.Client{Timeout: 120 * time.Second}

// StoreInput configures the optional artifact store mirror.
type StoreInput struct {
	Endpoint  string `hcl:"endpoint"`
	Bucket    string `hcl:"bucket"`
	AccessKey string `hcl:"access_key"`
	SecretKey string `hcl:"secret_key"`
	Region    string `hcl:"region,optional"`
	UseSSL    bool   `hcl:"use_ssl,optional"`
	Prefix    string `hcl:"prefix,optional"`
}

// Input defines the arguments for the 'with' block.
type Input struct {
	// RepositoryURL is the package index upload endpoint.
	RepositoryURL string `hcl:"repository_url"`

	// Username and Password are the index credentials, sourced from
	// secrets.
	Username string `hcl:"username"`
	Password string `hcl:"password"`

	// Dir is the artifact directory relative to the workspace. Defaults to
	// "dist".
	Dir string `hcl:"dir,optional"`

	// Store mirrors the artifacts to an S3-compatible bucket when present.
	Store *StoreInput `hcl:"store,block"`
}

// Register registers the release handler with the registry.
func (m *Module) Register(r *stepreg.Registry) {
	r.Register("release", &stepreg.Handler{
		NewInput: func() any { return new(Input) },
		Fn:       run,
	})
}

func run(ctx context.Context, sc *stepreg.StepContext, input any) error {
	in, ok := input.(*Input)
	if !ok || in.RepositoryURL == "" {
		return fmt.Errorf("release step requires repository_url")
	}
	if in.Username == "" || in.Password == "" {
		return fmt.Errorf("release step requires username and password")
	}

	dir := in.Dir
	if dir == "" {
		dir = "dist"
	}
	distDir := filepath.Join(sc.Workspace, dir)

	files, err := listArtifacts(distDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no artifacts found in %s", dir)
	}

	logger := ctxlog.FromContext(ctx).With("step", "release")

	for _, file := range files {
		if err := uploadArtifact(ctx, in, file); err != nil {
			return err
		}
		logger.Info("Artifact published.", "file", filepath.Base(file))
		fmt.Fprintf(sc.Stdout, "published %s\n", filepath.Base(file))
	}

	if in.Store != nil {
		if err := mirrorArtifacts(ctx, in.Store, sc.RunID, files); err != nil {
			return fmt.Errorf("failed to mirror artifacts: %w", err)
		}
		logger.Info("Artifacts mirrored to object store.", "bucket", in.Store.Bucket, "count", len(files))
	}

	return nil
}

// listArtifacts returns the regular files of the artifact directory in
// lexical order.
func listArtifacts(distDir string) ([]string, error) {
	entries, err := os.ReadDir(distDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact directory %s: %w", distDir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(distDir, entry.Name()))
		}
	}
	return files, nil
}

func uploadArtifact(ctx context.Context, in *Input, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", filePath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("content", filepath.Base(filePath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read artifact %s: %w", filePath, err)
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, in.RepositoryURL, &body)
	if err != nil {
		return fmt.Errorf("failed to create publish request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.SetBasicAuth(in.Username, in.Password)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("publish of %s failed: %w", filepath.Base(filePath), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("package index returned %s for %s: %s", resp.Status, filepath.Base(filePath), snippet)
	}
	return nil
}

func mirrorArtifacts(ctx context.Context, store *StoreInput, runID string, files []string) error {
	cfg := objectstore.Config{
		Endpoint:  store.Endpoint,
		AccessKey: store.AccessKey,
		SecretKey: store.SecretKey,
		Bucket:    store.Bucket,
		Region:    store.Region,
		UseSSL:    store.UseSSL,
	}

	client, err := objectstore.NewClient(cfg)
	if err != nil {
		return err
	}
	if err := objectstore.EnsureBucket(ctx, client, cfg); err != nil {
		return err
	}

	prefix := store.Prefix
	if prefix == "" {
		prefix = runID
	}
	for _, file := range files {
		if _, err := objectstore.UploadFile(ctx, client, cfg, prefix, file); err != nil {
			return err
		}
	}
	return nil
}
