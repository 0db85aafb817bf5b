package release

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

type indexUpload struct {
	fileName string
	body     string
	user     string
	pass     string
}

type fakeIndex struct {
	mu      sync.Mutex
	status  int
	uploads []indexUpload
}

func (idx *fakeIndex) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("content")
		require.NoError(t, err)
		defer file.Close()
		content, err := io.ReadAll(file)
		require.NoError(t, err)

		idx.mu.Lock()
		idx.uploads = append(idx.uploads, indexUpload{
			fileName: header.Filename,
			body:     string(content),
			user:     user,
			pass:     pass,
		})
		idx.mu.Unlock()
		w.WriteHeader(idx.status)
	}
}

func workspaceWithDist(t *testing.T, artifacts map[string]string) string {
	t.Helper()
	workspace := t.TempDir()
	distDir := filepath.Join(workspace, "dist")
	require.NoError(t, os.MkdirAll(distDir, 0o755))
	for name, content := range artifacts {
		require.NoError(t, os.WriteFile(filepath.Join(distDir, name), []byte(content), 0o644))
	}
	return workspace
}

func TestRun_PublishesEveryArtifactWithBasicAuth(t *testing.T) {
	idx := &fakeIndex{status: http.StatusCreated}
	server := httptest.NewServer(idx.handler(t))
	defer server.Close()

	workspace := workspaceWithDist(t, map[string]string{
		"demo-1.2.3.tar.gz": "sdist-bytes",
		"demo-1.2.3.zip":    "bdist-bytes",
	})

	sc := &stepreg.StepContext{Workspace: workspace, RunID: "run-1", Stdout: io.Discard, Stderr: io.Discard}
	err := run(context.Background(), sc, &Input{
		RepositoryURL: server.URL,
		Username:      "__token__",
		Password:      "pypi-secret",
	})
	require.NoError(t, err)

	require.Len(t, idx.uploads, 2)
	names := []string{idx.uploads[0].fileName, idx.uploads[1].fileName}
	assert.ElementsMatch(t, []string{"demo-1.2.3.tar.gz", "demo-1.2.3.zip"}, names)
	for _, up := range idx.uploads {
		assert.Equal(t, "__token__", up.user)
		assert.Equal(t, "pypi-secret", up.pass)
	}
}

func TestRun_IndexRejectionFailsStep(t *testing.T) {
	idx := &fakeIndex{status: http.StatusForbidden}
	server := httptest.NewServer(idx.handler(t))
	defer server.Close()

	workspace := workspaceWithDist(t, map[string]string{"demo-1.2.3.tar.gz": "x"})
	sc := &stepreg.StepContext{Workspace: workspace, Stdout: io.Discard, Stderr: io.Discard}

	err := run(context.Background(), sc, &Input{
		RepositoryURL: server.URL,
		Username:      "u",
		Password:      "p",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestRun_EmptyDistFails(t *testing.T) {
	workspace := workspaceWithDist(t, nil)
	sc := &stepreg.StepContext{Workspace: workspace, Stdout: io.Discard, Stderr: io.Discard}

	err := run(context.Background(), sc, &Input{
		RepositoryURL: "http://localhost:1",
		Username:      "u",
		Password:      "p",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no artifacts")
}

func TestRun_RequiresCredentials(t *testing.T) {
	sc := &stepreg.StepContext{Workspace: t.TempDir(), Stdout: io.Discard, Stderr: io.Discard}
	err := run(context.Background(), sc, &Input{RepositoryURL: "http://localhost:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
}
