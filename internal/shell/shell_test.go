package shell

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesOutput(t *testing.T) {
	var stdout bytes.Buffer
	err := Run(context.Background(), `echo "hello $NAME"`, Options{
		Dir:    t.TempDir(),
		Env:    map[string]string{"NAME": "world", "PATH": "/usr/bin:/bin"},
		Stdout: &stdout,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", stdout.String())
}

func TestRun_NonZeroExit(t *testing.T) {
	err := Run(context.Background(), "exit 3", Options{Dir: t.TempDir()})
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
}

func TestRun_SyntaxError(t *testing.T) {
	err := Run(context.Background(), "if then fi", Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax")
}

func TestRun_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	err := Run(context.Background(), "pwd", Options{Dir: dir, Stdout: &stdout})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), dir)
}
