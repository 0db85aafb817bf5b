package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnviron(t *testing.T) {
	store := fromEnviron([]string{
		"PATH=/usr/bin",
		"CONVEYOR_SECRET_INDEX_TOKEN=hunter2",
		"CONVEYOR_SECRET_COVERAGE_TOKEN=abc123",
		"CONVEYOR_SECRET_=ignored",
		"MALFORMED",
	})

	assert.Len(t, store, 2)
	assert.Equal(t, "hunter2", store["index_token"])
	assert.Equal(t, "abc123", store["coverage_token"])
	assert.NotContains(t, store, "path")
}

func TestFromEnv_Smoke(t *testing.T) {
	t.Setenv("CONVEYOR_SECRET_SMOKE", "ok")
	assert.Equal(t, "ok", FromEnv()["smoke"])
}
