package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.DebugMode)
	assert.Equal(t, 0, cfg.IntrospectPort)
	assert.Equal(t, 4, cfg.Queue.WorkerCount)
	assert.False(t, cfg.Queue.Splittable)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("FLAME2_DEBUG_MODE", "true")
	t.Setenv("FLAME2_WORKER_COUNT", "16")
	t.Setenv("FLAME2_SPLITTABLE", "true")
	t.Setenv("FLAME2_MIN_VECTOR_SIZE", "50")
	t.Setenv("FLAME2_MAX_TASKS_PER_SPLIT", "8")
	t.Setenv("FLAME2_INTROSPECT_PORT", "9191")

	cfg := LoadFromEnv()
	assert.True(t, cfg.DebugMode)
	assert.Equal(t, 16, cfg.Queue.WorkerCount)
	assert.True(t, cfg.Queue.Splittable)
	assert.Equal(t, 50, cfg.Queue.MinVectorSize)
	assert.Equal(t, 8, cfg.Queue.MaxTasksPerSplit)
	assert.Equal(t, 9191, cfg.IntrospectPort)
}

func TestLoadFromEnvInvalidValueFallsBackToDefault(t *testing.T) {
	t.Setenv("FLAME2_WORKER_COUNT", "not-a-number")
	cfg := LoadFromEnv()
	assert.Equal(t, Default().Queue.WorkerCount, cfg.Queue.WorkerCount)
}
