// Package config loads scheduler tuning from the environment, with a
// built-in default for every field, optionally overridden by a .env
// file loaded via godotenv before os.Getenv is consulted.
package config

import (
	"log/slog"
	"os"
	"strconv"
)

// QueueConfig controls one scheduler queue's worker pool and, for a
// splitting queue, its row-splitting tuning.
type QueueConfig struct {
	// WorkerCount is the number of worker goroutines serving this queue.
	WorkerCount int

	// Splittable marks every task kind routed to this queue as eligible
	// for row-range splitting.
	Splittable bool

	// MinVectorSize is the minimum row count a split subtask may carry.
	MinVectorSize int

	// MaxTasksPerSplit caps how many subtasks one split may produce.
	MaxTasksPerSplit int
}

// RuntimeConfig is the top-level scheduler tuning loaded from the
// environment.
type RuntimeConfig struct {
	// DebugMode enables memory.AgentMemory's internal-consistency checks.
	DebugMode bool

	// IntrospectPort is the HTTP port pkg/introspect listens on; 0
	// disables the introspection server entirely.
	IntrospectPort int

	Queue QueueConfig
}

// Default returns the built-in configuration: a single 4-worker,
// non-splitting queue, debug mode off, introspection disabled.
func Default() *RuntimeConfig {
	return &RuntimeConfig{
		DebugMode:      false,
		IntrospectPort: 0,
		Queue: QueueConfig{
			WorkerCount:      4,
			Splittable:       false,
			MinVectorSize:    1,
			MaxTasksPerSplit: 1,
		},
	}
}

// LoadFromEnv starts from Default and overrides each field present in
// the environment. Malformed values are logged and ignored, falling
// back to the default rather than aborting startup.
func LoadFromEnv() *RuntimeConfig {
	cfg := Default()

	if v, ok := lookupBool("FLAME2_DEBUG_MODE"); ok {
		cfg.DebugMode = v
	}
	if v, ok := lookupInt("FLAME2_INTROSPECT_PORT"); ok {
		cfg.IntrospectPort = v
	}
	if v, ok := lookupInt("FLAME2_WORKER_COUNT"); ok {
		cfg.Queue.WorkerCount = v
	}
	if v, ok := lookupBool("FLAME2_SPLITTABLE"); ok {
		cfg.Queue.Splittable = v
	}
	if v, ok := lookupInt("FLAME2_MIN_VECTOR_SIZE"); ok {
		cfg.Queue.MinVectorSize = v
	}
	if v, ok := lookupInt("FLAME2_MAX_TASKS_PER_SPLIT"); ok {
		cfg.Queue.MaxTasksPerSplit = v
	}

	return cfg
}

func lookupInt(key string) (int, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer environment value, using default", "key", key, "value", raw)
		return 0, false
	}
	return v, true
}

func lookupBool(key string) (bool, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid boolean environment value, using default", "key", key, "value", raw)
		return false, false
	}
	return v, true
}
