package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// LoadDotEnvAndConfig loads envPath into the process environment (if
// present) before reading RuntimeConfig, matching cmd/tarsy/main.go's
// "best-effort .env, continue on failure" convention: a missing or
// unreadable .env file is logged, never fatal.
func LoadDotEnvAndConfig(envPath string) *RuntimeConfig {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
		} else {
			slog.Info("loaded environment file", "path", envPath)
		}
	}
	return LoadFromEnv()
}
