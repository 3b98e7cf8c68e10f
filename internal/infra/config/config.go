// Package config provides application-wide configuration loaded from env
// vars. All fields have safe defaults so the binaries run locally without
// any env setup. JWT_SECRET is the one exception: pkg/auth reads it directly
// and refuses to run without it.
package config

import "os"

// Config holds runtime configuration for the zof daemon.
type Config struct {
	// Addr is the HTTP listen address. ZOF_ADDR — default: ":8080".
	Addr string
	// DBPath is the SQLite database file. ZOF_DB_PATH — default: "zof.db".
	DBPath string
}

const (
	envKeyAddr   = "ZOF_ADDR"
	envKeyDBPath = "ZOF_DB_PATH"
)

// Load reads configuration from environment variables, applying defaults
// for missing values.
func Load() Config {
	return Config{
		Addr:   envOr(envKeyAddr, ":8080"),
		DBPath: envOr(envKeyDBPath, "zof.db"),
	}
}

// envOr returns the value of the environment variable key, or fallback if
// not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
