// Package config loads application configuration from environment
// variables, with optional overrides from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration for the API server and CLI.
type Config struct {
	// Port is the HTTP listen port for the API server.
	Port int

	// DBPath is the SQLite database file for budgets and expenses.
	DBPath string

	// CategoriesPath optionally points at a YAML file with user-defined
	// category keyword extensions. Empty means built-in categories only.
	CategoriesPath string

	// MaxUploadBytes caps the size of uploaded statement files.
	MaxUploadBytes int
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present; a custom path can be
// given to load a specific file instead.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", envPath[0], err)
		}
	} else {
		// Missing .env is fine; plain env vars still apply.
		_ = godotenv.Load()
	}

	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("config: invalid PORT: %w", err)
	}

	maxUpload, err := intEnv("MAX_UPLOAD_BYTES", 16<<20)
	if err != nil {
		return nil, fmt.Errorf("config: invalid MAX_UPLOAD_BYTES: %w", err)
	}

	return &Config{
		Port:           port,
		DBPath:         stringEnv("DB_PATH", "budgetlens.db"),
		CategoriesPath: os.Getenv("CATEGORIES_PATH"),
		MaxUploadBytes: maxUpload,
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return n, nil
}
