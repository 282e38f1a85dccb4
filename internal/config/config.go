// Package config содержит логику чтения конфигурации витрины.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Значения по умолчанию.
const (
	DefaultRunAddress = "localhost:8080"
	DefaultAPIBaseURL = "http://localhost:4000/api"
	DefaultStorageDir = ".novastore"
	DefaultAPITimeout = 10 * time.Second
)

// Config содержит параметры конфигурации витрины.
type Config struct {
	RunAddress   string        `env:"RUN_ADDRESS"`
	APIBaseURL   string        `env:"API_BASE_URL"`
	StorageDir   string        `env:"STORAGE_DIR"`
	DatabaseURI  string        `env:"DATABASE_URI"`
	RedisAddress string        `env:"REDIS_ADDRESS"`
	APITimeout   time.Duration `env:"API_TIMEOUT"`
}

// Parse считывает конфигурацию из флагов командной строки, файла .env и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", DefaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.APIBaseURL, "r", DefaultAPIBaseURL, "storefront API base URL")
	flag.StringVar(&cfg.StorageDir, "s", DefaultStorageDir, "directory for local state files")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for local state")
	flag.StringVar(&cfg.RedisAddress, "k", "", "redis address for local state")
	flag.DurationVar(&cfg.APITimeout, "t", DefaultAPITimeout, "storefront API request timeout")

	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = DefaultRunAddress
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = DefaultStorageDir
	}
	if cfg.APITimeout <= 0 {
		cfg.APITimeout = DefaultAPITimeout
	}

	return cfg, nil
}
