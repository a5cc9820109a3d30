// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"dmhmr/internal/config"
	"dmhmr/internal/queue"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfg.Paths.BackupDir = filepath.Join(base, "backups")
	cfg.Paths.TemplatesDir = filepath.Join(base, "templates")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.DMH.BaseURL = "http://127.0.0.1:0"
	cfg.DMH.Username = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithDMHEndpoint points the config at a test server.
func WithDMHEndpoint(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.DMH.BaseURL = baseURL
	}
}

// WithConversionRates sets the currency rate table on the test config.
func WithConversionRates(rates map[string]float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Records.ConversionRates = rates
	}
}

// MustOpenStore opens a queue store under the config's log directory and
// closes it when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open queue store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
