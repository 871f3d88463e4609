package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mnbizdata/filings-crawler/internal/registry"
)

const searchTemplate = "https://records.example.org/search?number=%d"

func validConfig() Config {
	cfg := Config{}
	cfg.Crawler.StartID = 1
	cfg.Crawler.EndID = 800000
	cfg.Crawler.Workers = 8
	cfg.Crawler.MaxConsecutiveMisses = 100
	cfg.Crawler.SearchURLTemplate = searchTemplate
	cfg.Checkpoint.Backend = CheckpointBackendFile
	cfg.Checkpoint.Dir = "data/checkpoints"
	return cfg
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"crawler:\n  search_url_template: \""+searchTemplate+"\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, int64(1), cfg.Crawler.StartID)
	require.Equal(t, int64(800000), cfg.Crawler.EndID)
	require.Equal(t, 8, cfg.Crawler.Workers)
	require.Equal(t, 100, cfg.Crawler.MaxConsecutiveMisses)
	require.False(t, cfg.Crawler.MismatchCountsTowardAbort)
	require.True(t, cfg.Crawler.Resume)
	require.Equal(t, 1500*time.Millisecond, cfg.Crawler.BaseDelay())
	require.Equal(t, 500*time.Millisecond, cfg.Crawler.DelayJitter())
	require.Equal(t, 30*time.Second, cfg.Crawler.FetchTimeout())
	require.Equal(t, 3, cfg.Retry.MaxAttempts)
	require.Equal(t, CheckpointBackendFile, cfg.Checkpoint.Backend)
	require.False(t, cfg.Metrics.Enabled)
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`crawler:
  search_url_template: "`+searchTemplate+`"
  start_id: 5000
  end_id: 6000
  workers: 2
  base_delay_ms: 100
checkpoint:
  backend: postgres
  dsn: postgres://crawler@localhost/crawler
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(5000), cfg.Crawler.StartID)
	require.Equal(t, int64(6000), cfg.Crawler.EndID)
	require.Equal(t, 2, cfg.Crawler.Workers)
	require.Equal(t, 100*time.Millisecond, cfg.Crawler.BaseDelay())
	require.Equal(t, CheckpointBackendPostgres, cfg.Checkpoint.Backend)
}

func TestLoadFailsOnMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, registry.ErrConfig)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero start", func(c *Config) { c.Crawler.StartID = 0 }},
		{"end before start", func(c *Config) { c.Crawler.EndID = 0 }},
		{"zero workers", func(c *Config) { c.Crawler.Workers = 0 }},
		{"zero miss limit", func(c *Config) { c.Crawler.MaxConsecutiveMisses = 0 }},
		{"missing search url", func(c *Config) { c.Crawler.SearchURLTemplate = "" }},
		{"search url without verb", func(c *Config) { c.Crawler.SearchURLTemplate = "https://x.test/search" }},
		{"unknown backend", func(c *Config) { c.Checkpoint.Backend = "redis" }},
		{"file backend without dir", func(c *Config) { c.Checkpoint.Dir = "" }},
		{"postgres backend without dsn", func(c *Config) {
			c.Checkpoint.Backend = CheckpointBackendPostgres
			c.Checkpoint.DSN = ""
		}},
		{"metrics enabled without port", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = 0
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), registry.ErrConfig)
		})
	}
}
