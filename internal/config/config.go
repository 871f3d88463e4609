// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mnbizdata/filings-crawler/internal/registry"
)

// Checkpoint backends.
const (
	CheckpointBackendFile     = "file"
	CheckpointBackendPostgres = "postgres"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler    CrawlerConfig    `mapstructure:"crawler"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Output     OutputConfig     `mapstructure:"output"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// CrawlerConfig governs the id range, sharding and pacing of a crawl run.
type CrawlerConfig struct {
	StartID                   int64  `mapstructure:"start_id"`
	EndID                     int64  `mapstructure:"end_id"`
	Workers                   int    `mapstructure:"workers"`
	MaxConsecutiveMisses      int    `mapstructure:"max_consecutive_misses"`
	MismatchCountsTowardAbort bool   `mapstructure:"mismatch_counts_toward_abort"`
	Resume                    bool   `mapstructure:"resume"`
	BaseDelayMs               int    `mapstructure:"base_delay_ms"`
	DelayJitterMs             int    `mapstructure:"delay_jitter_ms"`
	FetchTimeoutSeconds       int    `mapstructure:"fetch_timeout_seconds"`
	UserAgent                 string `mapstructure:"user_agent"`
	SearchURLTemplate         string `mapstructure:"search_url_template"`
}

// RetryConfig controls transient-failure retry behavior.
type RetryConfig struct {
	MaxAttempts      int `mapstructure:"max_attempts"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// OutputConfig sets where datasets and archived payloads land.
type OutputConfig struct {
	Dir        string `mapstructure:"dir"`
	ArchiveDir string `mapstructure:"archive_dir"`
}

// CheckpointConfig selects and configures the checkpoint backend.
type CheckpointConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	DSN     string `mapstructure:"dsn"`
}

// MetricsConfig controls the metrics/health endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MNBIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: read config: %v", registry.ErrConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: unmarshal config: %v", registry.ErrConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.start_id", 1)
	v.SetDefault("crawler.end_id", 800000)
	v.SetDefault("crawler.workers", 8)
	v.SetDefault("crawler.max_consecutive_misses", 100)
	v.SetDefault("crawler.mismatch_counts_toward_abort", false)
	v.SetDefault("crawler.resume", true)
	v.SetDefault("crawler.base_delay_ms", 1500)
	v.SetDefault("crawler.delay_jitter_ms", 500)
	v.SetDefault("crawler.fetch_timeout_seconds", 30)
	v.SetDefault("crawler.user_agent", "mnbizdata-crawler/1.0 (+https://github.com/mnbizdata/filings-crawler)")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.backoff_initial_ms", 250)
	v.SetDefault("retry.backoff_max_ms", 5000)
	v.SetDefault("output.dir", "data/output")
	v.SetDefault("output.archive_dir", "data/archive")
	v.SetDefault("checkpoint.backend", CheckpointBackendFile)
	v.SetDefault("checkpoint.dir", "data/checkpoints")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.StartID <= 0 {
		return fmt.Errorf("%w: crawler.start_id must be > 0", registry.ErrConfig)
	}
	if c.Crawler.EndID < c.Crawler.StartID {
		return fmt.Errorf("%w: crawler.end_id must be >= crawler.start_id", registry.ErrConfig)
	}
	if c.Crawler.Workers <= 0 {
		return fmt.Errorf("%w: crawler.workers must be > 0", registry.ErrConfig)
	}
	if c.Crawler.MaxConsecutiveMisses <= 0 {
		return fmt.Errorf("%w: crawler.max_consecutive_misses must be > 0", registry.ErrConfig)
	}
	if c.Crawler.SearchURLTemplate == "" {
		return fmt.Errorf("%w: crawler.search_url_template is required", registry.ErrConfig)
	}
	if !strings.Contains(c.Crawler.SearchURLTemplate, "%d") {
		return fmt.Errorf("%w: crawler.search_url_template must contain a %%d verb", registry.ErrConfig)
	}
	switch c.Checkpoint.Backend {
	case CheckpointBackendFile:
		if c.Checkpoint.Dir == "" {
			return fmt.Errorf("%w: checkpoint.dir is required for the file backend", registry.ErrConfig)
		}
	case CheckpointBackendPostgres:
		if c.Checkpoint.DSN == "" {
			return fmt.Errorf("%w: checkpoint.dsn is required for the postgres backend", registry.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown checkpoint.backend %q", registry.ErrConfig, c.Checkpoint.Backend)
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("%w: metrics.port must be > 0 when metrics are enabled", registry.ErrConfig)
	}
	return nil
}

// BaseDelay converts the pacing delay to a duration.
func (c CrawlerConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}

// DelayJitter converts the pacing jitter to a duration.
func (c CrawlerConfig) DelayJitter() time.Duration {
	return time.Duration(c.DelayJitterMs) * time.Millisecond
}

// FetchTimeout converts the per-attempt fetch limit to a duration.
func (c CrawlerConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// BackoffInitial converts the initial retry backoff to a duration.
func (c RetryConfig) BackoffInitial() time.Duration {
	return time.Duration(c.BackoffInitialMs) * time.Millisecond
}

// BackoffMax converts the retry backoff ceiling to a duration.
func (c RetryConfig) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMs) * time.Millisecond
}
