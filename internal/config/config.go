// Package config loads daemon configuration from an optional YAML file with
// environment-variable overrides. Every field has a usable default so the
// daemon starts with no config at all.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jchang/syncdesk/internal/errors"
)

// Config is the daemon configuration.
type Config struct {
	DataDir    string `yaml:"data_dir"`
	QuotaBytes int64  `yaml:"quota_bytes"`
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`

	Sync SyncConfig `yaml:"sync"`
}

// SyncConfig tunes the sync engine and scheduler.
type SyncConfig struct {
	Concurrency   int           `yaml:"concurrency"`
	MaxRetries    int           `yaml:"max_retries"`
	BackoffBase   time.Duration `yaml:"backoff_base"`
	BackoffCap    time.Duration `yaml:"backoff_cap"`
	SyncInterval  time.Duration `yaml:"sync_interval"`
	StatsInterval time.Duration `yaml:"stats_interval"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
	UploadTimeout  time.Duration `yaml:"upload_timeout"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir:    filepath.Join(home, ".syncdesk"),
		QuotaBytes: 0,
		ListenAddr: "127.0.0.1:8470",
		LogLevel:   "info",
		Sync: SyncConfig{
			Concurrency:    4,
			MaxRetries:     3,
			BackoffBase:    30 * time.Second,
			BackoffCap:     time.Hour,
			SyncInterval:   5 * time.Minute,
			StatsInterval:  30 * time.Second,
			RequestTimeout: 10 * time.Second,
			UploadTimeout:  60 * time.Second,
		},
	}
}

// Load reads the YAML file at path (skipped when empty or missing) and then
// applies SYNCDESK_* environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrInvalid, "failed to read config file", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(errors.ErrInvalid, "failed to parse config file", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SYNCDESK_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("SYNCDESK_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("SYNCDESK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SYNCDESK_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("SYNCDESK_QUOTA_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.QuotaBytes = n
		}
	}
	if v := os.Getenv("SYNCDESK_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Sync.SyncInterval = d
		}
	}
	if v := os.Getenv("SYNCDESK_SYNC_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Sync.Concurrency = n
		}
	}
}
