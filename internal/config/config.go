package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Scraper configures the HTML data source and its HTTP client.
type Scraper struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
	RequestDelayMs int    `yaml:"request_delay_ms"`
	JitterMs       int    `yaml:"jitter_ms"`
	MaxRetries     int    `yaml:"max_retries"`
	UserAgent      string `yaml:"user_agent"`
}

// Config holds all application configuration. It is loaded once and
// passed into constructors; components never read ambient state.
type Config struct {
	Scraper Scraper `yaml:"scraper"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Pipeline struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"pipeline"`
	Schedule struct {
		UpdateCron string `yaml:"update_cron"`
	} `yaml:"schedule"`
	Data struct {
		Dir string `yaml:"dir"`
	} `yaml:"data"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides, then defaults. A missing file is fine: defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("NGX_BASE_URL"); v != "" {
		cfg.Scraper.BaseURL = v
	}
	if v := os.Getenv("NGX_USER_AGENT"); v != "" {
		cfg.Scraper.UserAgent = v
	}
	if v := os.Getenv("NGX_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("NGX_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("NGX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.Concurrency = n
		}
	}
	if v := os.Getenv("NGX_UPDATE_CRON"); v != "" {
		cfg.Schedule.UpdateCron = v
	}

	// Defaults
	if cfg.Scraper.BaseURL == "" {
		cfg.Scraper.BaseURL = "https://afx.kwayisi.org/ngx"
	}
	if cfg.Scraper.TimeoutSecs == 0 {
		cfg.Scraper.TimeoutSecs = 30
	}
	if cfg.Scraper.RequestDelayMs == 0 {
		cfg.Scraper.RequestDelayMs = 1500
	}
	if cfg.Scraper.JitterMs == 0 {
		cfg.Scraper.JitterMs = 500
	}
	if cfg.Scraper.MaxRetries == 0 {
		cfg.Scraper.MaxRetries = 3
	}
	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = "market-ingest/0.1 (research project)"
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = "data/ngx.db"
	}
	if cfg.Pipeline.Concurrency == 0 {
		cfg.Pipeline.Concurrency = 3
	}
	if cfg.Schedule.UpdateCron == "" {
		cfg.Schedule.UpdateCron = "0 0 18 * * 1-5"
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}

	return cfg, nil
}

// Validate checks that all required fields are usable.
func (c *Config) Validate() error {
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url is required")
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be positive")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	return nil
}
