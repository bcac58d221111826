package models

import "time"

type Config struct {
	API    APIConfig    `yaml:"api"`
	Upload UploadConfig `yaml:"upload"`
	Filter FilterConfig `yaml:"filter"`
	Poll   PollConfig   `yaml:"poll"`
}

// APIConfig identifies the remote RAG server and the account used for
// ingestion. The password may be stored encrypted (ENC[...]) or left empty
// when the system keyring holds it.
type APIConfig struct {
	URL      string `yaml:"url"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// UploadConfig controls pacing and retry behavior for document uploads.
type UploadConfig struct {
	DelayMs       int     `yaml:"delay_ms"`       // Pause between uploads
	RetryAttempts int     `yaml:"retry_attempts"` // Attempts per file on 429
	RetryBackoff  float64 `yaml:"retry_backoff"`  // Backoff multiplier
	Quality       string  `yaml:"quality"`        // "high" or "fast"
}

// FilterConfig controls which files are selected for ingestion.
type FilterConfig struct {
	MaxFileSizeMB  int      `yaml:"max_file_size_mb"`
	IgnorePatterns []string `yaml:"ignore_patterns"` // Extra patterns on top of the defaults
}

// PollConfig controls ingestion-status and knowledge-graph polling.
type PollConfig struct {
	IntervalSeconds  int `yaml:"interval_seconds"`
	TimeoutSeconds   int `yaml:"timeout_seconds"`
	GraphWaitSeconds int `yaml:"graph_wait_seconds"`
}

// Defaults fills in zero-valued fields with working defaults. The retry
// constants follow the documented policy: base 1s, x2 backoff, 3 attempts.
func (c *Config) Defaults() {
	if c.API.URL == "" {
		c.API.URL = "http://localhost:7272"
	}
	if c.Upload.DelayMs == 0 {
		c.Upload.DelayMs = 300
	}
	if c.Upload.RetryAttempts == 0 {
		c.Upload.RetryAttempts = 3
	}
	if c.Upload.RetryBackoff == 0 {
		c.Upload.RetryBackoff = 2.0
	}
	if c.Upload.Quality == "" {
		c.Upload.Quality = "high"
	}
	if c.Filter.MaxFileSizeMB == 0 {
		c.Filter.MaxFileSizeMB = 20
	}
	if c.Poll.IntervalSeconds == 0 {
		c.Poll.IntervalSeconds = 5
	}
	if c.Poll.TimeoutSeconds == 0 {
		c.Poll.TimeoutSeconds = 300
	}
	if c.Poll.GraphWaitSeconds == 0 {
		c.Poll.GraphWaitSeconds = 30
	}
}

// UploadDelay returns the configured inter-upload pause as a duration.
func (c *Config) UploadDelay() time.Duration {
	return time.Duration(c.Upload.DelayMs) * time.Millisecond
}

// MaxFileSizeBytes returns the file size cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Filter.MaxFileSizeMB) * 1024 * 1024
}

// PollInterval returns the status poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalSeconds) * time.Second
}

// PollTimeout returns the overall ingestion wait deadline as a duration.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Poll.TimeoutSeconds) * time.Second
}
