// Package config provides configuration loading and validation for the
// service. Tuning thresholds (usable-source length, chart budget, slide cap)
// deliberately live here rather than as literals inside the pipeline.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/khoward/deck-agent/internal/retry"
)

// Pipeline holds the tuning parameters for a research job. All fields are
// optional in the config file; zero values fall back to defaults.
type Pipeline struct {
	// MaxSources is the default number of web sources per job when the
	// request does not specify one.
	MaxSources int `json:"max_sources,omitempty"`
	// FetchWorkers bounds concurrent source fetches.
	FetchWorkers int `json:"fetch_workers,omitempty"`
	// FetchTimeout is the per-source fetch timeout in seconds.
	FetchTimeoutSec int `json:"fetch_timeout_sec,omitempty"`
	// MinTextLen marks a source FAILED when its extracted text is shorter.
	MinTextLen int `json:"min_text_len,omitempty"`
	// MaxTextLen truncates extracted text beyond this length.
	MaxTextLen int `json:"max_text_len,omitempty"`
	// SummaryBatchSize is the number of sources per LLM summarization call.
	SummaryBatchSize int `json:"summary_batch_size,omitempty"`
	// SimilarityThreshold merges claims whose token similarity is at or
	// above this value (0.0-1.0).
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`
	// MaxCharts bounds how many charts the planner proposes.
	MaxCharts int `json:"max_charts,omitempty"`
	// MaxSlides caps the assembled deck. The assembler never pads to
	// reach it.
	MaxSlides int `json:"max_slides,omitempty"`
	// JobDeadlineSec is the global per-job deadline in seconds.
	JobDeadlineSec int `json:"job_deadline_sec,omitempty"`
	// RetentionSec keeps terminal jobs visible for this many seconds
	// before the sweep removes them.
	RetentionSec int `json:"retention_sec,omitempty"`
	// RetryMaxAttempts and RetryBaseDelayMs configure LLM batch retries.
	RetryMaxAttempts int `json:"retry_max_attempts,omitempty"`
	RetryBaseDelayMs int `json:"retry_base_delay_ms,omitempty"`
}

// Config is the full service configuration.
type Config struct {
	Port      int    `json:"port,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`
	// PublicBaseURL prefixes artifact URLs handed to callers,
	// e.g. "http://localhost:8080".
	PublicBaseURL string `json:"public_base_url,omitempty"`
	// APIKey is the Gemini API key. Usually set via GEMINI_API_KEY.
	APIKey string `json:"api_key,omitempty"`
	// SearchAPIKey and SearchCX enable the Google Custom Search backend.
	// When unset the DuckDuckGo HTML backend is used.
	SearchAPIKey string `json:"search_api_key,omitempty"`
	SearchCX     string `json:"search_cx,omitempty"`

	Pipeline Pipeline `json:"pipeline,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:      8080,
		OutputDir: "outputs",
		Pipeline: Pipeline{
			MaxSources:          5,
			FetchWorkers:        5,
			FetchTimeoutSec:     30,
			MinTextLen:          200,
			MaxTextLen:          15000,
			SummaryBatchSize:    3,
			SimilarityThreshold: 0.8,
			MaxCharts:           4,
			MaxSlides:           20,
			JobDeadlineSec:      300,
			RetentionSec:        1800,
			RetryMaxAttempts:    3,
			RetryBaseDelayMs:    1000,
		},
	}
}

// Load reads configuration from a JSON file, fills unset fields from
// defaults and the environment, and validates the result. An empty path
// yields the defaults plus environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}

	if path != "" {
		if !filepath.IsAbs(path) {
			cwd, err := os.Getwd()
			if err != nil {
				return Config{}, fmt.Errorf("failed to get current directory: %w", err)
			}
			path = filepath.Join(cwd, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.applyEnv()
	cfg = cfg.MergeWithDefaults(Defaults())

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv fills secrets and host settings from environment variables when
// the config file leaves them empty.
func (c *Config) applyEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.SearchAPIKey == "" {
		c.SearchAPIKey = os.Getenv("GOOGLE_SEARCH_API_KEY")
	}
	if c.SearchCX == "" {
		c.SearchCX = os.Getenv("GOOGLE_SEARCH_CX")
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = os.Getenv("PUBLIC_BASE_URL")
	}
	if c.OutputDir == "" {
		c.OutputDir = os.Getenv("OUTPUT_DIR")
	}
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be in 1-65535")
	}
	p := c.Pipeline
	if p.MaxSources < 1 {
		return fmt.Errorf("config error: 'max_sources' must be at least 1")
	}
	if p.FetchWorkers < 1 {
		return fmt.Errorf("config error: 'fetch_workers' must be at least 1")
	}
	if p.MinTextLen < 0 || p.MaxTextLen < p.MinTextLen {
		return fmt.Errorf("config error: text length bounds are inconsistent")
	}
	if p.SimilarityThreshold < 0 || p.SimilarityThreshold > 1 {
		return fmt.Errorf("config error: 'similarity_threshold' must be in 0.0-1.0")
	}
	if p.MaxSlides < 1 {
		return fmt.Errorf("config error: 'max_slides' must be at least 1")
	}
	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from
// defaults.
func (c Config) MergeWithDefaults(defaults Config) Config {
	result := c
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}

	p, d := &result.Pipeline, defaults.Pipeline
	if p.MaxSources == 0 {
		p.MaxSources = d.MaxSources
	}
	if p.FetchWorkers == 0 {
		p.FetchWorkers = d.FetchWorkers
	}
	if p.FetchTimeoutSec == 0 {
		p.FetchTimeoutSec = d.FetchTimeoutSec
	}
	if p.MinTextLen == 0 {
		p.MinTextLen = d.MinTextLen
	}
	if p.MaxTextLen == 0 {
		p.MaxTextLen = d.MaxTextLen
	}
	if p.SummaryBatchSize == 0 {
		p.SummaryBatchSize = d.SummaryBatchSize
	}
	if p.SimilarityThreshold == 0 {
		p.SimilarityThreshold = d.SimilarityThreshold
	}
	if p.MaxCharts == 0 {
		p.MaxCharts = d.MaxCharts
	}
	if p.MaxSlides == 0 {
		p.MaxSlides = d.MaxSlides
	}
	if p.JobDeadlineSec == 0 {
		p.JobDeadlineSec = d.JobDeadlineSec
	}
	if p.RetentionSec == 0 {
		p.RetentionSec = d.RetentionSec
	}
	if p.RetryMaxAttempts == 0 {
		p.RetryMaxAttempts = d.RetryMaxAttempts
	}
	if p.RetryBaseDelayMs == 0 {
		p.RetryBaseDelayMs = d.RetryBaseDelayMs
	}
	return result
}

// FetchTimeout returns the per-source timeout as a duration.
func (p Pipeline) FetchTimeout() time.Duration {
	return time.Duration(p.FetchTimeoutSec) * time.Second
}

// JobDeadline returns the global job deadline as a duration.
func (p Pipeline) JobDeadline() time.Duration {
	return time.Duration(p.JobDeadlineSec) * time.Second
}

// Retention returns the terminal-job retention window as a duration.
func (p Pipeline) Retention() time.Duration {
	return time.Duration(p.RetentionSec) * time.Second
}

// RetryPolicy returns the retry policy for LLM batch calls.
func (p Pipeline) RetryPolicy() retry.Policy {
	pol := retry.DefaultPolicy()
	if p.RetryMaxAttempts > 0 {
		pol.MaxAttempts = p.RetryMaxAttempts
	}
	if p.RetryBaseDelayMs > 0 {
		pol.BaseDelay = time.Duration(p.RetryBaseDelayMs) * time.Millisecond
	}
	return pol
}
