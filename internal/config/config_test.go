package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5, cfg.Pipeline.MaxSources)
	assert.Equal(t, 5, cfg.Pipeline.FetchWorkers)
	assert.Equal(t, 200, cfg.Pipeline.MinTextLen)
	assert.Equal(t, 20, cfg.Pipeline.MaxSlides)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.FetchTimeout())
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.JobDeadline())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"port": 9090,
		"output_dir": "artifacts",
		"pipeline": {
			"max_sources": 8,
			"min_text_len": 100,
			"max_slides": 12
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "artifacts", cfg.OutputDir)
	assert.Equal(t, 8, cfg.Pipeline.MaxSources)
	assert.Equal(t, 100, cfg.Pipeline.MinTextLen)
	assert.Equal(t, 12, cfg.Pipeline.MaxSlides)
	// Untouched fields keep defaults.
	assert.Equal(t, 5, cfg.Pipeline.FetchWorkers)
	assert.Equal(t, 0.8, cfg.Pipeline.SimilarityThreshold)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Pipeline.SimilarityThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Pipeline.MaxTextLen = 10
	cfg.Pipeline.MinTextLen = 100
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Port = -1
	assert.Error(t, cfg.Validate())
}

func TestRetryPolicy(t *testing.T) {
	p := Defaults().Pipeline
	pol := p.RetryPolicy()
	assert.Equal(t, 3, pol.MaxAttempts)
	assert.Equal(t, time.Second, pol.BaseDelay)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PUBLIC_BASE_URL", "http://example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, "http://example.com", cfg.PublicBaseURL)
}
