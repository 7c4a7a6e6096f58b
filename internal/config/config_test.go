package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	t.Setenv("PIPELINE_BUCKET", "dubbing-bucket")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dubbing-bucket", cfg.Watch.Bucket)
	assert.Equal(t, "inputs/jobs", cfg.Watch.JobsPrefix)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.PollInterval)
	assert.Equal(t, 60*time.Minute, cfg.Pipeline.RunTimeout)
	assert.Equal(t, 0, cfg.Pipeline.MaxPollAttempts)
	assert.Equal(t, PartialPolicyStrict, cfg.Pipeline.TranslatePartialPolicy)
	assert.Equal(t, "us-east-1", cfg.System.AWSRegion)
}

func TestNewFromEnv_Overrides(t *testing.T) {
	t.Setenv("PIPELINE_BUCKET", "b")
	t.Setenv("POLL_INTERVAL_SECONDS", "10")
	t.Setenv("RUN_TIMEOUT_MINUTES", "30")
	t.Setenv("MAX_POLL_ATTEMPTS", "120")
	t.Setenv("TRANSLATE_PARTIAL_POLICY", "best_effort")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Pipeline.PollInterval)
	assert.Equal(t, 30*time.Minute, cfg.Pipeline.RunTimeout)
	assert.Equal(t, 120, cfg.Pipeline.MaxPollAttempts)
	assert.Equal(t, PartialPolicyBestEffort, cfg.Pipeline.TranslatePartialPolicy)
}

func TestNewFromEnv_Validation(t *testing.T) {
	t.Run("missing bucket", func(t *testing.T) {
		t.Setenv("PIPELINE_BUCKET", "")
		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PIPELINE_BUCKET")
	})

	t.Run("bad partial policy", func(t *testing.T) {
		t.Setenv("PIPELINE_BUCKET", "b")
		t.Setenv("TRANSLATE_PARTIAL_POLICY", "sometimes")
		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TRANSLATE_PARTIAL_POLICY")
	})

	t.Run("option overrides win", func(t *testing.T) {
		t.Setenv("PIPELINE_BUCKET", "b")
		cfg, err := NewFromEnv(func(c *Config) {
			c.Pipeline.MaxPollAttempts = 3
		})
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Pipeline.MaxPollAttempts)
	})
}
