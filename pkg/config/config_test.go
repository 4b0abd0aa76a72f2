package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, int64(4*1024*1024), cfg.Upload.ChunkSize)
	assert.Zero(t, cfg.Upload.PollDeadline, "polling is unbounded by default")
	assert.Equal(t, "https://upload.twitter.com/i/media/upload.json", cfg.Upload.Endpoint)
	assert.Equal(t, 60, cfg.Transport.RequestsPerMinute)
	assert.False(t, cfg.OAuth1.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TWEETKIT_AUTH_TOKEN", "auth-123")
	t.Setenv("TWEETKIT_CSRF_TOKEN", "ct0-456")
	t.Setenv("TWEETKIT_REQUESTS_PER_MINUTE", "30")
	t.Setenv("TWEETKIT_POLL_DEADLINE", "90s")
	t.Setenv("TWEETKIT_LOG_LEVEL", "debug")
	t.Setenv("TWEETKIT_TRACING", "true")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.True(t, cfg.Account.HasSession())
	assert.Equal(t, "auth-123", cfg.Account.AuthToken)
	assert.Equal(t, 30, cfg.Transport.RequestsPerMinute)
	assert.Equal(t, 90*time.Second, cfg.Upload.PollDeadline)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Transport.Tracing)
}

func TestLoadFromEnvBadValues(t *testing.T) {
	t.Setenv("TWEETKIT_REQUESTS_PER_MINUTE", "lots")
	t.Setenv("TWEETKIT_POLL_DEADLINE", "soon")

	err := DefaultConfig().LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TWEETKIT_REQUESTS_PER_MINUTE")
	assert.Contains(t, err.Error(), "TWEETKIT_POLL_DEADLINE")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
account:
  name: work
  auth_token: from-file
upload:
  chunk_size: 1048576
  default_category: tweet_video
  poll_deadline: 5m
retry:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "work", cfg.Account.Name)
	assert.Equal(t, "from-file", cfg.Account.AuthToken)
	assert.Equal(t, int64(1048576), cfg.Upload.ChunkSize)
	assert.Equal(t, "tweet_video", cfg.Upload.DefaultCategory)
	assert.Equal(t, 5*time.Minute, cfg.Upload.PollDeadline)
	assert.False(t, cfg.Retry.Enabled)
	// untouched sections keep their defaults
	assert.Equal(t, "https://x.com/i/api", cfg.Transport.APIBase)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("upload: [unclosed"), 0600))
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"partial oauth1", func(c *Config) { c.OAuth1.ConsumerKey = "ck" }, "oauth1"},
		{"full oauth1", func(c *Config) {
			c.OAuth1 = OAuth1Config{ConsumerKey: "a", ConsumerSecret: "b", AccessToken: "c", AccessSecret: "d"}
		}, ""},
		{"zero chunk", func(c *Config) { c.Upload.ChunkSize = 0 }, "chunk size"},
		{"negative deadline", func(c *Config) { c.Upload.PollDeadline = -time.Second }, "poll deadline"},
		{"unlimited pacing", func(c *Config) { c.Transport.RequestsPerMinute = 0; c.Transport.BurstSize = 0 }, ""},
		{"burst missing", func(c *Config) { c.Transport.BurstSize = 0 }, "burst size"},
		{"too many uploads", func(c *Config) { c.Upload.Concurrent = 11 }, "concurrent uploads"},
		{"retry attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max attempts"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Upload.ChunkSize = 0
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk size")
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Account.Name = "personal"
	cfg.Upload.PollDeadline = time.Minute

	require.NoError(t, cfg.Save(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, cfg, loaded)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"account":       "alt",
		"concurrent":    4,
		"poll-deadline": 2 * time.Minute,
		"category":      "dm_gif",
		"no-retry":      true,
		"log-level":     "",
	})

	assert.Equal(t, "alt", cfg.Account.Name)
	assert.Equal(t, 4, cfg.Upload.Concurrent)
	assert.Equal(t, 2*time.Minute, cfg.Upload.PollDeadline)
	assert.Equal(t, "dm_gif", cfg.Upload.DefaultCategory)
	assert.False(t, cfg.Retry.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level, "empty flags do not override")
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\naccount:\n  auth_token: file\n"), 0600))
	t.Setenv("TWEETKIT_AUTH_TOKEN", "env")

	cfg, err := Load(path, map[string]interface{}{"log-level": "error"})
	require.NoError(t, err)
	assert.Equal(t, "env", cfg.Account.AuthToken)
	assert.Equal(t, "error", cfg.Logging.Level)

	_, err = Load(path, map[string]interface{}{"log-level": "shout"})
	assert.Error(t, err)
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Account.AuthToken = "abcdefghijkl"
	cfg.Account.CSRFToken = "xy"

	r := cfg.Redacted()
	assert.Equal(t, "abcd********", r.Account.AuthToken)
	assert.Equal(t, "****", r.Account.CSRFToken)
	assert.Equal(t, "abcdefghijkl", cfg.Account.AuthToken)
}
