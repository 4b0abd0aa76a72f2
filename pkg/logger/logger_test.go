package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tweetkit/pkg/config"
)

func bufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog, fields: make(map[string]interface{})}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "verbose"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(dir, "logs", "tweetkit.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
	assert.FileExists(t, filepath.Join(dir, "logs", "tweetkit.log"))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"trace-ish", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFieldsReachOutput(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.WithField("media_id", "710511363345354753").
		WithFields(map[string]interface{}{"segment": 2, "final": true}).
		InfoWithFields("chunk sent", map[string]interface{}{"bytes": int64(4194304)})

	out := buf.String()
	assert.Contains(t, out, "chunk sent")
	assert.Contains(t, out, `"media_id":"710511363345354753"`)
	assert.Contains(t, out, `"segment":2`)
	assert.Contains(t, out, `"final":true`)
	assert.Contains(t, out, `"bytes":4194304`)
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	_ = l.WithField("listing", "followers")
	l.Info("plain")
	assert.NotContains(t, buf.String(), "followers")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("connection reset")).Error("send failed")
	assert.Contains(t, buf.String(), "connection reset")
	assert.Contains(t, buf.String(), "send failed")
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.WithFields(map[string]interface{}{
		"time":     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"duration": 5 * time.Second,
		"strings":  []string{"a", "b"},
		"custom":   struct{ Name string }{Name: "x"},
	}).Info("typed")

	assert.Contains(t, buf.String(), `"strings":["a","b"]`)
	assert.Contains(t, buf.String(), `"custom":{"Name":"x"}`)
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "error"}))
	assert.NotNil(t, GetLogger())
	assert.Same(t, GetLogger(), OrGlobal(nil))

	tl := NewTestLogger()
	assert.Same(t, Logger(tl), OrGlobal(tl))
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("listing", "likes").WithError(errors.New("boom"))

	child.Warn("page skipped")
	tl.Info("walk started")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "WARN", msgs[0].Level)
	assert.Equal(t, "likes", msgs[0].Fields["listing"])
	assert.EqualError(t, msgs[0].Error, "boom")
	assert.Nil(t, msgs[1].Fields)

	assert.True(t, tl.HasMessage("walk started"))
	assert.False(t, tl.HasError())
	assert.Contains(t, tl.String(), "[WARN] page skipped error=boom")

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://x.com/i/api/graphql/abc/UserTweets", 503, 120*time.Millisecond)
	LogRateLimit(tl, "Search", 30*time.Second)
	LogPage(tl, "followers", 1, 20, "cursor")
	LogUploadPhase(tl, "INIT", "", map[string]interface{}{"total_bytes": int64(10)})

	assert.Len(t, tl.GetMessagesByLevel("ERROR"), 1)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	page := tl.GetMessagesByLevel("INFO")
	require.Len(t, page, 1)
	assert.Equal(t, true, page[0].Fields["has_next"])
	debug := tl.GetMessagesByLevel("DEBUG")
	require.Len(t, debug, 1)
	assert.Equal(t, "INIT", debug[0].Fields["phase"])

	NewNopLogger().WithField("k", "v").Info("discarded")
}
