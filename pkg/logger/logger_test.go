package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"wpmirror/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info console", &config.LoggingConfig{Level: "info", Format: "console"}, false},
		{"debug json", &config.LoggingConfig{Level: "debug", Format: "json"}, false},
		{"auto format", &config.LoggingConfig{Level: "warn", Format: "auto"}, false},
		{"invalid level", &config.LoggingConfig{Level: "loud", Format: "json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewWithWriter(tt.cfg, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"trace-all", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	l.WithField("phase", "media").InfoWithFields("Requesting page", map[string]interface{}{
		"page":     2,
		"per_page": 50,
		"elapsed":  1500 * time.Millisecond,
	})

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &event))
	assert.Equal(t, "wpmirror", event["app"])
	assert.Equal(t, "media", event["phase"])
	assert.Equal(t, "Requesting page", event["message"])
	assert.EqualValues(t, 2, event["page"])
	assert.EqualValues(t, 50, event["per_page"])
	assert.Equal(t, "info", event["level"])
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "info", Format: "console"}, &buf)
	require.NoError(t, err)

	l.Info("[MEDIA] Requesting page 1 (per_page=100)")
	out := buf.String()
	assert.Contains(t, out, "[MEDIA] Requesting page 1 (per_page=100)")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"), "console output must not be JSON")
}

func TestAutoFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "info", Format: "auto"}, &buf)
	require.NoError(t, err)

	l.Info("not a terminal")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestWithFieldsDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	child := l.WithFields(map[string]interface{}{"url": "https://a.test/x.jpg"})
	child.Info("child")
	l.Info("parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"url":"https://a.test/x.jpg"`)
	assert.NotContains(t, lines[1], `"url"`)
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("connection reset")).Error("Download failed")
	assert.Contains(t, buf.String(), "connection reset")
	assert.Contains(t, buf.String(), "Download failed")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "wpmirror.log")
	l, err := NewWithWriter(&config.LoggingConfig{Level: "info", Format: "console", File: path}, &bytes.Buffer{})
	require.NoError(t, err)

	l.Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"written to file"`)
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogStore(tl, "https://a.test/x.jpg", "/out/2024-01-15/x.jpg", "stored", nil)
	LogStore(tl, "https://a.test/y.jpg", "/out/2024-01-15/y.jpg", "already_exists", nil)
	LogStore(tl, "https://a.test/z.jpg", "", "failed", errors.New("timeout"))
	LogRequest(tl, "GET", "https://a.test/wp-json/wp/v2/media", 400, 12.5)
	LogPhaseProgress(tl, "media", 5, 10)

	assert.True(t, tl.HasMessage("Download completed"))
	assert.True(t, tl.HasMessage("File already exists, skipping"))
	assert.True(t, tl.HasError())
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)

	progress := tl.GetMessagesByLevel("INFO")
	require.NotEmpty(t, progress)
	last := progress[len(progress)-1]
	assert.Equal(t, "50.0%", last.Fields["percentage"])
}

func TestTestLoggerSharesMessages(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("phase", "posts").WithError(errors.New("boom"))
	child.Warn("[POSTS] stopped")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "posts", msgs[0].Fields["phase"])
	assert.EqualError(t, msgs[0].Error, "boom")
	assert.True(t, tl.HasMessageContaining("[POSTS]"))
	assert.Equal(t, 1, tl.CountMessagesContaining("stopped"))

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.WithField("k", "v").WithError(errors.New("x")).Error("nothing")
		l.InfoWithFields("nothing", nil)
	})
}
