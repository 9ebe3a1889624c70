package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json":  FormatJSON,
		"JSON":  FormatJSON,
		"text":  FormatText,
		"tint":  FormatText,
		"human": FormatText,
		"auto":  FormatAuto,
		"":      FormatAuto,
		"xml":   FormatAuto,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseFormat(in), in)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTTY(f))
}

func TestNew_AutoIsJSONOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, FormatAuto, slog.LevelInfo).Info("captured", "id", "abc")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "captured", rec["msg"])
	assert.Equal(t, "abc", rec["id"])
}

func TestNew_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, FormatText, slog.LevelWarn)
	l.Info("quiet")
	l.Warn("loud", "n", 1)

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
	assert.Contains(t, out, "n=1")
}

func TestSetupFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "picker.log")
	c, err := SetupFile(path, FormatJSON, slog.LevelDebug)
	require.NoError(t, err)
	slog.Debug("picker started")
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "picker started")

	c, err = SetupFile("", FormatAuto, slog.LevelInfo)
	require.NoError(t, err)
	assert.False(t, slog.Default().Enabled(t.Context(), slog.LevelError))
	assert.NoError(t, c.Close())
}
