package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"Warn", LevelWarn, false},
		{"ERROR", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	SetLevel("WARN")
	defer SetLevel("INFO")

	SetLevel("nonsense")
	assert.Equal(t, LevelWarn, GetLevel())
}

func TestConfigure_JSONFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "appshell.log")
	require.NoError(t, Configure("debug", "json", out))
	defer func() { _ = Configure("info", "text", "stdout") }()

	Debug("hello %s", "sandbox")
	Sync()

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "hello sandbox", entry["message"])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigure_LevelFilters(t *testing.T) {
	out := filepath.Join(t.TempDir(), "filtered.log")
	require.NoError(t, Configure("error", "text", out))
	defer func() { _ = Configure("info", "text", "stdout") }()

	Info("dropped")
	Error("kept")
	Sync()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestConfigure_RejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Configure("loud", "text", "stdout"))
}
