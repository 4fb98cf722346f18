package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), "level %q", tt.input)
	}
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lexkb.log")

	cfg := Config{Level: "debug", FilePath: path, WriteToStderr: false}
	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)

	logger.Info("index_started", slog.Int("documents", 3))
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"index_started"`)
	assert.Contains(t, string(data), `"documents":3`)
}

func TestSetup_NoFileIsValid(t *testing.T) {
	logger, cleanup, err := Setup(DefaultConfig())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, logger)
}

func TestDebugConfig_LowersLevel(t *testing.T) {
	assert.Equal(t, "debug", DebugConfig().Level)
	assert.Equal(t, "info", DefaultConfig().Level)
}
