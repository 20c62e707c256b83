package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/groupride/convoy/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		appName string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "convoylogs",
			appName: "convoy",
			want:    filepath.Join("convoylogs", "convoy.20260212_213836.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./convoylogs",
			appName: "convoy",
			want:    filepath.Join(".", "convoylogs", "convoy.20260212_213836.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "convoy"),
			appName: "convoy",
			want:    filepath.Join("/var", "log", "convoy", "convoy.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogFilePath(tt.logsDir, tt.appName, sessionStart)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, ParseLevel("trace"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestSetup_ConsoleAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	var console bytes.Buffer

	logger, closer, err := Setup(config.LogConfig{
		Level:     "debug",
		Dir:       dir,
		MaxSizeMB: 1,
		Console:   true,
	}, start, &console)
	require.NoError(t, err)

	logger.Debug().Str("component", "test").Msg("hello file")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "Logging set up")
	assert.Contains(t, console.String(), "hello file")

	body, err := os.ReadFile(LogFilePath(dir, AppName, start))
	require.NoError(t, err)
	assert.Contains(t, string(body), "hello file")
	assert.Contains(t, string(body), "component=test")
}

func TestSetup_LevelFilters(t *testing.T) {
	var console bytes.Buffer

	logger, closer, err := Setup(config.LogConfig{Level: "warn", Console: true}, time.Now(), &console)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")

	assert.NotContains(t, console.String(), "quiet")
	assert.Contains(t, console.String(), "loud")
}

func TestSetup_NoWriters(t *testing.T) {
	logger, closer, err := Setup(config.LogConfig{}, time.Now(), nil)
	require.NoError(t, err)
	logger.Info().Msg("discarded")
	assert.NoError(t, closer.Close())
}

func TestSetup_Graylog(t *testing.T) {
	var console bytes.Buffer

	// UDP needs no listener to open
	logger, closer, err := Setup(config.LogConfig{
		Console: true,
		Graylog: config.GraylogConfig{Enabled: true, Address: "127.0.0.1:12201"},
	}, time.Now(), &console)
	require.NoError(t, err)

	logger.Info().Msg("shipped")
	assert.NoError(t, closer.Close())
}
