package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLogger(t *testing.T) {
	log, err := New(config.NewDefaultLogConfig())
	require.NoError(t, err)
	defer log.Close()

	cfg := log.GetConfig()
	assert.Equal(t, zerolog.InfoLevel, cfg.Level)
	assert.Equal(t, FormatConsole, cfg.Format)
	assert.True(t, cfg.EnableConsole)
	assert.False(t, cfg.EnableFile)
}

func TestLoggerBuilder_FileLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	log, err := NewLoggerBuilder().
		WithLevel(zerolog.DebugLevel).
		WithFormat(FormatJSON).
		WithFile(logFile, 1, 1).
		WithConsole(false).
		Build()
	require.NoError(t, err)
	defer log.Close()

	log.GetZerolog().Debug().Str("component", "Test").Msg("this is a test")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"level":"debug"`)
	assert.Contains(t, string(content), `"component":"Test"`)
	assert.Contains(t, string(content), `"message":"this is a test"`)
}

func TestLoggerBuilder_WithSessionID(t *testing.T) {
	logDir := t.TempDir()
	logFile := filepath.Join(logDir, "courier.log")

	log, err := NewLoggerBuilder().
		WithFile(logFile, 1, 1).
		WithSessionID("run-123").
		WithConsole(false).
		Build()
	require.NoError(t, err)
	defer log.Close()
	log.GetZerolog().Info().Msg("testing session id")

	_, err = os.Stat(filepath.Join(logDir, "sessions", "run-123", "courier.log"))
	assert.NoError(t, err, "log file should be created in the session directory")
}

func TestLoggerBuilder_ConsoleOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer

	log, err := NewLoggerBuilder().
		WithLevel(zerolog.WarnLevel).
		WithFormat(FormatJSON).
		WithOutput(&buf).
		Build()
	require.NoError(t, err)

	log.GetZerolog().Info().Msg("hidden")
	log.GetZerolog().Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerBuilder_Validation(t *testing.T) {
	_, err := NewLoggerBuilder().WithConsole(false).Build()
	assert.Error(t, err)

	_, err = NewLoggerBuilder().WithFile("", 1, 1).Build()
	assert.ErrorIs(t, err, errorwrapper.ErrInvalidArgument)

	_, err = NewLoggerBuilder().WithFile(filepath.Join(t.TempDir(), "x.log"), 0, 1).Build()
	assert.ErrorIs(t, err, errorwrapper.ErrInvalidArgument)
}

func TestFromLogConfig(t *testing.T) {
	loggerConfig, err := FromLogConfig(config.LogConfig{
		LogLevel:      "warn",
		LogFormat:     "json",
		LogFile:       "/tmp/test.log",
		MaxLogSizeMB:  50,
		MaxLogBackups: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, zerolog.WarnLevel, loggerConfig.Level)
	assert.Equal(t, FormatJSON, loggerConfig.Format)
	assert.True(t, loggerConfig.EnableConsole)
	assert.True(t, loggerConfig.EnableFile)
	assert.Equal(t, "/tmp/test.log", loggerConfig.FilePath)
	assert.Equal(t, 50, loggerConfig.MaxSizeMB)
	assert.Equal(t, 5, loggerConfig.MaxBackups)

	fallback, err := FromLogConfig(config.LogConfig{LogLevel: "loud"})
	assert.ErrorIs(t, err, errorwrapper.ErrInvalidArgument)
	assert.Equal(t, zerolog.InfoLevel, fallback.Level)
	assert.False(t, fallback.EnableFile)
	assert.Equal(t, config.DefaultMaxLogSizeMB, fallback.MaxSizeMB)
}

func TestParseLevelAndFormat(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	assert.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	level, err = ParseLevel("")
	assert.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatConsole, ParseFormat("unknown-format"))
}
