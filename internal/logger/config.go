package logger

import (
	"strings"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/config"
	"github.com/rs/zerolog"
)

// LogFormat selects how records are encoded
type LogFormat string

const (
	FormatJSON    LogFormat = "json"
	FormatConsole LogFormat = "console"
	// FormatText is the console layout without colors, suited to log files
	FormatText LogFormat = "text"
)

// ParseFormat maps a configured name onto a LogFormat. Anything unknown is console.
func ParseFormat(name string) LogFormat {
	switch f := LogFormat(strings.ToLower(name)); f {
	case FormatJSON, FormatText:
		return f
	default:
		return FormatConsole
	}
}

// ParseLevel maps a configured level name onto zerolog. Empty means info.
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.InfoLevel, errorwrapper.NewValidationError("log_level", name, err.Error())
	}
	return level, nil
}

// LoggerConfig is the resolved logger setup
type LoggerConfig struct {
	Level         zerolog.Level
	Format        LogFormat
	EnableConsole bool
	EnableFile    bool
	FilePath      string
	MaxSizeMB     int
	MaxBackups    int
	// SessionID places the log file under sessions/<id>/ next to FilePath
	SessionID string
}

// DefaultLoggerConfig logs info and above to the console only
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:         zerolog.InfoLevel,
		Format:        FormatConsole,
		EnableConsole: true,
		MaxSizeMB:     config.DefaultMaxLogSizeMB,
		MaxBackups:    config.DefaultMaxLogBackups,
	}
}

// FromLogConfig resolves the file section. The result is always usable; an
// unknown level is reported but replaced by info.
func FromLogConfig(cfg config.LogConfig) (LoggerConfig, error) {
	out := DefaultLoggerConfig()
	level, err := ParseLevel(cfg.LogLevel)
	out.Level = level
	out.Format = ParseFormat(cfg.LogFormat)
	if cfg.LogFile != "" {
		out.EnableFile = true
		out.FilePath = cfg.LogFile
	}
	if cfg.MaxLogSizeMB > 0 {
		out.MaxSizeMB = cfg.MaxLogSizeMB
	}
	if cfg.MaxLogBackups > 0 {
		out.MaxBackups = cfg.MaxLogBackups
	}
	return out, err
}
