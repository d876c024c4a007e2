// Package logger builds the zerolog loggers used across courier.
package logger

import (
	"io"

	"github.com/aleister1102/courier/internal/config"
	"github.com/rs/zerolog"
)

// Logger represents the main logger with configuration
type Logger struct {
	zerolog zerolog.Logger
	config  LoggerConfig
	closer  io.Closer
}

// GetZerolog returns the underlying zerolog instance
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zerolog
}

// GetConfig returns the configuration the logger was built with
func (l *Logger) GetConfig() LoggerConfig {
	return l.config
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// New creates a logger from the file configuration
func New(cfg config.LogConfig) (*Logger, error) {
	return NewLoggerBuilder().WithConfig(cfg).Build()
}

// NewWithSessionID creates a logger whose file output is grouped by session
func NewWithSessionID(cfg config.LogConfig, sessionID string) (*Logger, error) {
	return NewLoggerBuilder().
		WithConfig(cfg).
		WithSessionID(sessionID).
		Build()
}
