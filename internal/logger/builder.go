package logger

import (
	"io"
	stdlog "log"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/config"
	"github.com/rs/zerolog"
)

// LoggerBuilder provides fluent interface for building loggers
type LoggerBuilder struct {
	config  LoggerConfig
	factory *WriterFactory
	output  io.Writer
}

// NewLoggerBuilder creates a new logger builder
func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{
		config:  DefaultLoggerConfig(),
		factory: NewWriterFactory(),
	}
}

// WithConfig applies the file configuration. An invalid level falls back to info.
func (lb *LoggerBuilder) WithConfig(cfg config.LogConfig) *LoggerBuilder {
	sessionID := lb.config.SessionID
	lb.config, _ = FromLogConfig(cfg)
	lb.config.SessionID = sessionID
	return lb
}

func (lb *LoggerBuilder) WithLevel(level zerolog.Level) *LoggerBuilder {
	lb.config.Level = level
	return lb
}

func (lb *LoggerBuilder) WithFormat(format LogFormat) *LoggerBuilder {
	lb.config.Format = format
	return lb
}

func (lb *LoggerBuilder) WithConsole(enabled bool) *LoggerBuilder {
	lb.config.EnableConsole = enabled
	return lb
}

// WithFile enables rotating file output
func (lb *LoggerBuilder) WithFile(path string, maxSizeMB, maxBackups int) *LoggerBuilder {
	lb.config.EnableFile = true
	lb.config.FilePath = path
	lb.config.MaxSizeMB = maxSizeMB
	lb.config.MaxBackups = maxBackups
	return lb
}

// WithSessionID groups the log file of one run under sessions/<id>/
func (lb *LoggerBuilder) WithSessionID(sessionID string) *LoggerBuilder {
	lb.config.SessionID = sessionID
	return lb
}

// WithOutput replaces stderr as the console destination
func (lb *LoggerBuilder) WithOutput(w io.Writer) *LoggerBuilder {
	lb.output = w
	return lb
}

// Build creates the logger instance
func (lb *LoggerBuilder) Build() (*Logger, error) {
	if err := lb.validateConfig(); err != nil {
		return nil, err
	}

	var (
		writers []io.Writer
		closer  io.Closer
	)

	if lb.config.EnableConsole {
		if lb.output != nil {
			writers = append(writers, strategyFor(lb.config.Format, false).CreateWriter(lb.output))
		} else {
			writers = append(writers, lb.factory.CreateConsoleWriter(lb.config.Format))
		}
	}

	if lb.config.EnableFile {
		file, writer, err := lb.factory.CreateFileWriter(lb.config)
		if err != nil {
			return nil, errorwrapper.WrapError(err, "failed to create log file writer")
		}
		closer = file
		writers = append(writers, writer)
	}

	if len(writers) == 0 {
		return nil, errorwrapper.NewError("no output writers configured")
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lb.config.Level).
		With().
		Timestamp().
		Logger()

	stdlog.SetOutput(zl)
	stdlog.SetFlags(0)

	return &Logger{
		zerolog: zl,
		config:  lb.config,
		closer:  closer,
	}, nil
}

func (lb *LoggerBuilder) validateConfig() error {
	if lb.config.EnableFile && lb.config.FilePath == "" {
		return errorwrapper.NewValidationError("file_path", lb.config.FilePath, "file path required when file logging enabled")
	}
	if lb.config.MaxSizeMB <= 0 {
		return errorwrapper.NewValidationError("max_size_mb", lb.config.MaxSizeMB, "max size must be positive")
	}
	return nil
}
