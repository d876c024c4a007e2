package logger

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// WriterFactory creates the console and file outputs of a logger
type WriterFactory struct {
	console io.Writer
}

// NewWriterFactory creates a factory whose console output is stderr
func NewWriterFactory() *WriterFactory {
	return &WriterFactory{console: os.Stderr}
}

// CreateConsoleWriter creates a console writer
func (wf *WriterFactory) CreateConsoleWriter(format LogFormat) io.Writer {
	return strategyFor(format, true).CreateWriter(wf.console)
}

// CreateFileWriter creates a rotating file writer. Console format is written
// without color.
func (wf *WriterFactory) CreateFileWriter(cfg LoggerConfig) (io.WriteCloser, io.Writer, error) {
	path := BuildLogPath(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}

	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}
	return rotating, strategyFor(cfg.Format, false).CreateWriter(rotating), nil
}

// BuildLogPath returns the log file path, nested under sessions/<id>/ when a
// session ID is set
func BuildLogPath(cfg LoggerConfig) string {
	if cfg.SessionID == "" {
		return cfg.FilePath
	}
	dir := filepath.Dir(cfg.FilePath)
	return filepath.Join(dir, "sessions", cfg.SessionID, filepath.Base(cfg.FilePath))
}
