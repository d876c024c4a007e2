package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// WriterStrategy wraps an output with a log encoding
type WriterStrategy interface {
	CreateWriter(output io.Writer) io.Writer
}

// JSONWriterStrategy writes zerolog's native JSON lines
type JSONWriterStrategy struct{}

func (JSONWriterStrategy) CreateWriter(output io.Writer) io.Writer {
	return output
}

// ConsoleWriterStrategy writes human readable lines, colored unless NoColor
type ConsoleWriterStrategy struct {
	NoColor bool
}

func (s ConsoleWriterStrategy) CreateWriter(output io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
		NoColor:    s.NoColor,
	}
}

func strategyFor(format LogFormat, colored bool) WriterStrategy {
	switch format {
	case FormatJSON:
		return JSONWriterStrategy{}
	case FormatText:
		return ConsoleWriterStrategy{NoColor: true}
	default:
		return ConsoleWriterStrategy{NoColor: !colored}
	}
}
