package log

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/kochabx/axis/log/writer"
)

// Logger wraps zerolog.Logger and owns the underlying writer.
type Logger struct {
	zerolog.Logger
	writer io.Writer
	closer io.Closer
}

// Close releases the file writer, if any.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("component", name).Logger(),
		writer: l.writer,
	}
}

func init() {
	zerolog.TimeFieldFormat = time.DateTime
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

func newLogger(w io.Writer, opts ...Option) *Logger {
	logger := &Logger{
		writer: w,
		Logger: zerolog.New(w).With().Timestamp().Logger(),
	}

	for _, opt := range opts {
		opt(logger)
	}

	return logger
}

// New creates a console logger.
func New(opts ...Option) *Logger {
	return newLogger(writer.Console(), opts...)
}

// NewWriter creates a logger writing JSON lines to w.
func NewWriter(w io.Writer, opts ...Option) *Logger {
	return newLogger(w, opts...)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop(), writer: io.Discard}
}

// NewFile creates a logger writing to a rotated file.
func NewFile(c FileConfig, opts ...Option) (*Logger, error) {
	c.applyDefaults()

	w, err := writer.File(c.toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	logger := newLogger(w, opts...)
	if closer, ok := w.(io.Closer); ok {
		logger.closer = closer
	}

	return logger, nil
}

// NewMulti creates a logger writing to both a rotated file and the console.
func NewMulti(c FileConfig, opts ...Option) (*Logger, error) {
	c.applyDefaults()

	fw, err := writer.File(c.toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	multi := zerolog.MultiLevelWriter(fw, writer.Console())
	logger := newLogger(multi, opts...)
	if closer, ok := fw.(io.Closer); ok {
		logger.closer = closer
	}

	return logger, nil
}
