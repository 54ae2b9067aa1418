package log

import (
	"github.com/rs/zerolog"
)

// Option configures a Logger.
type Option func(*Logger)

// WithLevel sets the minimum level.
func WithLevel(level zerolog.Level) Option {
	return func(l *Logger) {
		l.Logger = l.Logger.Level(level)
	}
}

// WithCaller adds caller information.
func WithCaller() Option {
	return func(l *Logger) {
		l.Logger = l.Logger.With().Caller().Logger()
	}
}

// WithField adds a static string field to every event.
func WithField(key, value string) Option {
	return func(l *Logger) {
		l.Logger = l.Logger.With().Str(key, value).Logger()
	}
}
