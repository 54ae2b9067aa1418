package log

import (
	"github.com/rs/zerolog"
)

var (
	// G is the process-wide logger.
	G *Logger
)

func init() {
	G = New()
}

// SetGlobalLogger replaces the process-wide logger.
func SetGlobalLogger(logger *Logger) {
	G = logger
}

// SetGlobalLevel sets the level of the process-wide logger.
func SetGlobalLevel(level zerolog.Level) {
	G.Logger = G.Logger.Level(level)
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}

func Debug() *zerolog.Event {
	return G.Debug()
}

func Info() *zerolog.Event {
	return G.Info()
}

func Warn() *zerolog.Event {
	return G.Warn()
}

// Error returns an error event with stack.
func Error() *zerolog.Event {
	return G.Error().Stack()
}

func Debugf(format string, args ...any) {
	G.Debug().Msgf(format, args...)
}

func Infof(format string, args ...any) {
	G.Info().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	G.Warn().Msgf(format, args...)
}

func Errorf(format string, args ...any) {
	G.Error().Stack().Msgf(format, args...)
}

// Fatal returns an event that exits the process after it is sent.
func Fatal() *zerolog.Event {
	return G.Fatal()
}
