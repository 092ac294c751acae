// Package logging provides structured logging for the printstash CLI.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with CLI-friendly console output.
// Logs go to stderr so stdout stays clean for tables and piped output.
type Logger struct {
	zlog   zerolog.Logger
	output io.Writer
}

// NewLogger creates a logger writing human-readable output to w.
func NewLogger(w io.Writer) *Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	return &Logger{
		zlog:   zerolog.New(output).With().Timestamp().Logger(),
		output: output,
	}
}

// NewDefaultLogger creates the standard stderr logger used by the CLI.
func NewDefaultLogger() *Logger {
	return NewLogger(os.Stderr)
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event { return l.zlog.Debug() }

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event { return l.zlog.Info() }

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event { return l.zlog.Warn() }

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event { return l.zlog.Error() }

// Fatal returns a fatal level event.
func (l *Logger) Fatal() *zerolog.Event { return l.zlog.Fatal() }

// With creates a child logger with additional context.
func (l *Logger) With() zerolog.Context { return l.zlog.With() }

// Debugf logs a debug message with printf-style formatting.
// Only shown when verbose mode is enabled.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
