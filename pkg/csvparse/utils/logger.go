package utils

import (
	"io"

	charmlog "github.com/charmbracelet/log"
)

type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type StandardLogger struct {
	logger *charmlog.Logger
}

// NewLogger builds a logger on w, optionally emitting JSON lines.
func NewLogger(w io.Writer, verbose, json bool) *StandardLogger {
	level := charmlog.InfoLevel
	if verbose {
		level = charmlog.DebugLevel
	}
	l := charmlog.NewWithOptions(w, charmlog.Options{
		Prefix:          "csvparse",
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
	if json {
		l.SetFormatter(charmlog.JSONFormatter)
	}
	return &StandardLogger{logger: l}
}

// NopLogger discards everything.
func NopLogger() *StandardLogger {
	return NewLogger(io.Discard, false, false)
}

func (l *StandardLogger) Debug(msg string, keyvals ...any) {
	l.logger.Debug(msg, keyvals...)
}

func (l *StandardLogger) Info(msg string, keyvals ...any) {
	l.logger.Info(msg, keyvals...)
}

func (l *StandardLogger) Warn(msg string, keyvals ...any) {
	l.logger.Warn(msg, keyvals...)
}

func (l *StandardLogger) Error(msg string, keyvals ...any) {
	l.logger.Error(msg, keyvals...)
}
