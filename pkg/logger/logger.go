// Package logger provides structured logging for the settlement layer.
// It wraps logrus so services can attach contextual fields without
// caring about the backend.
package logger

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoggingConfig controls the output format and verbosity.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // "json" or "text"
	Output io.Writer
}

// Logger is a named, field-carrying logger.
type Logger struct {
	entry *logrus.Entry
}

// New builds a logger for the given component using the supplied config.
func New(name string, cfg LoggingConfig) *Logger {
	l := logrus.New()

	if cfg.Output != nil {
		l.SetOutput(cfg.Output)
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	return &Logger{entry: l.WithField("component", name)}
}

// NewDefault builds an info-level text logger for the given component.
func NewDefault(name string) *Logger {
	return New(name, LoggingConfig{Level: "info", Format: "text"})
}

// WithField returns a logger carrying an extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a logger carrying extra fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithError returns a logger carrying the error as a field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// SetOutput redirects the logger output.
func (l *Logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

func (l *Logger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *Logger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *Logger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *Logger) Error(args ...interface{}) { l.entry.Error(args...) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
