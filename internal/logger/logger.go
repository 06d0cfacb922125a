package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/artur/clipvault/internal/config"
)

// New builds the process logger. Output goes to stderr unless cfg.File is set,
// in which case it is appended to that file; if the file cannot be opened the
// logger falls back to stderr and says so.
func New(cfg config.Log) *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.Formatter = &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		}
	} else {
		l.Formatter = &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.DateTime,
		}
	}

	if cfg.File != "" {
		if mkErr := os.MkdirAll(filepath.Dir(cfg.File), 0o755); mkErr != nil {
			l.Warnf("Failed to create log directory for %s: %v, falling back to stderr", cfg.File, mkErr)
		} else if f, openErr := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); openErr != nil {
			l.Warnf("Failed to open log file %s: %v, falling back to stderr", cfg.File, openErr)
		} else {
			l.Out = f
		}
	}

	if err != nil && cfg.Level != "" {
		l.Warnf("Unknown log level %q, using info", cfg.Level)
	}

	return l
}

// Close releases the log file opened by New and points the logger back at
// stderr. Loggers writing to stderr or stdout are left alone.
func Close(l *logrus.Logger) error {
	if l.Out == os.Stderr || l.Out == os.Stdout {
		return nil
	}
	c, ok := l.Out.(io.Closer)
	if !ok {
		return nil
	}
	l.SetOutput(os.Stderr)
	return c.Close()
}

// Discard returns a logger that drops everything
func Discard() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

// Component tags every entry with the subsystem that produced it
func Component(l logrus.FieldLogger, name string) logrus.FieldLogger {
	return l.WithField("component", name)
}
