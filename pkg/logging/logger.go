// Package logging hands out per-component logrus loggers.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	base = newBase(os.Stderr)
)

func newBase(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level := logrus.WarnLevel
	if env := os.Getenv("MEMOS_LOG_LEVEL"); env != "" {
		if parsed, err := logrus.ParseLevel(env); err == nil {
			level = parsed
		}
	}
	l.SetLevel(level)
	return l
}

// NewLogger returns the logger for component, creating it on first use.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, ok := loggers[component]; ok {
		return logger
	}
	logger := base.WithField("component", component)
	loggers[component] = logger
	return logger
}

// Configure applies level and format to every logger. An explicit
// MEMOS_LOG_LEVEL wins over the configured level.
func Configure(level, format string) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if env := os.Getenv("MEMOS_LOG_LEVEL"); env != "" {
		level = env
	}
	if parsed, err := logrus.ParseLevel(level); err == nil {
		base.SetLevel(parsed)
	}
	switch format {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetOutput redirects every logger, e.g. to a file while a full-screen UI owns
// the terminal.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}
