// Package logging builds the logrus loggers shared by the docscan commands
// and servers.
//
// Output always goes to stderr by default because stdout carries the
// JSON-RPC protocol in server mode. The level comes from configuration and
// can be overridden with the DOCSCAN_LOG_LEVEL environment variable.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// EnvLevel names the environment variable that overrides the configured level.
const EnvLevel = "DOCSCAN_LOG_LEVEL"

// DefaultLevel is used when neither configuration nor environment set one.
const DefaultLevel = "info"

// New creates a logger writing text records to w at level. An empty level
// falls back to DefaultLevel; DOCSCAN_LOG_LEVEL wins over both.
func New(w io.Writer, level string) (*logrus.Logger, error) {
	if env := strings.TrimSpace(os.Getenv(EnvLevel)); env != "" {
		level = env
	}
	if level == "" {
		level = DefaultLevel
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if w == nil {
		w = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger, nil
}

// Discard returns a logger that drops everything. Used as the default when a
// caller passes no logger.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// Component returns an entry tagged with the component name.
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	if logger == nil {
		logger = Discard()
	}
	return logger.WithField("component", name)
}
