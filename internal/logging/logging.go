// Package logging builds the logrus logger shared by the server and the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr at level, as "text" or "json".
func New(level, format string) (*log.Logger, error) {
	return NewWithOutput(os.Stderr, level, format)
}

func NewWithOutput(w io.Writer, level, format string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := log.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return logger, nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}
