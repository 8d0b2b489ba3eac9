// Package logging hands out scoped leveled loggers backed by a single pion
// logger factory. Levels are controlled with the PION_LOG_* environment variables.
package logging

import (
	"io"

	"github.com/pion/logging"
)

var loggerFactory = logging.NewDefaultLoggerFactory()

// NewLogger returns a leveled logger for scope, e.g. "framering/feed".
func NewLogger(scope string) logging.LeveledLogger {
	return loggerFactory.NewLogger(scope)
}

// NewWriterLogger returns a logger for scope that writes every message at or
// above level to w, ignoring the environment. Components accept it through
// their WithLogger options.
func NewWriterLogger(scope string, level logging.LogLevel, w io.Writer) logging.LeveledLogger {
	return logging.NewDefaultLeveledLoggerForScope(scope, level, w)
}
