package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// VertexStatus represents the outcome of a unit of work reported to telemetry and tables.
type VertexStatus string

const (
	// VertexStatusCompleted indicates the work finished successfully.
	VertexStatusCompleted VertexStatus = "completed"
	// VertexStatusFailed indicates the work failed.
	VertexStatusFailed VertexStatus = "failed"
	// VertexStatusCached indicates the work was skipped because a valid cache was found.
	VertexStatusCached VertexStatus = "cached"
	// VertexStatusSkipped indicates the work was skipped for reasons other than caching.
	VertexStatusSkipped VertexStatus = "skipped"
)

// LogLevel represents the severity of a log message, on the standard slog scale.
type LogLevel int

const (
	LogLevelSpam     LogLevel = -8
	LogLevelDebug    LogLevel = -4
	LogLevelVerbose  LogLevel = -2
	LogLevelInfo     LogLevel = 0
	LogLevelNotice   LogLevel = 2
	LogLevelWarn     LogLevel = 4
	LogLevelSuccess  LogLevel = 6
	LogLevelError    LogLevel = 8
	LogLevelCritical LogLevel = 12
)

var logLevelNames = map[LogLevel]string{
	LogLevelSpam:     "SPAM",
	LogLevelDebug:    "DEBUG",
	LogLevelVerbose:  "VERBOSE",
	LogLevelInfo:     "INFO",
	LogLevelNotice:   "NOTICE",
	LogLevelWarn:     "WARN",
	LogLevelSuccess:  "SUCCESS",
	LogLevelError:    "ERROR",
	LogLevelCritical: "CRITICAL",
}

// logLevelAliases accepts both the single-letter and the full spelling.
var logLevelAliases = map[string]LogLevel{
	"s": LogLevelSpam, "spam": LogLevelSpam,
	"d": LogLevelDebug, "debug": LogLevelDebug,
	"v": LogLevelVerbose, "verbose": LogLevelVerbose,
	"i": LogLevelInfo, "info": LogLevelInfo,
	"n": LogLevelNotice, "notice": LogLevelNotice,
	"w": LogLevelWarn, "warning": LogLevelWarn, "warn": LogLevelWarn,
	"u": LogLevelSuccess, "success": LogLevelSuccess,
	"e": LogLevelError, "error": LogLevelError,
	"c": LogLevelCritical, "critical": LogLevelCritical,
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	if name, ok := logLevelNames[l]; ok {
		return name
	}
	return "INFO"
}

// ParseLogLevel resolves a level name or its single-letter alias, case-insensitively.
func ParseLogLevel(s string) (LogLevel, error) {
	if l, ok := logLevelAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return LogLevelInfo, zerr.With(zerr.Wrap(ErrInvalidLogLevel, "cannot parse log level"), "level", s)
}

// LogLevelChoices lists the accepted level names for help output.
func LogLevelChoices() []string {
	return []string{"spam", "debug", "verbose", "info", "notice", "warning", "success", "error", "critical"}
}
