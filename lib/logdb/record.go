// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package logdb

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// TimestampLayout is the storage format for record timestamps: UTC
// with fixed-width nanosecond precision. Fixed width matters — the
// timestamp column is TEXT and both range filters and the descending
// sort rely on lexicographic order matching chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTimestamp renders t in the storage timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Severity names accepted by the pipeline, in ascending order.
const (
	LevelDebug    = "DEBUG"
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// levelCritical is the slog threshold for CRITICAL. slog has no
// built-in critical level; ERROR+4 follows the spacing of the standard
// levels.
const levelCritical = slog.LevelError + 4

// ParseLevel maps a severity name (case-insensitive) to its slog
// threshold. Unknown names are an error — the level setter must reject
// rather than silently default.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelInfo:
		return slog.LevelInfo, nil
	case LevelWarning:
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	case LevelCritical:
		return levelCritical, nil
	default:
		return 0, fmt.Errorf("logdb: invalid log level %q", name)
	}
}

// LevelName maps an slog level to the severity name stored with each
// record. Levels between the named thresholds round down, except that
// anything above ERROR is CRITICAL.
func LevelName(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return LevelDebug
	case level < slog.LevelWarn:
		return LevelInfo
	case level < slog.LevelError:
		return LevelWarning
	case level < levelCritical:
		return LevelError
	default:
		return LevelCritical
	}
}

// Record is one normalized, immutable log event as persisted.
// Timestamp, Level, LoggerName, and Message are always present; the
// remaining fields are optional. Extra holds event attributes not
// covered by the fixed fields, restricted to JSON-representable values
// (string, number, bool, nil, nested map/slice of the same).
type Record struct {
	Timestamp   string         `json:"timestamp"`
	Level       string         `json:"level"`
	LoggerName  string         `json:"logger_name"`
	Message     string         `json:"message"`
	ExcInfo     string         `json:"exc_info,omitempty"`
	ThreadName  string         `json:"thread_name,omitempty"`
	ProcessName string         `json:"process_name,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}
