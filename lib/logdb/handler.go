// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package logdb

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Handler returns an slog.Handler that normalizes records and submits
// them to the pipeline. It is safe for concurrent use, never blocks on
// a full queue, and never panics into the logging call site.
func (p *Pipeline) Handler() slog.Handler {
	return &handler{pipeline: p}
}

type handler struct {
	pipeline *Pipeline
	groups   []string
	attrs    []boundAttr
}

// boundAttr is an attribute captured by WithAttrs, qualified with the
// group path that was open at the time. The qualification has to
// happen at capture time: attributes attached before a group opened
// are not part of that group.
type boundAttr struct {
	attr    slog.Attr
	grouped bool
}

// Enabled consults the pipeline's threshold, so a SetLevel call takes
// effect for every logger sharing this handler.
func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.pipeline.threshold.Level()
}

// Handle normalizes the slog record and submits it. Failures of any
// kind stay inside the pipeline; a logging call must never take down
// its caller.
func (h *handler) Handle(_ context.Context, record slog.Record) error {
	defer func() {
		if recovered := recover(); recovered != nil {
			fmt.Fprintf(h.pipeline.fallback, "logdb: handler panic: %v\n", recovered)
		}
	}()

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = h.pipeline.clock.Now()
	}

	normalized := Record{
		Timestamp:   FormatTimestamp(timestamp),
		Level:       LevelName(record.Level),
		LoggerName:  "root",
		Message:     record.Message,
		ProcessName: h.pipeline.processName,
	}

	assign := func(attr slog.Attr, grouped bool) {
		if attr.Equal(slog.Attr{}) {
			return
		}
		// The logger and error attributes map onto fixed record
		// fields; group-qualified attributes never do.
		if !grouped {
			switch attr.Key {
			case "logger":
				normalized.LoggerName = attr.Value.Resolve().String()
				return
			case "error":
				normalized.ExcInfo = attr.Value.Resolve().String()
				return
			}
		}
		if normalized.Extra == nil {
			normalized.Extra = make(map[string]any)
		}
		normalized.Extra[attr.Key] = safeValue(attr.Value)
	}

	for _, bound := range h.attrs {
		assign(bound.attr, bound.grouped)
	}
	grouped := len(h.groups) > 0
	record.Attrs(func(attr slog.Attr) bool {
		if grouped {
			attr.Key = qualifyKey(h.groups, attr.Key)
		}
		assign(attr, grouped)
		return true
	})

	h.pipeline.submit(normalized)
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	bound := append([]boundAttr(nil), h.attrs...)
	grouped := len(h.groups) > 0
	for _, attr := range attrs {
		if grouped {
			attr.Key = qualifyKey(h.groups, attr.Key)
		}
		bound = append(bound, boundAttr{attr: attr, grouped: grouped})
	}
	clone.attrs = bound
	return &clone
}

// qualifyKey joins the open group path onto an attribute key.
func qualifyKey(groups []string, key string) string {
	for i := len(groups) - 1; i >= 0; i-- {
		key = groups[i] + "." + key
	}
	return key
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// safeValue reduces an slog value to the JSON-representable union the
// extra column accepts: string, number, bool, nil, and maps or slices
// of the same. Anything else is rendered as its string form.
func safeValue(value slog.Value) any {
	value = value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		return value.String()
	case slog.KindInt64:
		return value.Int64()
	case slog.KindUint64:
		return value.Uint64()
	case slog.KindFloat64:
		return value.Float64()
	case slog.KindBool:
		return value.Bool()
	case slog.KindDuration:
		return value.Duration().String()
	case slog.KindTime:
		return value.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindGroup:
		group := make(map[string]any, len(value.Group()))
		for _, attr := range value.Group() {
			group[attr.Key] = safeValue(attr.Value)
		}
		return group
	default:
		return safeAny(value.Any())
	}
}

// safeAny handles KindAny payloads. Plain JSON-shaped values pass
// through; everything else falls back to fmt formatting so arbitrary
// types cannot reach the persistence layer.
func safeAny(value any) any {
	switch typed := value.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return typed
	case error:
		return typed.Error()
	case fmt.Stringer:
		return typed.String()
	case map[string]any:
		sanitized := make(map[string]any, len(typed))
		for key, element := range typed {
			sanitized[key] = safeAny(element)
		}
		return sanitized
	case []any:
		sanitized := make([]any, len(typed))
		for i, element := range typed {
			sanitized[i] = safeAny(element)
		}
		return sanitized
	default:
		return fmt.Sprintf("%v", typed)
	}
}
