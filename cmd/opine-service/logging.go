// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/opine-ai/opine/lib/clock"
	"github.com/opine-ai/opine/lib/config"
	"github.com/opine-ai/opine/lib/logdb"
)

// setupLogging opens the log pipeline and builds the process logger:
// a console handler fanned out with the pipeline's database handler.
// If the pipeline cannot be opened the service degrades to
// console-only logging and the returned pipeline is nil; the
// log-inspection endpoints then report the degradation.
func setupLogging(cfg *config.Config, clk clock.Clock) (*slog.Logger, *logdb.Pipeline) {
	consoleLevel := new(slog.LevelVar)
	if level, err := logdb.ParseLevel(cfg.Logging.Level); err == nil {
		consoleLevel.Set(level)
	}
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: consoleLevel})

	// The pipeline's own operational messages go to the console only.
	// Routing them through the pipeline would feed the queue from its
	// own drain path.
	pipelineLogger := slog.New(console)

	if dir := filepath.Dir(cfg.Logging.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "opine-service: creating log directory: %v\n", err)
		}
	}

	pipeline, err := logdb.Open(logdb.Config{
		Path:      cfg.Logging.DBPath,
		QueueSize: cfg.Logging.QueueSize,
		Level:     cfg.Logging.Level,
		Clock:     clk,
		Logger:    pipelineLogger,
	})
	if err != nil {
		pipelineLogger.Error("log pipeline unavailable, console logging only", "error", err)
		return slog.New(console), nil
	}

	logger := slog.New(newFanoutHandler(console, pipeline.Handler()))
	return logger, pipeline
}

// fanoutHandler duplicates records to multiple handlers. Each handler
// applies its own level threshold; a record is emitted to every
// handler that reports itself enabled.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) *fanoutHandler {
	return &fanoutHandler{handlers: handlers}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	wrapped := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		wrapped[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: wrapped}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	wrapped := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		wrapped[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: wrapped}
}
