// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/opine-ai/opine/lib/logdb"
)

// defaultCleanupDays is the retention window for DELETE
// /logging/cleanup when the request does not specify one.
const defaultCleanupDays = 30

// logLevelUpdate is the request body for PUT /logging/level.
type logLevelUpdate struct {
	Level string `json:"level"`
}

// logEntriesResponse is the response body for GET /logging/entries.
type logEntriesResponse struct {
	Entries []logdb.Record `json:"entries"`
	Count   int            `json:"count"`
}

// requirePipeline reports whether the log pipeline is available,
// answering 503 when the service is running in console-only degraded
// mode.
func (s *Service) requirePipeline(writer http.ResponseWriter) bool {
	if s.pipeline == nil {
		s.respondError(writer, http.StatusServiceUnavailable, "log database unavailable")
		return false
	}
	return true
}

func (s *Service) handleGetLogLevel(writer http.ResponseWriter, request *http.Request) {
	if !s.requirePipeline(writer) {
		return
	}
	s.respondJSON(writer, http.StatusOK, map[string]string{"level": s.pipeline.Level()})
}

func (s *Service) handleSetLogLevel(writer http.ResponseWriter, request *http.Request) {
	if !s.requirePipeline(writer) {
		return
	}

	var update logLevelUpdate
	if err := decodeJSON(request, &update); err != nil {
		s.respondError(writer, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.pipeline.SetLevel(update.Level); err != nil {
		s.respondError(writer, http.StatusBadRequest, fmt.Sprintf("Invalid log level: %v", err))
		return
	}
	s.respondJSON(writer, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Log level updated to %s", s.pipeline.Level()),
	})
}

func (s *Service) handleGetLogEntries(writer http.ResponseWriter, request *http.Request) {
	if !s.requirePipeline(writer) {
		return
	}

	query := request.URL.Query()
	filter := logdb.Filter{
		Level:      query.Get("level"),
		LoggerName: query.Get("logger_name"),
	}

	// Time bounds arrive as RFC 3339 and are normalized to the
	// storage timestamp format so range comparison is exact.
	for _, bound := range []struct {
		name   string
		target *string
	}{
		{"start_time", &filter.Start},
		{"end_time", &filter.End},
	} {
		raw := query.Get(bound.name)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			s.respondError(writer, http.StatusBadRequest,
				fmt.Sprintf("invalid %s: %v", bound.name, err))
			return
		}
		*bound.target = logdb.FormatTimestamp(parsed)
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.respondError(writer, http.StatusBadRequest, "invalid limit: "+raw)
			return
		}
		filter.Limit = limit
	}

	records, err := s.pipeline.Logs(request.Context(), filter)
	if err != nil {
		s.logger.Error("querying logs", "error", err)
		s.respondError(writer, http.StatusInternalServerError, "Unexpected error")
		return
	}
	if records == nil {
		records = []logdb.Record{}
	}
	s.respondJSON(writer, http.StatusOK, logEntriesResponse{Entries: records, Count: len(records)})
}

func (s *Service) handleLogStats(writer http.ResponseWriter, request *http.Request) {
	if !s.requirePipeline(writer) {
		return
	}
	stats := s.pipeline.Stats()
	s.respondJSON(writer, http.StatusOK, map[string]uint64{
		"enqueued":     stats.Enqueued,
		"written":      stats.Written,
		"dropped":      stats.Dropped,
		"write_errors": stats.WriteErrors,
	})
}

func (s *Service) handleLogCleanup(writer http.ResponseWriter, request *http.Request) {
	if !s.requirePipeline(writer) {
		return
	}

	days := defaultCleanupDays
	if raw := request.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.respondError(writer, http.StatusBadRequest, "invalid days: "+raw)
			return
		}
		days = parsed
	}

	deleted, err := s.pipeline.Purge(request.Context(), days)
	if err != nil {
		s.logger.Error("log cleanup failed", "error", err)
		s.respondError(writer, http.StatusInternalServerError, "Unexpected error")
		return
	}
	s.respondJSON(writer, http.StatusOK, map[string]any{
		"deleted": deleted,
		"message": fmt.Sprintf("Deleted %d log records older than %d days", deleted, days),
	})
}
