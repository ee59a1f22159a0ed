// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opine-ai/opine/lib/agent"
	"github.com/opine-ai/opine/lib/checkpoint"
	"github.com/opine-ai/opine/lib/clock"
	"github.com/opine-ai/opine/lib/config"
	"github.com/opine-ai/opine/lib/logdb"
)

// retentionInterval is how often the retention loop purges old log
// records. The first purge runs at startup.
const retentionInterval = 24 * time.Hour

// Service holds the wired-up state behind the HTTP API.
type Service struct {
	config      *config.Config
	authSecret  string
	runner      *agent.Runner
	checkpoints *checkpoint.Store

	// pipeline is nil when the log database could not be opened and
	// the service is running in console-only degraded mode.
	pipeline *logdb.Pipeline

	clock     clock.Clock
	logger    *slog.Logger
	startedAt time.Time
}

// routes builds the HTTP routing table. Health and metadata are open;
// everything else sits behind bearer authentication.
func (s *Service) routes() http.Handler {
	router := chi.NewRouter()

	router.Get("/health", s.handleHealth)
	router.Get("/info", s.handleInfo)

	router.Group(func(protected chi.Router) {
		protected.Use(s.requireAuth)

		protected.Post("/inference/invoke", s.handleInvoke)
		protected.Post("/history", s.handleHistory)
		protected.Delete("/thread/{threadID}", s.handleDeleteThread)

		protected.Route("/logging", func(logging chi.Router) {
			logging.Get("/level", s.handleGetLogLevel)
			logging.Put("/level", s.handleSetLogLevel)
			logging.Get("/entries", s.handleGetLogEntries)
			logging.Get("/stats", s.handleLogStats)
			logging.Delete("/cleanup", s.handleLogCleanup)
		})
	})

	return router
}

// requireAuth enforces the bearer token. An unset secret leaves the
// service open; a set secret rejects missing or mismatched tokens
// with 401. The comparison is constant-time.
func (s *Service) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if s.authSecret == "" {
			next.ServeHTTP(writer, request)
			return
		}

		header := request.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authSecret)) != 1 {
			s.respondError(writer, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// retentionLoop purges log records older than the configured
// retention window, once at startup and then daily.
func (s *Service) retentionLoop(ctx context.Context) {
	s.purgeOldLogs(ctx)

	ticker := s.clock.NewTicker(retentionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purgeOldLogs(ctx)
		}
	}
}

func (s *Service) purgeOldLogs(ctx context.Context) {
	deleted, err := s.pipeline.Purge(ctx, s.config.Logging.RetentionDays)
	if err != nil {
		s.logger.Error("log retention purge failed", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("log retention purge complete",
			"deleted", deleted,
			"retention_days", s.config.Logging.RetentionDays,
		)
	}
}

// respondJSON writes a JSON response body with the given status.
func (s *Service) respondJSON(writer http.ResponseWriter, status int, body any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(body); err != nil {
		s.logger.Error("writing response", "error", err)
	}
}

// respondError writes the service's error payload shape.
func (s *Service) respondError(writer http.ResponseWriter, status int, message string) {
	s.respondJSON(writer, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON request body into target. Unknown fields
// are rejected so client typos surface as errors instead of silently
// ignored options.
func decodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}
