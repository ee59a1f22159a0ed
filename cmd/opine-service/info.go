// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"

	"github.com/opine-ai/opine/lib/agent"
)

// serviceMetadata is the response body for GET /info.
type serviceMetadata struct {
	Agents       []agent.Info `json:"agents"`
	Models       []string     `json:"models"`
	DefaultAgent string       `json:"default_agent"`
	DefaultModel string       `json:"default_model"`
}

func (s *Service) handleInfo(writer http.ResponseWriter, request *http.Request) {
	s.respondJSON(writer, http.StatusOK, serviceMetadata{
		Agents:       agent.All(),
		Models:       agent.Models(),
		DefaultAgent: agent.DefaultAgent,
		DefaultModel: s.config.LLM.DefaultModel,
	})
}

func (s *Service) handleHealth(writer http.ResponseWriter, request *http.Request) {
	s.respondJSON(writer, http.StatusOK, map[string]string{"status": "ok"})
}
