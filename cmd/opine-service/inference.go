// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/opine-ai/opine/lib/agent"
	"github.com/opine-ai/opine/lib/checkpoint"
	"github.com/opine-ai/opine/lib/llm"
)

// userInput is the request body for POST /inference/invoke.
type userInput struct {
	// Message is the text to classify. Required.
	Message string `json:"message"`

	// Model is the service-facing model name. Empty uses the
	// configured default.
	Model string `json:"model,omitempty"`

	// ThreadID continues an existing conversation. Empty starts a
	// new thread with a generated ID.
	ThreadID string `json:"thread_id,omitempty"`
}

// chatMessage is one conversation message on the wire. Type is
// "human" for user turns and "ai" for agent turns.
type chatMessage struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	RunID    string `json:"run_id,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
}

func (s *Service) handleInvoke(writer http.ResponseWriter, request *http.Request) {
	var input userInput
	if err := decodeJSON(request, &input); err != nil {
		s.respondError(writer, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if input.Message == "" {
		s.respondError(writer, http.StatusBadRequest, "message is required")
		return
	}

	model := input.Model
	if model == "" {
		model = s.config.LLM.DefaultModel
	}
	// Reject unsupported models before touching storage or the
	// provider.
	if _, err := agent.ResolveModel(model); err != nil {
		s.respondError(writer, http.StatusUnprocessableEntity, err.Error())
		return
	}

	runID := uuid.NewString()
	threadID := input.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	ctx := request.Context()
	turns, err := s.checkpoints.History(ctx, threadID)
	if err != nil {
		s.logger.Error("loading thread history", "error", err, "thread_id", threadID)
		s.respondError(writer, http.StatusInternalServerError, "Unexpected error")
		return
	}

	response, err := s.runner.Invoke(ctx, agent.Invocation{
		Model:   model,
		History: turnsToMessages(turns),
		Message: input.Message,
	})
	if err != nil {
		s.logger.Error("agent invocation failed",
			"error", err,
			"run_id", runID,
			"thread_id", threadID,
		)
		var providerError *llm.ProviderError
		if errors.As(err, &providerError) && providerError.IsRateLimited() {
			s.respondError(writer, http.StatusTooManyRequests, "rate limited by model provider")
			return
		}
		s.respondError(writer, http.StatusInternalServerError, "Unexpected error")
		return
	}

	// Persist the exchange. A write failure here loses the turn but
	// the client still gets its answer; the failure is logged.
	if err := s.checkpoints.Append(ctx, threadID, checkpoint.Turn{
		Type:    "human",
		Content: input.Message,
		RunID:   runID,
	}); err != nil {
		s.logger.Error("persisting user turn", "error", err, "thread_id", threadID)
	}
	if err := s.checkpoints.Append(ctx, threadID, checkpoint.Turn{
		Type:    "ai",
		Content: response.Content,
		RunID:   runID,
	}); err != nil {
		s.logger.Error("persisting agent turn", "error", err, "thread_id", threadID)
	}

	s.respondJSON(writer, http.StatusOK, chatMessage{
		Type:     "ai",
		Content:  response.Content,
		RunID:    runID,
		ThreadID: threadID,
	})
}

// turnsToMessages converts persisted turns into provider messages.
// Turn types outside the wire vocabulary are skipped rather than
// guessed at.
func turnsToMessages(turns []checkpoint.Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Type {
		case "human":
			messages = append(messages, llm.UserMessage(turn.Content))
		case "ai":
			messages = append(messages, llm.AssistantMessage(turn.Content))
		}
	}
	return messages
}
