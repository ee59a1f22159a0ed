// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// chatHistoryInput is the request body for POST /history.
type chatHistoryInput struct {
	ThreadID string `json:"thread_id"`
}

// chatHistory is the response body for POST /history.
type chatHistory struct {
	Messages []chatMessage `json:"messages"`
}

// threadDeleteResponse is the response body for DELETE /thread/{id}.
type threadDeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Service) handleHistory(writer http.ResponseWriter, request *http.Request) {
	var input chatHistoryInput
	if err := decodeJSON(request, &input); err != nil {
		s.respondError(writer, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if input.ThreadID == "" {
		s.respondError(writer, http.StatusBadRequest, "thread_id is required")
		return
	}

	turns, err := s.checkpoints.History(request.Context(), input.ThreadID)
	if err != nil {
		s.logger.Error("loading thread history", "error", err, "thread_id", input.ThreadID)
		s.respondError(writer, http.StatusInternalServerError, "Unexpected error")
		return
	}

	messages := make([]chatMessage, len(turns))
	for i, turn := range turns {
		messages[i] = chatMessage{
			Type:    turn.Type,
			Content: turn.Content,
			RunID:   turn.RunID,
		}
	}
	s.respondJSON(writer, http.StatusOK, chatHistory{Messages: messages})
}

func (s *Service) handleDeleteThread(writer http.ResponseWriter, request *http.Request) {
	threadID := chi.URLParam(request, "threadID")
	if threadID == "" {
		s.respondError(writer, http.StatusBadRequest, "thread ID is required")
		return
	}

	if _, err := s.checkpoints.Delete(request.Context(), threadID); err != nil {
		s.logger.Error("deleting thread", "error", err, "thread_id", threadID)
		s.respondError(writer, http.StatusInternalServerError,
			fmt.Sprintf("Failed to delete thread: %v", err))
		return
	}

	s.respondJSON(writer, http.StatusOK, threadDeleteResponse{
		Success: true,
		Message: fmt.Sprintf("Thread %s successfully deleted", threadID),
	})
}
