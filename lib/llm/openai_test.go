// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// openaiTestServer creates a test HTTP server and returns an OpenAI
// provider pointed at it.
func openaiTestServer(t *testing.T, handler http.Handler) *OpenAI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOpenAI(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
	})
}

func TestOpenAIComplete(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(writer http.ResponseWriter, request *http.Request) {
		if got := request.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", got)
		}
		if got := request.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}

		var wireRequest struct {
			Model       string   `json:"model"`
			MaxTokens   int      `json:"max_tokens"`
			Temperature *float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(request.Body).Decode(&wireRequest); err != nil {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}

		if wireRequest.Model != "gpt-4o-mini" {
			t.Errorf("model = %q, want gpt-4o-mini", wireRequest.Model)
		}
		if wireRequest.MaxTokens != 1024 {
			t.Errorf("max_tokens = %d, want 1024", wireRequest.MaxTokens)
		}
		if wireRequest.Temperature == nil || *wireRequest.Temperature != 0.5 {
			t.Errorf("temperature = %v, want 0.5", wireRequest.Temperature)
		}

		// System prompt first, then the conversation turns in order.
		wantMessages := []struct{ role, content string }{
			{"system", "Classify the sentiment."},
			{"user", "I love this."},
			{"assistant", "positive"},
			{"user", "It broke immediately."},
		}
		if len(wireRequest.Messages) != len(wantMessages) {
			t.Fatalf("messages length = %d, want %d", len(wireRequest.Messages), len(wantMessages))
		}
		for i, want := range wantMessages {
			if wireRequest.Messages[i].Role != want.role {
				t.Errorf("messages[%d].role = %q, want %q", i, wireRequest.Messages[i].Role, want.role)
			}
			if wireRequest.Messages[i].Content != want.content {
				t.Errorf("messages[%d].content = %q, want %q", i, wireRequest.Messages[i].Content, want.content)
			}
		}

		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(map[string]any{
			"id":    "chatcmpl-test",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": "negative",
				},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{
				"prompt_tokens":     42,
				"completion_tokens": 1,
			},
		})
	})

	provider := openaiTestServer(t, mux)

	temperature := 0.5
	response, err := provider.Complete(context.Background(), Request{
		Model:       "gpt-4o-mini",
		System:      "Classify the sentiment.",
		MaxTokens:   1024,
		Temperature: &temperature,
		Messages: []Message{
			UserMessage("I love this."),
			AssistantMessage("positive"),
			UserMessage("It broke immediately."),
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if response.Content != "negative" {
		t.Errorf("Content = %q, want negative", response.Content)
	}
	if response.StopReason != StopReasonEndTurn {
		t.Errorf("StopReason = %q, want end_turn", response.StopReason)
	}
	if response.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want gpt-4o-mini", response.Model)
	}
	if response.Usage.InputTokens != 42 || response.Usage.OutputTokens != 1 {
		t.Errorf("Usage = %+v, want 42/1", response.Usage)
	}
}

func TestOpenAICompleteOmitsSystemWhenEmpty(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(writer http.ResponseWriter, request *http.Request) {
		var wireRequest struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(request.Body).Decode(&wireRequest); err != nil {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}
		if len(wireRequest.Messages) != 1 || wireRequest.Messages[0].Role != "user" {
			t.Errorf("messages = %+v, want single user message", wireRequest.Messages)
		}

		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(map[string]any{
			"model": "gpt-4o-mini",
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "neutral"},
				"finish_reason": "stop",
			}},
		})
	})

	provider := openaiTestServer(t, mux)
	response, err := provider.Complete(context.Background(), Request{
		Model:    "gpt-4o-mini",
		Messages: []Message{UserMessage("hello")},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if response.Content != "neutral" {
		t.Errorf("Content = %q, want neutral", response.Content)
	}
}

func TestOpenAICompleteLengthFinish(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(map[string]any{
			"model": "gpt-4o-mini",
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "truncated outp"},
				"finish_reason": "length",
			}},
		})
	})

	provider := openaiTestServer(t, mux)
	response, err := provider.Complete(context.Background(), Request{
		Model:    "gpt-4o-mini",
		Messages: []Message{UserMessage("hello")},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if response.StopReason != StopReasonMaxTokens {
		t.Errorf("StopReason = %q, want max_tokens", response.StopReason)
	}
}

func TestOpenAICompleteProviderError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(writer).Encode(map[string]any{
			"error": map[string]any{
				"type":    "invalid_request_error",
				"message": "Incorrect API key provided",
			},
		})
	})

	provider := openaiTestServer(t, mux)
	_, err := provider.Complete(context.Background(), Request{
		Model:    "gpt-4o-mini",
		Messages: []Message{UserMessage("hello")},
	})
	if err == nil {
		t.Fatal("Complete succeeded, want error")
	}

	var providerError *ProviderError
	if !errors.As(err, &providerError) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if providerError.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", providerError.StatusCode)
	}
	if providerError.Type != "invalid_request_error" {
		t.Errorf("Type = %q, want invalid_request_error", providerError.Type)
	}
	if providerError.IsRateLimited() {
		t.Error("IsRateLimited() = true for a 401")
	}
}

func TestOpenAICompleteRateLimit(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(writer).Encode(map[string]any{
			"error": map[string]any{
				"type":    "rate_limit_error",
				"message": "Rate limit reached",
			},
		})
	})

	provider := openaiTestServer(t, mux)
	_, err := provider.Complete(context.Background(), Request{
		Model:    "gpt-4o-mini",
		Messages: []Message{UserMessage("hello")},
	})

	var providerError *ProviderError
	if !errors.As(err, &providerError) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if !providerError.IsRateLimited() {
		t.Error("IsRateLimited() = false for a 429")
	}
}

func TestOpenAICompleteNonJSONError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
		writer.Write([]byte("upstream unavailable"))
	})

	provider := openaiTestServer(t, mux)
	_, err := provider.Complete(context.Background(), Request{
		Model:    "gpt-4o-mini",
		Messages: []Message{UserMessage("hello")},
	})

	var providerError *ProviderError
	if !errors.As(err, &providerError) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if providerError.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", providerError.StatusCode)
	}
	if providerError.Message != "upstream unavailable" {
		t.Errorf("Message = %q, want raw body", providerError.Message)
	}
}
