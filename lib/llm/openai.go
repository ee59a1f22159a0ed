// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"net/http"
	"strings"
)

// DefaultOpenAIBaseURL is the upstream API root used when no base URL
// is configured.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI implements [Provider] for the OpenAI Chat Completions API.
// It is compatible with any server that implements the same wire
// format (OpenAI, Azure OpenAI, OpenRouter, vLLM, Ollama, llama.cpp,
// etc.) by pointing BaseURL at it.
type OpenAI struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// OpenAIConfig holds the parameters for constructing an OpenAI
// provider.
type OpenAIConfig struct {
	// APIKey is sent as a bearer token. Required for the hosted API;
	// local servers may accept any value.
	APIKey string

	// BaseURL is the API root. Defaults to DefaultOpenAIBaseURL. A
	// trailing slash is trimmed.
	BaseURL string

	// HTTPClient overrides the HTTP client. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

// NewOpenAI creates an OpenAI-compatible provider.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAI{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

// Complete sends a non-streaming request and returns the full response.
func (provider *OpenAI) Complete(ctx context.Context, request Request) (*Response, error) {
	wireRequest := buildOpenAIRequest(request)

	headers := map[string]string{}
	if provider.apiKey != "" {
		headers["Authorization"] = "Bearer " + provider.apiKey
	}

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.baseURL+"/chat/completions", headers, wireRequest, "llm/openai")
	if err != nil {
		return nil, err
	}

	return decodeResponse[openaiResponse](httpResponse, "llm/openai")
}

// buildOpenAIRequest converts our types to the OpenAI wire format.
// The system prompt becomes the first message with role "system".
func buildOpenAIRequest(request Request) openaiRequest {
	wireRequest := openaiRequest{
		Model:       request.Model,
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
	}

	if request.System != "" {
		wireRequest.Messages = append(wireRequest.Messages, openaiMessage{
			Role:    "system",
			Content: request.System,
		})
	}
	for _, message := range request.Messages {
		wireRequest.Messages = append(wireRequest.Messages, openaiMessage{
			Role:    string(message.Role),
			Content: message.Content,
		})
	}

	return wireRequest
}

// --- OpenAI wire types ---
//
// These map directly to the OpenAI Chat Completions API JSON format.
// They are separate from the public types because the wire format uses
// different field names and conventions. Content is a plain string:
// this service is text-only, so the multimodal content-part array form
// is never produced.

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

func (wireResp *openaiResponse) toResponse() *Response {
	response := &Response{
		Model: wireResp.Model,
		Usage: Usage{
			InputTokens:  wireResp.Usage.PromptTokens,
			OutputTokens: wireResp.Usage.CompletionTokens,
		},
	}

	if len(wireResp.Choices) == 0 {
		return response
	}

	choice := wireResp.Choices[0]
	response.Content = choice.Message.Content
	response.StopReason = mapOpenAIFinishReason(choice.FinishReason)
	return response
}

func mapOpenAIFinishReason(reason string) StopReason {
	switch reason {
	case "stop":
		return StopReasonEndTurn
	case "length":
		return StopReasonMaxTokens
	default:
		// Preserve unknown reasons (e.g., "content_filter") as-is
		// rather than silently mapping to a default.
		return StopReason(reason)
	}
}
