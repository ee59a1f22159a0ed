// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opine-ai/opine/lib/llm"
)

// temperature is the sampling temperature for every invocation. The
// classification task wants mostly-deterministic output.
const temperature = 0.5

// Runner invokes agents against an LLM provider.
type Runner struct {
	provider llm.Provider
	logger   *slog.Logger
}

// NewRunner creates a Runner. Panics if provider is nil; that is a
// wiring bug, not a runtime condition.
func NewRunner(provider llm.Provider, logger *slog.Logger) *Runner {
	if provider == nil {
		panic("agent: NewRunner called with nil provider")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{provider: provider, logger: logger}
}

// Invocation is one agent turn: the conversation so far plus the new
// user message.
type Invocation struct {
	// Agent is the registry key. Empty means DefaultAgent.
	Agent string

	// Model is the service-facing model name. Empty means
	// DefaultModel. Unknown names are rejected before any provider
	// call.
	Model string

	// History is the prior conversation turns, oldest first.
	History []llm.Message

	// Message is the new user message.
	Message string
}

// Invoke runs one agent turn and returns the model's reply. The
// returned response carries the assistant text; persisting the
// exchange is the caller's concern.
func (runner *Runner) Invoke(ctx context.Context, invocation Invocation) (*llm.Response, error) {
	agentKey := invocation.Agent
	if agentKey == "" {
		agentKey = DefaultAgent
	}
	selected, err := Get(agentKey)
	if err != nil {
		return nil, err
	}

	modelName := invocation.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	apiModel, err := ResolveModel(modelName)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(invocation.History)+1)
	messages = append(messages, invocation.History...)
	messages = append(messages, llm.UserMessage(invocation.Message))

	sampling := temperature
	response, err := runner.provider.Complete(ctx, llm.Request{
		Model:       apiModel,
		System:      selected.SystemPrompt,
		Messages:    messages,
		Temperature: &sampling,
	})
	if err != nil {
		return nil, fmt.Errorf("agent: invoking %s: %w", agentKey, err)
	}

	runner.logger.Info("agent invocation complete",
		"logger", "agent",
		"agent", agentKey,
		"model", response.Model,
		"input_tokens", response.Usage.InputTokens,
		"output_tokens", response.Usage.OutputTokens,
	)
	return response, nil
}
