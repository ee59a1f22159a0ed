// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package llm

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// UserMessage builds a user-authored message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage builds an assistant-authored message.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// Request is a provider-agnostic completion request. The system
// prompt is carried separately from the message turns because
// providers differ in how they encode it.
type Request struct {
	// Model is the provider's model identifier.
	Model string

	// System is the system prompt. Empty means none.
	System string

	// Messages is the conversation so far, oldest first, ending with
	// the turn the model should respond to.
	Messages []Message

	// MaxTokens caps the response length. Zero lets the provider
	// apply its default.
	MaxTokens int

	// Temperature overrides the provider's default sampling
	// temperature when non-nil.
	Temperature *float64
}

// StopReason reports why the model stopped generating.
type StopReason string

const (
	// StopReasonEndTurn means the model finished its turn naturally.
	StopReasonEndTurn StopReason = "end_turn"

	// StopReasonMaxTokens means generation hit the MaxTokens cap.
	StopReasonMaxTokens StopReason = "max_tokens"
)

// Usage reports token consumption for one request.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is a provider-agnostic completion result.
type Response struct {
	// Model is the model that produced the response, as reported by
	// the provider (may differ from the requested alias).
	Model string

	// Content is the generated text.
	Content string

	// StopReason reports why generation ended.
	StopReason StopReason

	// Usage reports token consumption.
	Usage Usage
}
