// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm provides a provider-agnostic interface for Large
// Language Model chat APIs.
//
// The primary abstraction is [Provider], whose implementations
// translate between the common types in this package and each
// vendor's wire format. The service performs single blocking
// completions, so the interface covers exactly that; streaming and
// tool use are out of scope.
//
// Current provider implementations:
//   - [OpenAI]: the Chat Completions wire format (/v1/chat/completions),
//     compatible with OpenAI, Azure OpenAI, OpenRouter, vLLM, Ollama,
//     llama.cpp, and other servers speaking the same protocol.
package llm
