// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent defines the service's agents: named system prompts
// with an invocation path over an LLM provider. The registry is
// static; agents are compiled into the binary.
package agent

import (
	"fmt"
	"sort"
)

// DefaultAgent is the agent used when a request does not name one.
const DefaultAgent = "sentiment_agent"

// sentimentPrompt instructs the model to answer with exactly one of
// the three sentiment labels and nothing else.
const sentimentPrompt = `You are a sentiment analysis agent.
You will be given a text of product reviews, and you need to analyze the sentiment of the text.
You must classify the sentiment as exactly one of these values: "positive", "neutral", or "negative".
Do not provide any additional explanation - only return the sentiment classification.`

// Agent is one registered agent.
type Agent struct {
	// Key is the registry identifier.
	Key string

	// Description is a human-readable summary for service metadata.
	Description string

	// SystemPrompt is prepended to every conversation sent to the
	// model.
	SystemPrompt string
}

// Info is the metadata shape exposed by the service's /info endpoint.
type Info struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

var registry = map[string]Agent{
	"sentiment_agent": {
		Key:          "sentiment_agent",
		Description:  "A sentiment analysis agent.",
		SystemPrompt: sentimentPrompt,
	},
}

// Get returns the agent registered under key.
func Get(key string) (Agent, error) {
	agent, ok := registry[key]
	if !ok {
		return Agent{}, fmt.Errorf("agent: unknown agent %q", key)
	}
	return agent, nil
}

// All returns metadata for every registered agent, sorted by key.
func All() []Info {
	infos := make([]Info, 0, len(registry))
	for _, agent := range registry {
		infos = append(infos, Info{Key: agent.Key, Description: agent.Description})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}
