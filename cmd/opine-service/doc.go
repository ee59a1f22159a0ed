// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

// opine-service is the HTTP service for sentiment-classification
// agents. It exposes agent invocation, per-thread chat history and
// deletion, service metadata, and a log-inspection API backed by the
// asynchronous SQLite log pipeline.
//
// Configuration comes from a YAML file (OPINE_CONFIG or --config) with
// built-in defaults; credentials come from the environment
// (OPENAI_API_KEY, OPINE_AUTH_SECRET).
package main
