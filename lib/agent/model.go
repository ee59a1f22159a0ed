// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"fmt"
	"sort"
)

// DefaultModel is used when a request does not name a model.
const DefaultModel = "gpt-4o-mini"

// modelTable maps the model names the service accepts to the
// provider's API identifiers. Today both sides coincide, but the
// mapping keeps service-facing names stable if the upstream
// identifiers change.
var modelTable = map[string]string{
	"gpt-4o-mini": "gpt-4o-mini",
	"gpt-4o":      "gpt-4o",
}

// ResolveModel maps a service-facing model name to the provider's API
// identifier. Unknown names are an error so requests for unsupported
// models are rejected up front rather than failing at the provider.
func ResolveModel(name string) (string, error) {
	apiName, ok := modelTable[name]
	if !ok {
		return "", fmt.Errorf("agent: unsupported model %q", name)
	}
	return apiName, nil
}

// Models returns the service-facing model names, sorted.
func Models() []string {
	names := make([]string, 0, len(modelTable))
	for name := range modelTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
