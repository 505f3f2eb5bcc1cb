// Copyright 2026 Athena Law
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrToolNotFound signals that no provider knows the requested
// operation. "I don't know this tool" is a normal outcome, distinct
// from "this tool failed".
var ErrToolNotFound = errors.New("tool not found")

// ErrStreamingUnsupported signals that the resolved operation does not
// support incremental emission. Remote routes never stream.
var ErrStreamingUnsupported = errors.New("tool does not support streaming")

// LocalProvider is the provider name of the process itself.
const LocalProvider = "local"

// CapabilityDescriptor advertises one operation for introspection.
type CapabilityDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// ContentPart is one element of a tool result payload.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the outcome of one tool execution.
type Result struct {
	Content  []ContentPart  `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Text concatenates the text parts of the result.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	var out string
	for _, part := range r.Content {
		out += part.Text
	}
	return out
}

// TextResult wraps plain text in a single-part result.
func TextResult(text string) *Result {
	return &Result{Content: []ContentPart{{Type: "text", Text: text}}}
}

// JSONResult renders a value as a single JSON text part.
func JSONResult(v any) (*Result, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return TextResult(string(data)), nil
}

// StreamEvent is one incremental emission from a streaming execution.
type StreamEvent struct {
	Type string         `json:"type"`
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// Handler executes one or more named operations locally.
type Handler interface {
	// Capabilities declares the operations this handler serves. The
	// registry derives local routes from it at registration time.
	Capabilities() []CapabilityDescriptor

	// Execute runs one declared operation.
	Execute(ctx context.Context, operation string, args map[string]any) (*Result, error)
}

// StreamingHandler is a Handler that can emit incremental events while
// an operation runs. Events are written to the channel; the final
// result is returned as usual.
type StreamingHandler interface {
	Handler

	ExecuteStream(ctx context.Context, operation string, args map[string]any, events chan<- StreamEvent) (*Result, error)
}

// Route maps one operation name to its provider. Routes for local
// handlers are derived at registration; remote routes are declared
// statically at startup. Routes never mutate afterwards.
type Route struct {
	Operation string `json:"operation"`
	Provider  string `json:"provider"`
	Local     bool   `json:"local"`
}
