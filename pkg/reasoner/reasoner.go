// Copyright 2025 Kadir Pekel
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

// Package reasoner wraps the reasoning backend (C2): a blocking
// prompt-in, text-or-JSON-out contract, optionally driving an
// interactive tool-call loop against a caller-supplied tool surface.
// The reasoner never raises on backend failure; every call returns a
// Result with its Err field set instead.
package reasoner

import (
	"context"
)

// ToolDispatcher dispatches a single qualified tool call (svc.<server>.<tool>)
// and returns its result as a map. Implemented by the tool surface
// composer; kept as a narrow interface here to avoid an import cycle.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, qualifiedName string, params map[string]any) (map[string]any, error)
}

// ToolSpec describes one callable tool offered to the backend.
type ToolSpec struct {
	// Name is the qualified name, e.g. "svc.notes.search".
	Name        string
	Description string
	InputSchema map[string]any
}

// Usage reports backend token accounting, when available.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Result is the outcome of a reason/reason_json call. Err is set on
// backend or tool-dispatch failure; callers decide what to do — the
// reasoner itself never panics or returns a Go error from Reason.
type Result struct {
	Text       string
	Usage      Usage
	StopReason string
	Err        error
}

// JSONResult additionally reports whether the text was successfully
// parsed as JSON and exposes the parsed value.
type JSONResult struct {
	Result
	Value    map[string]any
	Parsed   bool
	RawWarning string
}

// Request carries the parameters of a single reasoner call.
type Request struct {
	// Prompt is the user-role content sent to the backend.
	Prompt string
	// System is an optional system prompt.
	System string
	// ContextMap is rendered into the prompt's context section, if non-nil.
	ContextMap map[string]any
	// Tools lists the tool specs offered to the backend. When empty,
	// the call is a single-shot prompt -> text completion with no
	// tool-call loop.
	Tools []ToolSpec
	// Dispatcher routes backend-issued tool calls, required when Tools
	// is non-empty.
	Dispatcher ToolDispatcher
	// CallerTag identifies the calling agent/component for prompt-store
	// emission and for tagging reasoner errors.
	CallerTag string
}

// Reasoner is the backend contract every specialised agent reasons
// through.
type Reasoner interface {
	// Reason performs a single blocking call, optionally driving a
	// tool-call loop to completion.
	Reason(ctx context.Context, req Request) Result

	// ReasonJSON performs Reason, then extracts the first balanced
	// {...} substring from the resulting text and parses it as JSON.
	// Parse failure never fabricates data: Parsed is false and the raw
	// text is preserved in Result.Text.
	ReasonJSON(ctx context.Context, req Request) JSONResult
}
