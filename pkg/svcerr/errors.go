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

// Package svcerr defines the typed, per-concern error structs used across
// the orchestration service. Error kinds are represented as an exported
// Kind string on each struct rather than as distinct Go types, so a single
// struct family per concern keeps errors.As simple.
package svcerr

import "fmt"

// ContextStoreError represents a failure in the context store (create,
// fetch, search, parent-topic linking).
type ContextStoreError struct {
	Kind      string
	Component string
	Operation string
	Message   string
	Err       error
}

func (e *ContextStoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Operation, e.Message)
}

func (e *ContextStoreError) Unwrap() error { return e.Err }

func NewContextStoreError(kind, operation, message string, err error) *ContextStoreError {
	return &ContextStoreError{Kind: kind, Component: "ContextStore", Operation: operation, Message: message, Err: err}
}

// ReasonerError represents a failure from the reasoning backend. Reasoner
// errors are data, not exceptions: callers receive this as a field on the
// result, never as a panic.
type ReasonerError struct {
	Kind      string
	Component string
	Operation string
	Message   string
	Err       error
}

func (e *ReasonerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Operation, e.Message)
}

func (e *ReasonerError) Unwrap() error { return e.Err }

func NewReasonerError(kind, operation, message string, err error) *ReasonerError {
	return &ReasonerError{Kind: kind, Component: "Reasoner", Operation: operation, Message: message, Err: err}
}

// ToolError represents a failure dispatching a tool call through the tool
// surface (built-in server or fallback provider).
type ToolError struct {
	Kind      string
	Component string
	Tool      string
	Message   string
	Err       error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("[%s] tool %q: %s", e.Component, e.Tool, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

func NewToolError(kind, tool, message string, err error) *ToolError {
	return &ToolError{Kind: kind, Component: "ToolSurface", Tool: tool, Message: message, Err: err}
}

// RegistryError represents a failure in the agent registry (load, lookup,
// class resolution).
type RegistryError struct {
	Kind      string
	Component string
	Operation string
	Message   string
	Err       error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Operation, e.Message)
}

func (e *RegistryError) Unwrap() error { return e.Err }

func NewRegistryError(kind, operation, message string, err error) *RegistryError {
	return &RegistryError{Kind: kind, Component: "AgentRegistry", Operation: operation, Message: message, Err: err}
}

// OrchestrationError represents a failure at or past the orchestrator
// boundary — the last place a failure can surface as a Go error rather
// than a typed agent_result/task record.
type OrchestrationError struct {
	Kind      string
	Component string
	Operation string
	Message   string
	Err       error
}

func (e *OrchestrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Operation, e.Message)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }

func NewOrchestrationError(kind, operation, message string, err error) *OrchestrationError {
	return &OrchestrationError{Kind: kind, Component: "Orchestrator", Operation: operation, Message: message, Err: err}
}

// Error kind constants, matching the taxonomy of the failure-semantics
// table: invalid-input, classification-uncertain, ingest-partial,
// agent-missing, tool-failure, reasoner-error, persistence-failure,
// cancelled.
const (
	KindInvalidInput           = "invalid-input"
	KindClassificationUncertain = "classification-uncertain"
	KindIngestPartial          = "ingest-partial"
	KindAgentMissing           = "agent-missing"
	KindToolFailure            = "tool-failure"
	KindReasonerError          = "reasoner-error"
	KindPersistenceFailure     = "persistence-failure"
	KindCancelled              = "cancelled"
)
