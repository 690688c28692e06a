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

// Package agentcontract defines the execution contract every
// specialised agent implements (C7): agent_context in, agent_result out.
package agentcontract

import "context"

// Status is the terminal state of one agent execution.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusPartial   Status = "partial"
)

// TaskIdentification mirrors the taskidentifier's output, carried into
// the agent context so an agent can inspect how it was selected.
type TaskIdentification struct {
	TaskType         string
	Confidence       float64
	Reasoning        string
	AlternativeTypes []string
	Input            map[string]any
	Output           map[string]any
}

// Context carries everything one agent execution needs beyond its raw
// task input.
type Context struct {
	UserID string

	// RawText is the original free-form user text that started the
	// orchestration.
	RawText string

	TaskIdentification TaskIdentification

	// Metadata carries ingest-time signals such as urls and tags.
	Metadata map[string]any

	// ContextIDs are the persisted context rows backing this task.
	ContextIDs []string

	// SharedState is mutable, shared across steps of a multi-agent
	// workflow plan; a single-agent execution still receives one but
	// nothing else observes it.
	SharedState map[string]any
}

// Result is the outcome of one agent execution.
type Result struct {
	Status Status
	Result map[string]any

	// FilePath, Rows and ValidationErrors are optional auxiliary
	// fields populated by agents whose result shape needs them.
	FilePath         string
	Rows             []map[string]any
	ValidationErrors []string

	ExecutionMetadata map[string]any
	Error             string
}

// Input is the task-specific payload handed to Execute, normally the
// task-identification result's Input map.
type Input map[string]any

// Agent is the execution contract every specialised agent implements.
type Agent interface {
	Execute(ctx context.Context, input Input, agentCtx Context) Result
}
