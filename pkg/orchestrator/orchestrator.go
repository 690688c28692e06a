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

// Package orchestrator is the top-level orchestration component (C9):
// it ingests raw user context, identifies the task type, selects and
// spawns an agent, executes it, and persists the resulting task record.
// Orchestrate is the one place in this module where a failure is still
// allowed to surface as a Go error — everything past the precondition
// check is captured into a typed result instead.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ramisra/agentflow/pkg/agentcontract"
	"github.com/ramisra/agentflow/pkg/agentregistry"
	"github.com/ramisra/agentflow/pkg/agentspawner"
	"github.com/ramisra/agentflow/pkg/contextstore"
	"github.com/ramisra/agentflow/pkg/reasoner"
	"github.com/ramisra/agentflow/pkg/store"
	"github.com/ramisra/agentflow/pkg/svcerr"
	"github.com/ramisra/agentflow/pkg/taskidentifier"
)

const callerTag = "Orchestrator"

const contextProcessingSystemPrompt = "You extract structured context candidates from raw user " +
	"input and return valid JSON matching the requested schema. Never invent content that " +
	"is not present in the source text."

// Request is one orchestration request: the raw signals a task is built
// from, plus an optional caller-supplied task type that skips
// classification entirely.
type Request struct {
	UserID           string
	SelectedText     string
	UserContext      string
	URLs             []string
	ExplicitTaskType string
}

// TaskResult is the outcome of one orchestration, mirroring the
// persisted task record plus the in-memory execution detail a caller
// may want to inspect.
type TaskResult struct {
	TaskID             string
	TaskType           string
	ContextIDs         []string
	TaskIdentification taskidentifier.Result
	ExecutionResult    agentcontract.Result
}

// Orchestrator wires the context store, task identifier, agent
// registry, and agent spawner into the end-to-end orchestration pipeline.
type Orchestrator struct {
	contextStore    *contextstore.ContextStore
	identifier      *taskidentifier.Identifier
	registry        *agentregistry.Registry
	spawner         *agentspawner.Spawner
	store           *store.Store
	contextReasoner reasoner.Reasoner
}

// New builds an Orchestrator from its collaborators. contextReasoner is
// used only for the context-ingestion step's extraction call; it is
// typically the same backend the identifier and spawned agents reason
// through.
func New(
	contextStore *contextstore.ContextStore,
	identifier *taskidentifier.Identifier,
	registry *agentregistry.Registry,
	spawner *agentspawner.Spawner,
	taskStore *store.Store,
	contextReasoner reasoner.Reasoner,
) *Orchestrator {
	return &Orchestrator{
		contextStore:    contextStore,
		identifier:      identifier,
		registry:        registry,
		spawner:         spawner,
		store:           taskStore,
		contextReasoner: contextReasoner,
	}
}

// Orchestrate runs the full pipeline: precondition check, context
// ingestion, task identification, agent selection and execution, and
// task persistence. Only the precondition check can fail the call
// outright — every later failure is captured into the returned
// TaskResult's ExecutionResult instead.
func (o *Orchestrator) Orchestrate(ctx context.Context, req Request) (TaskResult, error) {
	rawText := strings.TrimSpace(req.SelectedText + "\n" + req.UserContext)
	if rawText == "" && len(req.URLs) == 0 {
		return TaskResult{}, svcerr.NewOrchestrationError(svcerr.KindInvalidInput, "Orchestrate",
			"at least one of selected_text, user_context or urls is required", nil)
	}

	contextIDs, tags := o.ingestContexts(ctx, req, rawText)

	identification := o.identifyTask(ctx, req, rawText, tags)

	result, taskType := o.selectAndExecute(ctx, req, identification, rawText, contextIDs)

	taskID := uuid.NewString()
	o.persistTask(ctx, taskID, req.UserID, taskType, identification, result, contextIDs)

	return TaskResult{
		TaskID:             taskID,
		TaskType:           taskType,
		ContextIDs:         contextIDs,
		TaskIdentification: identification,
		ExecutionResult:    result,
	}, nil
}

// contextCandidate is one piece of context recovered from raw input
// during ingestion — held only in memory, never written to a file
// artifact.
type contextCandidate struct {
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Tags         []string `json:"tags"`
	Content      string   `json:"content"`
	ShortSummary string   `json:"short_summary"`
}

// ingestContexts extracts context candidates from the request's raw
// signals, stages each as a context-store create, and commits the batch.
// A single candidate's create failing does not abort the others; if
// nothing survives, one fallback context is created from the raw input
// verbatim. Returns the committed context IDs and the union of tags
// seen across every candidate, for use as task-identification metadata.
func (o *Orchestrator) ingestContexts(ctx context.Context, req Request, rawText string) ([]string, []string) {
	candidates := o.extractContextCandidates(ctx, req, rawText)

	tagSet := make(map[string]bool)
	staged := 0
	for _, c := range candidates {
		content := c.Content
		if content == "" {
			content = c.ShortSummary
		}
		if content == "" {
			continue
		}

		if _, err := o.contextStore.Create(ctx, contextstore.CreateInput{
			UserID:     req.UserID,
			RawContent: content,
			Tags:       c.Tags,
			URL:        c.URL,
			Kind:       "text",
			FindParent: true,
		}); err != nil {
			slog.Warn("orchestrator: context candidate ingest failed, continuing", "error", err)
			continue
		}
		staged++
		for _, t := range c.Tags {
			tagSet[t] = true
		}
	}

	if staged == 0 && rawText != "" {
		if _, err := o.contextStore.Create(ctx, contextstore.CreateInput{
			UserID:     req.UserID,
			RawContent: rawText,
			Tags:       []string{"user_input"},
			FindParent: true,
		}); err != nil {
			slog.Warn("orchestrator: fallback context ingest failed", "error", err)
		} else {
			tagSet["user_input"] = true
		}
	}

	committed, err := o.contextStore.Commit(ctx)
	if err != nil {
		slog.Warn("orchestrator: context commit partially failed", "error", err)
	}

	tags := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, t)
	}
	return committed, tags
}

// extractContextCandidates asks the reasoner to break raw input into
// structured context candidates. Any failure to call or parse the
// backend yields zero candidates, falling through to ingestContexts'
// raw-input fallback — this step never fails the orchestration.
func (o *Orchestrator) extractContextCandidates(ctx context.Context, req Request, rawText string) []contextCandidate {
	if o.contextReasoner == nil {
		return nil
	}

	var prompt strings.Builder
	prompt.WriteString("Extract one or more context candidates from the following input.\n\n")
	if len(req.URLs) > 0 {
		prompt.WriteString("URLs:\n")
		for _, u := range req.URLs {
			prompt.WriteString("- " + u + "\n")
		}
		prompt.WriteString("\n")
	}
	if rawText != "" {
		prompt.WriteString("Text:\n" + rawText + "\n\n")
	}
	prompt.WriteString(`Return a JSON object with this exact structure:
{
  "contexts": [
    {"url": "optional source url", "title": "optional title", "tags": ["tag1", "tag2"], "content": "the extracted content", "short_summary": "one-sentence summary"}
  ]
}`)

	jsonResult := o.contextReasoner.ReasonJSON(ctx, reasoner.Request{
		Prompt:    prompt.String(),
		System:    contextProcessingSystemPrompt,
		CallerTag: callerTag,
	})
	if jsonResult.Err != nil || !jsonResult.Parsed {
		return nil
	}

	raw, ok := jsonResult.Value["contexts"].([]any)
	if !ok {
		return nil
	}

	candidates := make([]contextCandidate, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		candidates = append(candidates, contextCandidate{
			URL:          stringField(m, "url"),
			Title:        stringField(m, "title"),
			Tags:         stringSliceField(m, "tags"),
			Content:      stringField(m, "content"),
			ShortSummary: stringField(m, "short_summary"),
		})
	}
	return candidates
}

// identifyTask classifies the task type, unless the caller already
// supplied one explicitly — an explicit type skips classification
// entirely and is trusted verbatim.
func (o *Orchestrator) identifyTask(ctx context.Context, req Request, rawText string, tags []string) taskidentifier.Result {
	if req.ExplicitTaskType != "" {
		return taskidentifier.Result{
			TaskType:   req.ExplicitTaskType,
			Confidence: 1.0,
			Reasoning:  "explicit task type supplied by caller",
		}
	}

	metadata := map[string]any{}
	if len(req.URLs) > 0 {
		metadata["urls"] = req.URLs
	}
	if len(tags) > 0 {
		metadata["tags"] = tags
	}
	return o.identifier.Identify(ctx, rawText, metadata)
}

// selectAndExecute resolves an agent for the identified task type,
// composes its tool surface, executes it, and captures any failure
// (missing agent, spawn failure, panic in agent code) into a failed
// Result rather than letting it escape as a Go error.
func (o *Orchestrator) selectAndExecute(
	ctx context.Context,
	req Request,
	identification taskidentifier.Result,
	rawText string,
	contextIDs []string,
) (result agentcontract.Result, taskType string) {
	taskType = identification.TaskType

	factory, descriptor, err := o.registry.LookupByTaskType(taskType)
	if err != nil {
		return agentcontract.Result{
			Status: agentcontract.StatusFailed,
			Error:  "no agent found for task type: " + taskType,
		}, taskType
	}

	agent, err := o.spawner.Spawn(descriptor, factory, req.UserID)
	if err != nil {
		return agentcontract.Result{
			Status: agentcontract.StatusFailed,
			Error:  fmt.Sprintf("failed to spawn agent %q: %v", descriptor.AgentID, err),
		}, taskType
	}

	agentCtx := agentcontract.Context{
		UserID:             req.UserID,
		RawText:            rawText,
		TaskIdentification: toContractIdentification(identification),
		Metadata: map[string]any{
			"urls": req.URLs,
		},
		ContextIDs:  contextIDs,
		SharedState: map[string]any{},
	}

	return o.executeSafely(ctx, agent, agentcontract.Input(identification.Input), agentCtx), taskType
}

// executeSafely runs the agent's Execute, converting a panic into a
// failed Result — the orchestrator is the last place an agent's
// misbehaviour can still become an exception instead of data.
func (o *Orchestrator) executeSafely(ctx context.Context, agent agentcontract.Agent, input agentcontract.Input, agentCtx agentcontract.Context) (result agentcontract.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = agentcontract.Result{
				Status: agentcontract.StatusFailed,
				Error:  fmt.Sprintf("agent execution panicked: %v", r),
			}
		}
	}()
	return agent.Execute(ctx, input, agentCtx)
}

// persistTask writes the task record. A persistence failure is logged,
// not surfaced — the orchestration's in-memory result still stands under
// best-effort persistence.
func (o *Orchestrator) persistTask(
	ctx context.Context,
	taskID, userID, taskType string,
	identification taskidentifier.Result,
	result agentcontract.Result,
	contextIDs []string,
) {
	if o.store == nil {
		return
	}

	inputJSON, _ := json.Marshal(identification.Input)
	outputJSON, _ := json.Marshal(result.Result)

	task := store.Task{
		TaskID:     taskID,
		UserID:     userID,
		TaskType:   taskType,
		Input:      string(inputJSON),
		Output:     string(outputJSON),
		ContextIDs: contextIDs,
		Status:     statusToTaskStatus(result.Status),
		CreatedAt:  time.Now().UTC(),
	}

	if err := o.store.CreateTask(ctx, task); err != nil {
		slog.Warn("orchestrator: task persistence failed", "task_id", taskID, "error", err)
	}
}

func statusToTaskStatus(s agentcontract.Status) string {
	switch s {
	case agentcontract.StatusCompleted:
		return store.TaskStatusCompleted
	case agentcontract.StatusPartial:
		return store.TaskStatusPartial
	case agentcontract.StatusFailed:
		return store.TaskStatusFailed
	default:
		return store.TaskStatusFailed
	}
}

func toContractIdentification(r taskidentifier.Result) agentcontract.TaskIdentification {
	return agentcontract.TaskIdentification{
		TaskType:         r.TaskType,
		Confidence:       r.Confidence,
		Reasoning:        r.Reasoning,
		AlternativeTypes: r.AlternativeTypes,
		Input:            r.Input,
		Output:           r.Output,
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func stringSliceField(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
