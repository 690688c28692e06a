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

// Package taskboard implements the task-board-update agent (C10): it
// extracts a set of actionable tasks (title, reason, subtasks) from user
// context via the reasoner, then creates one board card per task through
// the composed board tool server. The reasoner's expected JSON follows
// the ActionTask / ActionTasksPayload shape of
// original_source/app/core/composio_trello.py; the step sequence itself
// is this package's own.
package taskboard

import (
	"context"
	"strings"

	"github.com/ramisra/agentflow/pkg/agentcontract"
	"github.com/ramisra/agentflow/pkg/agentregistry"
	"github.com/ramisra/agentflow/pkg/reasoner"
	"github.com/ramisra/agentflow/pkg/toolsurface"
)

// ClassName is the loadable_class_name this agent registers under.
const ClassName = "agents.task_board.TaskBoardAgent"

const callerTag = "TaskBoardAgent"

const systemPrompt = "You extract actionable tasks from user context and return them as " +
	"valid JSON matching the requested schema. Each task has a title, a short reason it " +
	"matters, and an optional list of subtasks."

const defaultListName = "To Do"

func init() {
	agentregistry.RegisterFactory(ClassName, New)
}

// actionTask mirrors the title/reason/subtasks shape of the
// teacher-adjacent ActionTask model.
type actionTask struct {
	Title    string
	Reason   string
	Subtasks []string
}

// Agent extracts action items from context and files them onto a board.
type Agent struct {
	reasoner reasoner.Reasoner
	surface  *toolsurface.Surface
	listName string
}

// New builds a task-board agent from its build args. The target list
// name defaults to "To Do" but can be overridden via the descriptor's
// config map.
func New(args agentregistry.BuildArgs) (agentcontract.Agent, error) {
	args.PromptManager.SetSystemPrompt(systemPrompt)

	listName := defaultListName
	if v, ok := args.Descriptor.Config["list_name"].(string); ok && v != "" {
		listName = v
	}

	return &Agent{reasoner: args.Reasoner, surface: args.ToolSurface, listName: listName}, nil
}

// Execute asks the reasoner for a set of action tasks, then creates one
// board card per task. A task whose card creation fails is recorded but
// does not abort the remaining tasks; the overall result is failed only
// when not a single card could be created.
func (a *Agent) Execute(ctx context.Context, input agentcontract.Input, agentCtx agentcontract.Context) agentcontract.Result {
	userContext, _ := input["user_context"].(string)
	if userContext == "" {
		userContext = agentCtx.RawText
	}
	selectedText, _ := input["selected_text"].(string)

	tasks := a.extractTasks(ctx, userContext, selectedText)
	if len(tasks) == 0 {
		return agentcontract.Result{
			Status: agentcontract.StatusFailed,
			Result: map[string]any{"error": "No action tasks extracted from context."},
			Error:  "No action tasks extracted from context.",
		}
	}

	var created []map[string]any
	var failures []string
	for _, task := range tasks {
		card, err := a.surface.Dispatch(ctx, "svc.board.create_card", map[string]any{
			"list_name":   a.listName,
			"title":       task.Title,
			"description": describeTask(task),
		})
		if err != nil {
			failures = append(failures, task.Title+": "+err.Error())
			continue
		}
		created = append(created, card)
	}

	if len(created) == 0 {
		return agentcontract.Result{
			Status: agentcontract.StatusFailed,
			Result: map[string]any{"errors": failures},
			Error:  "No board cards could be created: " + strings.Join(failures, "; "),
		}
	}

	status := agentcontract.StatusCompleted
	if len(failures) > 0 {
		status = agentcontract.StatusPartial
	}

	return agentcontract.Result{
		Status: status,
		Result: map[string]any{
			"cards_created": created,
			"card_count":    len(created),
			"errors":        failures,
		},
		ValidationErrors: failures,
	}
}

// extractTasks asks the reasoner to break userContext/selectedText into
// a list of action tasks. Any failure to call or parse the backend
// yields no tasks, which the caller treats as task failure.
func (a *Agent) extractTasks(ctx context.Context, userContext, selectedText string) []actionTask {
	var prompt strings.Builder
	prompt.WriteString("Extract actionable tasks from the following context.\n\n")
	if userContext != "" {
		prompt.WriteString("User context:\n" + userContext + "\n\n")
	}
	if selectedText != "" {
		prompt.WriteString("Selected content:\n" + selectedText + "\n\n")
	}
	prompt.WriteString(`Return a JSON object with this exact structure:
{
  "tasks": [
    {"title": "short task title", "reason": "why this matters", "subtasks": ["optional", "breakdown"]}
  ]
}`)

	jsonResult := a.reasoner.ReasonJSON(ctx, reasoner.Request{
		Prompt:     prompt.String(),
		System:     systemPrompt,
		ContextMap: map[string]any{"user_context": userContext},
		CallerTag:  callerTag,
	})
	if jsonResult.Err != nil || !jsonResult.Parsed {
		return nil
	}

	raw, ok := jsonResult.Value["tasks"].([]any)
	if !ok {
		return nil
	}

	tasks := make([]actionTask, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title, _ := m["title"].(string)
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		reason, _ := m["reason"].(string)
		tasks = append(tasks, actionTask{
			Title:    title,
			Reason:   reason,
			Subtasks: stringSlice(m["subtasks"]),
		})
	}
	return tasks
}

func describeTask(task actionTask) string {
	var b strings.Builder
	if task.Reason != "" {
		b.WriteString(task.Reason)
	}
	for _, s := range task.Subtasks {
		b.WriteString("\n- " + s)
	}
	return b.String()
}

func stringSlice(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
