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

// Package taskidentifier classifies free-form user context into a task
// type (C8): a single reasoner call asking for a structured JSON
// verdict, normalised against the known task-type enum, with a safe
// default when classification fails or comes back unparseable.
package taskidentifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ramisra/agentflow/pkg/reasoner"
	"github.com/ramisra/agentflow/pkg/tasktype"
)

const callerTag = "TaskIdentifier"

const systemPrompt = "You identify task types accurately from context and return " +
	"valid JSON responses matching the requested schema. Always extract " +
	"structured input parameters and expected output from the user context " +
	"as dictionary objects with clear key-value pairs."

// Result is the outcome of classifying a request into a task type.
type Result struct {
	TaskType         string
	Confidence       float64
	Reasoning        string
	AlternativeTypes []string
	Input            map[string]any
	Output           map[string]any
}

// Identifier classifies user context into a task type via the reasoner.
type Identifier struct {
	reasoner        reasoner.Reasoner
	safeDefaultTask string
	schemas         map[string]*jsonschema.Schema
}

// New builds an Identifier. safeDefaultTask is the task type assigned
// when classification fails or the backend returns unparseable JSON
// (the configured safe task-type).
func New(r reasoner.Reasoner, safeDefaultTask string) *Identifier {
	if safeDefaultTask == "" {
		safeDefaultTask = tasktype.AddToKnowledgeBase
	}
	return &Identifier{reasoner: r, safeDefaultTask: safeDefaultTask, schemas: make(map[string]*jsonschema.Schema)}
}

// RegisterSchema compiles and stores a JSON schema used to validate the
// input/output maps of task type taskType's identification result. A
// validation failure is recorded in the result's Reasoning rather than
// rejecting the classification outright — the identifier never
// fabricates a different task type because a schema didn't match.
func (id *Identifier) RegisterSchema(taskType string, schemaDoc any) error {
	compiler := jsonschema.NewCompiler()
	resourceName := taskType + ".schema.json"
	if err := compiler.AddResource(resourceName, schemaDoc); err != nil {
		return fmt.Errorf("taskidentifier: add schema resource for %q: %w", taskType, err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return fmt.Errorf("taskidentifier: compile schema for %q: %w", taskType, err)
	}
	id.schemas[taskType] = schema
	return nil
}

// Identify classifies userContext (plus optional urls/tags metadata)
// into a task type.
func (id *Identifier) Identify(ctx context.Context, userContext string, metadata map[string]any) Result {
	prompt := buildPrompt(userContext, metadata)

	jsonResult := id.reasoner.ReasonJSON(ctx, reasoner.Request{
		Prompt:    prompt,
		System:    systemPrompt,
		CallerTag: callerTag,
	})

	if jsonResult.Err != nil || !jsonResult.Parsed {
		return Result{
			TaskType:   id.safeDefaultTask,
			Confidence: 0.5,
			Reasoning:  "Unable to determine task type from context",
		}
	}

	result := id.parseResult(jsonResult.Value)
	id.validateAgainstSchema(&result)
	return result
}

func (id *Identifier) parseResult(value map[string]any) Result {
	rawTaskType, _ := value["task_type"].(string)
	taskType, ok := tasktype.Parse(rawTaskType)
	if !ok {
		taskType = id.safeDefaultTask
	}

	confidence := 0.5
	switch v := value["confidence"].(type) {
	case float64:
		confidence = v
	case int:
		confidence = float64(v)
	}

	reasoning, _ := value["reasoning"].(string)
	if reasoning == "" {
		reasoning = "Task type analysis"
	}

	return Result{
		TaskType:         taskType,
		Confidence:       confidence,
		Reasoning:        reasoning,
		AlternativeTypes: parseAlternativeTypes(value["alternative_types"], taskType),
		Input:            mapOrNil(value["input"]),
		Output:           mapOrNil(value["output"]),
	}
}

func (id *Identifier) validateAgainstSchema(result *Result) {
	schema, ok := id.schemas[result.TaskType]
	if !ok {
		return
	}

	for label, doc := range map[string]map[string]any{"input": result.Input, "output": result.Output} {
		if doc == nil {
			continue
		}
		if err := schema.Validate(doc); err != nil {
			result.Reasoning += fmt.Sprintf(" (schema warning: %s does not match %s schema: %v)", label, result.TaskType, err)
		}
	}
}

// parseAlternativeTypes normalises each entry against the task-type
// enum, drops unrecognised or primary-duplicate entries, and
// deduplicates — mirroring the original's de-dup-and-exclude-primary
// rule.
func parseAlternativeTypes(raw any, primary string) []string {
	items, _ := raw.([]any)
	seen := map[string]bool{primary: true}

	var out []string
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		parsed, ok := tasktype.Parse(s)
		if !ok || seen[parsed] {
			continue
		}
		seen[parsed] = true
		out = append(out, parsed)
		if len(out) == 3 {
			break
		}
	}
	return out
}

func mapOrNil(raw any) map[string]any {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

func buildPrompt(userContext string, metadata map[string]any) string {
	contextInfo := userContext
	if metadata != nil {
		if urls, ok := metadata["urls"].([]string); ok && len(urls) > 0 {
			contextInfo += "\n\nURLs: " + strings.Join(urls, ", ")
		}
		if tags, ok := metadata["tags"].([]string); ok && len(tags) > 0 {
			contextInfo += "\n\nTags: " + strings.Join(tags, ", ")
		}
	}

	var taskTypesList strings.Builder
	for _, t := range tasktype.All() {
		taskTypesList.WriteString("- " + t + "\n")
	}

	return fmt.Sprintf(`You are a task identification expert. Analyze the following user context and map it to the most appropriate task type.

User Context:
%s

Your task is to:
1. Select exactly one task type from the list below
2. Provide a confidence score (0.0 to 1.0)
3. Explain why the task type fits the context
4. Provide up to 3 alternative task types (lower confidence) if applicable
5. Identify the INPUT parameters required for this task (extract from context as a structured dictionary with key-value pairs)
6. Identify the OUTPUT structure expected from this task (describe what the task should produce as a structured dictionary with key-value pairs)

Task type list:
%s
Return your analysis as a JSON object with this exact structure:
{
  "task_type": "one-task-type-from-list",
  "confidence": 0.0-1.0,
  "reasoning": "brief explanation",
  "alternative_types": ["type1", "type2"],
  "input": {
    "key1": "value1"
  },
  "output": {
    "key1": "description of expected value"
  }
}

For INPUT: extract all parameters, data, or information needed to execute the task from the user context.
For OUTPUT: describe what the task should produce or return.
`, contextInfo, taskTypesList.String())
}
