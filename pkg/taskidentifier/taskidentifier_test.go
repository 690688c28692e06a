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

package taskidentifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramisra/agentflow/pkg/reasoner"
	"github.com/ramisra/agentflow/pkg/tasktype"
)

type stubReasoner struct {
	jsonResult reasoner.JSONResult
}

func (s *stubReasoner) Reason(context.Context, reasoner.Request) reasoner.Result {
	return s.jsonResult.Result
}

func (s *stubReasoner) ReasonJSON(context.Context, reasoner.Request) reasoner.JSONResult {
	return s.jsonResult
}

func TestIdentify_ParsesWellFormedResult(t *testing.T) {
	r := &stubReasoner{jsonResult: reasoner.JSONResult{
		Parsed: true,
		Value: map[string]any{
			"task_type":         "extract-data-to-sheet",
			"confidence":        0.92,
			"reasoning":         "user asked for a spreadsheet",
			"alternative_types": []any{"note-taking", "extract-data-to-sheet", "add-to-knowledge-base"},
			"input":             map[string]any{"columns": []any{"name", "designation"}},
			"output":            map[string]any{"file_path": "a path"},
		},
	}}

	id := New(r, tasktype.AddToKnowledgeBase)
	result := id.Identify(context.Background(), "Create the excel sheet for tracking lead", nil)

	require.Equal(t, tasktype.ExtractDataToSheet, result.TaskType)
	require.Equal(t, 0.92, result.Confidence)
	require.Equal(t, []string{"note-taking", "add-to-knowledge-base"}, result.AlternativeTypes)
	require.Equal(t, []any{"name", "designation"}, result.Input["columns"])
}

func TestIdentify_UnparseableFallsBackToSafeDefault(t *testing.T) {
	r := &stubReasoner{jsonResult: reasoner.JSONResult{Parsed: false}}

	id := New(r, tasktype.AddToKnowledgeBase)
	result := id.Identify(context.Background(), "gibberish", nil)

	require.Equal(t, tasktype.AddToKnowledgeBase, result.TaskType)
	require.Equal(t, 0.5, result.Confidence)
}

func TestIdentify_UnknownTaskTypeFallsBackToSafeDefault(t *testing.T) {
	r := &stubReasoner{jsonResult: reasoner.JSONResult{
		Parsed: true,
		Value:  map[string]any{"task_type": "not-a-real-type", "confidence": 0.8},
	}}

	id := New(r, tasktype.AddToKnowledgeBase)
	result := id.Identify(context.Background(), "text", nil)

	require.Equal(t, tasktype.AddToKnowledgeBase, result.TaskType)
}

func TestIdentify_NonMapInputOutputBecomeNil(t *testing.T) {
	r := &stubReasoner{jsonResult: reasoner.JSONResult{
		Parsed: true,
		Value: map[string]any{
			"task_type": "note-taking",
			"input":     "not a map",
			"output":    []any{"not", "a", "map"},
		},
	}}

	id := New(r, tasktype.AddToKnowledgeBase)
	result := id.Identify(context.Background(), "text", nil)

	require.Nil(t, result.Input)
	require.Nil(t, result.Output)
}

func TestRegisterSchema_ValidationWarningDoesNotChangeTaskType(t *testing.T) {
	r := &stubReasoner{jsonResult: reasoner.JSONResult{
		Parsed: true,
		Value: map[string]any{
			"task_type": "extract-data-to-sheet",
			"input":     map[string]any{"columns": "should have been an array"},
		},
	}}

	id := New(r, tasktype.AddToKnowledgeBase)
	err := id.RegisterSchema(tasktype.ExtractDataToSheet, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"columns": map[string]any{"type": "array"},
		},
	})
	require.NoError(t, err)

	result := id.Identify(context.Background(), "text", nil)
	require.Equal(t, tasktype.ExtractDataToSheet, result.TaskType)
	require.Contains(t, result.Reasoning, "schema warning")
}
