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

package taskboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramisra/agentflow/pkg/agentcontract"
	"github.com/ramisra/agentflow/pkg/reasoner"
	"github.com/ramisra/agentflow/pkg/toolsurface"
)

type scriptedReasoner struct {
	responses []reasoner.JSONResult
	calls     int
}

func (s *scriptedReasoner) Reason(context.Context, reasoner.Request) reasoner.Result {
	return reasoner.Result{}
}

func (s *scriptedReasoner) ReasonJSON(context.Context, reasoner.Request) reasoner.JSONResult {
	r := s.responses[s.calls]
	s.calls++
	return r
}

func parsed(v map[string]any) reasoner.JSONResult {
	return reasoner.JSONResult{Parsed: true, Value: v}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newTestBoardSurface stands up a fake Trello-shaped backend and
// composes a real toolsurface.Surface around it, exercising the actual
// BoardServer HTTP path.
func newTestBoardSurface(t *testing.T, mux *http.ServeMux) *toolsurface.Surface {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	board := toolsurface.NewBoardServer("test-key", "board-1", server.URL)
	registry := toolsurface.NewRegistry(nil, nil, board)
	surface, err := registry.Compose("u1", nil, []string{"board"}, false)
	require.NoError(t, err)
	return surface
}

func TestExecute_CreatesOneCardPerTask(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/boards/board-1/lists", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"id": "list-1", "name": "To Do"}})
	})
	mux.HandleFunc("/cards", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "card-1", "url": "https://trello.example/card-1"})
	})

	r := &scriptedReasoner{responses: []reasoner.JSONResult{
		parsed(map[string]any{"tasks": []any{
			map[string]any{"title": "Ship the report", "reason": "deadline tomorrow", "subtasks": []any{"draft", "review"}},
		}}),
	}}

	agent := &Agent{reasoner: r, surface: newTestBoardSurface(t, mux), listName: defaultListName}

	result := agent.Execute(context.Background(), agentcontract.Input{"user_context": "need to ship the report"}, agentcontract.Context{})
	require.Equal(t, agentcontract.StatusCompleted, result.Status)
	require.Equal(t, 1, result.Result["card_count"])
}

func TestExecute_NoTasksExtractedFails(t *testing.T) {
	mux := http.NewServeMux()
	r := &scriptedReasoner{responses: []reasoner.JSONResult{{Parsed: false}}}
	agent := &Agent{reasoner: r, surface: newTestBoardSurface(t, mux), listName: defaultListName}

	result := agent.Execute(context.Background(), agentcontract.Input{"user_context": "nothing actionable"}, agentcontract.Context{})
	require.Equal(t, agentcontract.StatusFailed, result.Status)
	require.Contains(t, result.Error, "No action tasks extracted")
}

func TestExecute_FailsWhenListMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/boards/board-1/lists", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"id": "list-1", "name": "Done"}})
	})

	r := &scriptedReasoner{responses: []reasoner.JSONResult{
		parsed(map[string]any{"tasks": []any{
			map[string]any{"title": "Follow up with vendor"},
		}}),
	}}

	agent := &Agent{reasoner: r, surface: newTestBoardSurface(t, mux), listName: defaultListName}

	result := agent.Execute(context.Background(), agentcontract.Input{"user_context": "vendor follow-up"}, agentcontract.Context{})
	require.Equal(t, agentcontract.StatusFailed, result.Status)
	require.Contains(t, result.Error, "list not found")
}
