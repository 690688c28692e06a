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

package notetaking

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

// newTestNotesSurface stands up a fake notes backend and composes a
// real toolsurface.Surface around it, so dispatch exercises the actual
// NotesServer HTTP path rather than a hand-rolled double.
func newTestNotesSurface(t *testing.T, mux *http.ServeMux) *toolsurface.Surface {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	notes := toolsurface.NewNotesServer("test-key", server.URL)
	registry := toolsurface.NewRegistry(nil, notes, nil)
	surface, err := registry.Compose("u1", nil, []string{"notes"}, false)
	require.NoError(t, err)
	return surface
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestExecute_AppendsWhenPageFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"results": []map[string]any{{"id": "page-1", "url": "https://notes.example/page-1"}}})
	})
	mux.HandleFunc("/blocks/page-1/children", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"object": "list"})
	})

	r := &scriptedReasoner{responses: []reasoner.JSONResult{
		parsed(map[string]any{"query": "project notes"}),
		parsed(map[string]any{"page_id": "page-1", "blocks": []any{map[string]any{"type": "paragraph", "content": "hello"}}}),
	}}

	agent := &Agent{reasoner: r, surface: newTestNotesSurface(t, mux)}

	result := agent.Execute(context.Background(), agentcontract.Input{"selected_text": "hello"}, agentcontract.Context{})
	require.Equal(t, agentcontract.StatusCompleted, result.Status)
	require.Equal(t, "page-1", result.Result["notes_page_id"])
}

func TestExecute_CreatesWhenNoPageFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"results": []map[string]any{}})
	})
	mux.HandleFunc("/pages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "page-2", "url": "https://notes.example/page-2"})
	})

	r := &scriptedReasoner{responses: []reasoner.JSONResult{
		parsed(map[string]any{"query": "project notes"}),
		parsed(map[string]any{"title": "New note", "blocks": []any{}}),
	}}

	agent := &Agent{reasoner: r, surface: newTestNotesSurface(t, mux)}

	result := agent.Execute(context.Background(), agentcontract.Input{"selected_text": "hello"}, agentcontract.Context{})
	require.Equal(t, agentcontract.StatusCompleted, result.Status)
	require.Equal(t, "page-2", result.Result["notes_page_id"])
}

func TestExecute_InvalidSearchPayloadFails(t *testing.T) {
	mux := http.NewServeMux()
	r := &scriptedReasoner{responses: []reasoner.JSONResult{{Parsed: false}}}
	agent := &Agent{reasoner: r, surface: newTestNotesSurface(t, mux)}

	result := agent.Execute(context.Background(), agentcontract.Input{"selected_text": "hello"}, agentcontract.Context{})
	require.Equal(t, agentcontract.StatusFailed, result.Status)
	require.Contains(t, result.Error, "search payload")
}
