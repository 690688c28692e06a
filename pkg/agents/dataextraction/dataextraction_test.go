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

package dataextraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramisra/agentflow/pkg/agentcontract"
	"github.com/ramisra/agentflow/pkg/agentregistry"
	"github.com/ramisra/agentflow/pkg/config"
	"github.com/ramisra/agentflow/pkg/evaluator"
	"github.com/ramisra/agentflow/pkg/promptmanager"
	"github.com/ramisra/agentflow/pkg/reasoner"
)

type stubReasoner struct {
	text string
}

func (s *stubReasoner) Reason(context.Context, reasoner.Request) reasoner.Result {
	return reasoner.Result{Text: s.text}
}

func (s *stubReasoner) ReasonJSON(context.Context, reasoner.Request) reasoner.JSONResult {
	return reasoner.JSONResult{}
}

func newTestAgent(t *testing.T, r reasoner.Reasoner) *Agent {
	t.Helper()
	agent, err := New(agentregistry.BuildArgs{
		Descriptor:    config.AgentConfig{Config: map[string]any{"output_dir": t.TempDir()}},
		PromptManager: promptmanager.New("", nil),
		Evaluator:     evaluator.New(nil),
		Reasoner:      r,
	})
	require.NoError(t, err)
	return agent.(*Agent)
}

func TestExecute_ExtractsRowsAndWritesSpreadsheet(t *testing.T) {
	r := &stubReasoner{text: `Here you go:
[{"name": "Ada Lovelace", "title": "Mathematician"}, {"name": "Alan Turing", "title": "Computer Scientist"}]`}
	agent := newTestAgent(t, r)

	result := agent.Execute(context.Background(), agentcontract.Input{
		"selected_text": "Ada Lovelace, Mathematician; Alan Turing, Computer Scientist",
	}, agentcontract.Context{
		TaskIdentification: agentcontract.TaskIdentification{
			Input: map[string]any{"columns": []any{"name", "title"}, "file_name": "people"},
		},
	})

	require.Equal(t, agentcontract.StatusCompleted, result.Status)
	require.Equal(t, 2, result.Result["row_count"])
	require.NotEmpty(t, result.FilePath)
	require.Len(t, result.Rows, 2)
}

func TestExecute_NoExtractedDataFails(t *testing.T) {
	r := &stubReasoner{text: "I could not find any structured data."}
	agent := newTestAgent(t, r)

	result := agent.Execute(context.Background(), agentcontract.Input{
		"selected_text": "nothing parseable here",
	}, agentcontract.Context{})

	require.Equal(t, agentcontract.StatusFailed, result.Status)
	require.Contains(t, result.Error, "No data extracted")
}

func TestExecute_InfersColumnsWhenNoneSupplied(t *testing.T) {
	r := &stubReasoner{text: `[{"item": "widget", "qty": "3"}]`}
	agent := newTestAgent(t, r)

	result := agent.Execute(context.Background(), agentcontract.Input{
		"user_context": "3 widgets",
	}, agentcontract.Context{RawText: "3 widgets"})

	require.Equal(t, agentcontract.StatusCompleted, result.Status)
	columns, ok := result.Result["columns"].([]string)
	require.True(t, ok)
	require.ElementsMatch(t, []string{"item", "qty"}, columns)
}
