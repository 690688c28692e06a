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

package orchestrator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramisra/agentflow/pkg/agentcontract"
	"github.com/ramisra/agentflow/pkg/agentregistry"
	"github.com/ramisra/agentflow/pkg/agentspawner"
	"github.com/ramisra/agentflow/pkg/config"
	"github.com/ramisra/agentflow/pkg/contextstore"
	"github.com/ramisra/agentflow/pkg/reasoner"
	"github.com/ramisra/agentflow/pkg/store"
	"github.com/ramisra/agentflow/pkg/taskidentifier"
	"github.com/ramisra/agentflow/pkg/tasktype"
	"github.com/ramisra/agentflow/pkg/toolsurface"
	"github.com/ramisra/agentflow/pkg/vector"
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

type recordingAgent struct {
	gotInput agentcontract.Input
	gotCtx   agentcontract.Context
	result   agentcontract.Result
}

func (a *recordingAgent) Execute(_ context.Context, input agentcontract.Input, agentCtx agentcontract.Context) agentcontract.Result {
	a.gotInput = input
	a.gotCtx = agentCtx
	return a.result
}

func newTestHarness(t *testing.T) (*store.Store, *contextstore.ContextStore) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(config.DatabaseConfig{Driver: "sqlite", Database: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	vec, err := vector.NewProvider(nil)
	require.NoError(t, err)

	return s, contextstore.New(s, vec, nil)
}

func TestOrchestrate_PreconditionRejectsEmptyRequest(t *testing.T) {
	s, cs := newTestHarness(t)
	_ = s

	orc := New(cs, taskidentifier.New(&stubReasoner{}, tasktype.AddToKnowledgeBase), agentregistry.New(nil), agentspawner.New(agentspawner.Shared{}), s, nil)

	_, err := orc.Orchestrate(context.Background(), Request{UserID: "u1"})
	require.Error(t, err)
}

func TestOrchestrate_MissingAgentYieldsFailedResultButNoError(t *testing.T) {
	s, cs := newTestHarness(t)

	identifier := taskidentifier.New(&stubReasoner{jsonResult: reasoner.JSONResult{
		Parsed: true,
		Value:  map[string]any{"task_type": tasktype.QuestionAnswer, "confidence": 0.9},
	}}, tasktype.AddToKnowledgeBase)

	registry := agentregistry.New(nil)
	spawner := agentspawner.New(agentspawner.Shared{ToolServers: toolsurface.NewRegistry(nil, nil, nil)})

	orc := New(cs, identifier, registry, spawner, s, &stubReasoner{})

	result, err := orc.Orchestrate(context.Background(), Request{UserID: "u1", UserContext: "please answer this question"})
	require.NoError(t, err)
	require.Equal(t, agentcontract.StatusFailed, result.ExecutionResult.Status)
	require.Contains(t, result.ExecutionResult.Error, "no agent found")
}

func TestOrchestrate_ExplicitTaskTypeSkipsIdentification(t *testing.T) {
	s, cs := newTestHarness(t)

	agent := &recordingAgent{result: agentcontract.Result{Status: agentcontract.StatusCompleted, Result: map[string]any{"ok": true}}}
	const className = "test.agents.Recording"
	agentregistry.RegisterFactory(className, func(agentregistry.BuildArgs) (agentcontract.Agent, error) {
		return agent, nil
	})

	descriptor := config.AgentConfig{
		AgentID:            "recording-agent",
		LoadableClassName:  className,
		SupportedTaskTypes: []string{tasktype.NoteTaking},
	}
	registry := agentregistry.New([]config.AgentConfig{descriptor})
	spawner := agentspawner.New(agentspawner.Shared{ToolServers: toolsurface.NewRegistry(nil, nil, nil)})

	identifier := taskidentifier.New(&stubReasoner{}, tasktype.AddToKnowledgeBase)
	orc := New(cs, identifier, registry, spawner, s, nil)

	result, err := orc.Orchestrate(context.Background(), Request{
		UserID:           "u1",
		UserContext:      "remember this for later",
		ExplicitTaskType: tasktype.NoteTaking,
	})
	require.NoError(t, err)
	require.Equal(t, tasktype.NoteTaking, result.TaskType)
	require.Equal(t, agentcontract.StatusCompleted, result.ExecutionResult.Status)
	require.Equal(t, 1.0, result.TaskIdentification.Confidence)
	require.Equal(t, tasktype.NoteTaking, agent.gotCtx.TaskIdentification.TaskType)

	stored, err := s.GetTask(context.Background(), result.TaskID)
	require.NoError(t, err)
	require.Equal(t, store.TaskStatusCompleted, stored.Status)
}

func TestOrchestrate_AgentPanicBecomesFailedResult(t *testing.T) {
	s, cs := newTestHarness(t)

	const className = "test.agents.Panicking"
	agentregistry.RegisterFactory(className, func(agentregistry.BuildArgs) (agentcontract.Agent, error) {
		return panicAgent{}, nil
	})

	descriptor := config.AgentConfig{
		AgentID:            "panicking-agent",
		LoadableClassName:  className,
		SupportedTaskTypes: []string{tasktype.CreateTodo},
	}
	registry := agentregistry.New([]config.AgentConfig{descriptor})
	spawner := agentspawner.New(agentspawner.Shared{ToolServers: toolsurface.NewRegistry(nil, nil, nil)})

	orc := New(cs, taskidentifier.New(&stubReasoner{}, tasktype.AddToKnowledgeBase), registry, spawner, s, nil)

	result, err := orc.Orchestrate(context.Background(), Request{
		UserID:           "u1",
		UserContext:      "add a todo",
		ExplicitTaskType: tasktype.CreateTodo,
	})
	require.NoError(t, err)
	require.Equal(t, agentcontract.StatusFailed, result.ExecutionResult.Status)
	require.Contains(t, result.ExecutionResult.Error, "panicked")
}

type panicAgent struct{}

func (panicAgent) Execute(context.Context, agentcontract.Input, agentcontract.Context) agentcontract.Result {
	panic("boom")
}
