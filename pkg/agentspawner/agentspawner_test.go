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

package agentspawner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramisra/agentflow/pkg/agentcontract"
	"github.com/ramisra/agentflow/pkg/agentregistry"
	"github.com/ramisra/agentflow/pkg/config"
	"github.com/ramisra/agentflow/pkg/toolsurface"
)

type stubAgent struct {
	args agentregistry.BuildArgs
}

func (s *stubAgent) Execute(_ context.Context, _ agentcontract.Input, _ agentcontract.Context) agentcontract.Result {
	return agentcontract.Result{Status: agentcontract.StatusCompleted}
}

func TestSpawn_BuildsFreshArgsAndComposesToolSurface(t *testing.T) {
	var captured agentregistry.BuildArgs
	factory := func(args agentregistry.BuildArgs) (agentcontract.Agent, error) {
		captured = args
		return &stubAgent{args: args}, nil
	}

	writer, err := toolsurface.NewWriterServer(t.TempDir())
	require.NoError(t, err)

	spawner := New(Shared{
		LLM:         config.LLMConfig{Model: "claude-3-5-sonnet-20241022", APIKey: "test-key"},
		ToolServers: toolsurface.NewRegistry(writer, nil, nil),
	})

	descriptor := config.AgentConfig{
		AgentID:             "writer-agent",
		LoadableClassName:   "agents.writer.WriterAgent",
		SupportedTaskTypes:  []string{"extract-data-to-sheet"},
		RequiredTools:       []string{"svc.writer.write_rows"},
		RequiredToolServers: []string{"writer"},
	}
	descriptor.SetDefaults()

	agent, err := spawner.Spawn(descriptor, factory, "user-1")
	require.NoError(t, err)
	require.NotNil(t, agent)

	require.NotNil(t, captured.PromptManager)
	require.NotNil(t, captured.Evaluator)
	require.NotNil(t, captured.Reasoner)
	require.NotNil(t, captured.ToolSurface)
	require.Contains(t, captured.ToolSurface.AllowedTools(), "svc.writer.write_rows")
}

func TestSpawn_SystemPromptOverrideFromDescriptorConfig(t *testing.T) {
	var captured agentregistry.BuildArgs
	factory := func(args agentregistry.BuildArgs) (agentcontract.Agent, error) {
		captured = args
		return &stubAgent{args: args}, nil
	}

	spawner := New(Shared{
		LLM:         config.LLMConfig{Model: "claude-3-5-sonnet-20241022", APIKey: "test-key"},
		ToolServers: toolsurface.NewRegistry(nil, nil, nil),
	})

	descriptor := config.AgentConfig{
		AgentID:            "note-agent",
		LoadableClassName:  "agents.notes.NoteAgent",
		SupportedTaskTypes: []string{"save-note"},
		Config:             map[string]any{"model": "claude-3-opus-20240229", "system_prompt": "You take notes."},
	}
	descriptor.SetDefaults()

	_, err := spawner.Spawn(descriptor, factory, "user-2")
	require.NoError(t, err)
	require.Equal(t, "You take notes.", captured.PromptManager.SystemPrompt())
}
