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

// Package agentspawner builds one isolated agent instance per execution
// (C6): a fresh prompt manager, a fresh evaluator, a fresh reasoner, the
// tool surface composed for this agent/user pair, and whatever shared
// services (embedder, context store) the deployment configured.
package agentspawner

import (
	"github.com/ramisra/agentflow/pkg/agentcontract"
	"github.com/ramisra/agentflow/pkg/agentregistry"
	"github.com/ramisra/agentflow/pkg/config"
	"github.com/ramisra/agentflow/pkg/contextstore"
	"github.com/ramisra/agentflow/pkg/embedder"
	"github.com/ramisra/agentflow/pkg/evaluator"
	"github.com/ramisra/agentflow/pkg/promptmanager"
	"github.com/ramisra/agentflow/pkg/promptstore"
	"github.com/ramisra/agentflow/pkg/reasoner"
	"github.com/ramisra/agentflow/pkg/toolsurface"
)

// Shared holds the deployment-wide collaborators a Spawner wires into
// every execution's fresh BuildArgs: the base LLM config every reasoner
// is cloned from, the built-in tool-server registry, the prompt-store
// sink, and the optional embedder/context-store shared services.
type Shared struct {
	LLM         config.LLMConfig
	ToolServers *toolsurface.Registry
	Sink        promptstore.Sink

	Embedder     embedder.Embedder
	ContextStore *contextstore.ContextStore
}

// Spawner builds one fresh, isolated agent instance per execution.
type Spawner struct {
	shared Shared
}

// New builds a Spawner from the deployment's shared collaborators.
func New(shared Shared) *Spawner {
	return &Spawner{shared: shared}
}

// Spawn composes this agent/user pair's tool surface, assembles a fresh
// BuildArgs, and invokes factory. The composed tool surface is always
// present on BuildArgs; concrete agent factories pull out only the
// fields they need ("passed into the agent's constructor only if the
// agent's constructor declares it" — a factory
// that ignores ToolSurface simply never reads the field).
func (s *Spawner) Spawn(descriptor config.AgentConfig, factory agentregistry.Factory, userID string) (agentcontract.Agent, error) {
	surface, err := s.shared.ToolServers.Compose(
		userID,
		descriptor.RequiredTools,
		descriptor.RequiredToolServers,
		descriptor.UsesFallbackProvider(),
	)
	if err != nil {
		return nil, err
	}

	llmCfg := s.shared.LLM
	if model, ok := descriptor.Config["model"].(string); ok && model != "" {
		llmCfg.Model = model
	}

	args := agentregistry.BuildArgs{
		Descriptor:    descriptor,
		PromptManager: promptmanager.New(systemPrompt(descriptor), nil),
		Evaluator:     evaluator.New(nil),
		Reasoner:      reasoner.NewAnthropicReasoner(llmCfg, s.shared.Sink),
		ToolSurface:   surface,
		Embedder:      s.shared.Embedder,
		ContextStore:  s.shared.ContextStore,
	}

	return factory(args)
}

// systemPrompt extracts an optional "system_prompt" override from the
// descriptor's free-form config map.
func systemPrompt(descriptor config.AgentConfig) string {
	if prompt, ok := descriptor.Config["system_prompt"].(string); ok {
		return prompt
	}
	return ""
}
