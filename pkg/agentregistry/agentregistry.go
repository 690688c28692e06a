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

// Package agentregistry is the file-backed agent registry (C5):
// lookup-by-task-type and capability discovery over a set of agent
// descriptors, with lazy, singleflight-coalesced resolution of each
// descriptor's loadable class to its constructor.
//
// Resolution yields a Factory, not an instance: every execution needs
// its own isolated agent (see pkg/agentspawner), so only the class
// lookup itself — the expensive, cacheable step — is memoized here.
package agentregistry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ramisra/agentflow/pkg/agentcontract"
	"github.com/ramisra/agentflow/pkg/config"
	"github.com/ramisra/agentflow/pkg/contextstore"
	"github.com/ramisra/agentflow/pkg/embedder"
	"github.com/ramisra/agentflow/pkg/evaluator"
	"github.com/ramisra/agentflow/pkg/promptmanager"
	"github.com/ramisra/agentflow/pkg/reasoner"
	"github.com/ramisra/agentflow/pkg/svcerr"
	"github.com/ramisra/agentflow/pkg/toolsurface"
)

// BuildArgs carries the fresh, per-execution dependencies an agent
// factory is constructed with. Spawner-owned fields (prompt manager,
// evaluator, reasoner, tool surface) are always non-nil; shared-service
// fields (embedder, context store) are nil when the deployment has none
// configured.
type BuildArgs struct {
	Descriptor config.AgentConfig

	PromptManager *promptmanager.PromptManager
	Evaluator     *evaluator.Evaluator
	Reasoner      reasoner.Reasoner
	ToolSurface   *toolsurface.Surface

	Embedder     embedder.Embedder
	ContextStore *contextstore.ContextStore
}

// Factory builds one fresh agent instance from the supplied build args.
// Concrete agent packages register a Factory under their
// loadable_class_name at init time — the Go rendering of the original's
// dynamic class loading.
type Factory func(args BuildArgs) (agentcontract.Agent, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory adds a class-name → Factory mapping to the compile-time
// map. Intended to be called from an init() in each agent package.
func RegisterFactory(loadableClassName string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[loadableClassName] = factory
}

func lookupFactory(loadableClassName string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[loadableClassName]
	return f, ok
}

// Registry holds agent descriptors loaded from a JSON file and resolves
// each one's loadable class to a Factory lazily, on first use.
type Registry struct {
	descriptors []config.AgentConfig
	byTaskType  map[string][]config.AgentConfig

	group singleflight.Group

	mu       sync.Mutex
	resolved map[string]Factory // loadable_class_name -> factory
	failed   map[string]bool
}

// Load reads agent descriptors from a JSON file at path. The file is
// either an object {"agents": {agent_id: descriptor, ...}} (descriptors
// taken in agent_id order, a missing agent_id filled from its key) or a
// plain array of descriptors.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, svcerr.NewRegistryError(svcerr.KindPersistenceFailure, "Load", "failed to read registry file", err)
	}

	var descriptors []config.AgentConfig
	if err := json.Unmarshal(data, &descriptors); err != nil {
		var file struct {
			Agents map[string]config.AgentConfig `json:"agents"`
		}
		if objErr := json.Unmarshal(data, &file); objErr != nil {
			return nil, svcerr.NewRegistryError(svcerr.KindInvalidInput, "Load", "failed to parse registry file", objErr)
		}
		ids := make([]string, 0, len(file.Agents))
		for id := range file.Agents {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			d := file.Agents[id]
			if d.AgentID == "" {
				d.AgentID = id
			}
			descriptors = append(descriptors, d)
		}
	}

	return New(descriptors), nil
}

// New builds a Registry directly from an in-memory descriptor list,
// useful for tests and for registries assembled from config.Config.Agents.
func New(descriptors []config.AgentConfig) *Registry {
	for i := range descriptors {
		descriptors[i].SetDefaults()
	}

	byTaskType := make(map[string][]config.AgentConfig)
	for _, d := range descriptors {
		for _, t := range d.SupportedTaskTypes {
			byTaskType[t] = append(byTaskType[t], d)
		}
	}

	return &Registry{
		descriptors: descriptors,
		byTaskType:  byTaskType,
		resolved:    make(map[string]Factory),
		failed:      make(map[string]bool),
	}
}

// Descriptors returns every loaded descriptor.
func (r *Registry) Descriptors() []config.AgentConfig { return r.descriptors }

// LookupByTaskType returns the first descriptor whose
// supported_task_types includes taskType, plus its resolved Factory.
func (r *Registry) LookupByTaskType(taskType string) (Factory, config.AgentConfig, error) {
	candidates, ok := r.byTaskType[taskType]
	if !ok || len(candidates) == 0 {
		return nil, config.AgentConfig{}, svcerr.NewRegistryError(svcerr.KindAgentMissing, "LookupByTaskType", "no agent supports task type: "+taskType, nil)
	}

	descriptor := candidates[0]
	factory, err := r.resolveClass(descriptor.LoadableClassName)
	if err != nil {
		return nil, descriptor, err
	}
	return factory, descriptor, nil
}

// Discover filters descriptors by required capabilities and task types.
// A descriptor matches if it has every requested capability (when any
// are given) and supports every requested task type (when any are given).
func (r *Registry) Discover(requiredCapabilities, requiredTaskTypes []string) []config.AgentConfig {
	var out []config.AgentConfig
	for _, d := range r.descriptors {
		if !hasAll(d.Capabilities, requiredCapabilities) {
			continue
		}
		if !hasAll(d.SupportedTaskTypes, requiredTaskTypes) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// resolveClass lazily looks up loadableClassName's Factory, caching the
// result (success or permanent failure) and coalescing concurrent
// first-use resolutions for the same class into one lookup.
func (r *Registry) resolveClass(loadableClassName string) (Factory, error) {
	r.mu.Lock()
	if factory, ok := r.resolved[loadableClassName]; ok {
		r.mu.Unlock()
		return factory, nil
	}
	if r.failed[loadableClassName] {
		r.mu.Unlock()
		return nil, svcerr.NewRegistryError(svcerr.KindAgentMissing, "resolveClass", "class previously failed to resolve: "+loadableClassName, nil)
	}
	r.mu.Unlock()

	result, err, _ := r.group.Do(loadableClassName, func() (any, error) {
		factory, ok := lookupFactory(loadableClassName)
		if !ok {
			return nil, fmt.Errorf("no factory registered for class %q", loadableClassName)
		}
		return factory, nil
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		// Unresolvable classes are logged and skipped, not fatal — a
		// later lookup for a different task type may still succeed.
		slog.Warn("agentregistry: class resolution failed", "class", loadableClassName, "error", err)
		r.failed[loadableClassName] = true
		return nil, svcerr.NewRegistryError(svcerr.KindAgentMissing, "resolveClass", "failed to resolve class: "+loadableClassName, err)
	}

	factory := result.(Factory)
	r.resolved[loadableClassName] = factory
	return factory, nil
}

func hasAll(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}
