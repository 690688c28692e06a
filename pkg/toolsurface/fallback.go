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

package toolsurface

import (
	"context"

	"github.com/ramisra/agentflow/pkg/svcerr"
)

// toolkitTable maps an unsatisfied server name to the fallback-provider
// toolkits it should activate.
var toolkitTable = map[string][]string{
	"notes":  {"notes"},
	"board":  {"board"},
	"sheets": {"sheets"},
}

// defaultToolkit is used when an unsatisfied server name has no entry in
// toolkitTable.
var defaultToolkit = []string{"fallback"}

// FallbackProvider is a session bound to one user, exposing whatever
// toolkits were inferred from the set of unsatisfied built-in servers.
// It never actually reaches an external API on its own — constructing a
// real integration session is out of scope for this module; the session
// records which toolkits were requested and reports a typed ToolError
// for any call, since no underlying execution path exists without live
// integration credentials.
type FallbackProvider struct {
	userID   string
	toolkits []string
}

// NewFallbackProvider builds a session scoped to userID, activating the
// toolkits inferred from unsatisfiedServers via toolkitTable.
func NewFallbackProvider(userID string, unsatisfiedServers []string) *FallbackProvider {
	seen := make(map[string]bool)
	var toolkits []string
	for _, server := range unsatisfiedServers {
		kit, ok := toolkitTable[server]
		if !ok {
			kit = defaultToolkit
		}
		for _, k := range kit {
			if !seen[k] {
				seen[k] = true
				toolkits = append(toolkits, k)
			}
		}
	}
	if len(toolkits) == 0 {
		toolkits = defaultToolkit
	}
	return &FallbackProvider{userID: userID, toolkits: toolkits}
}

func (f *FallbackProvider) Name() string { return "fallback" }

// Toolkits reports which toolkits this session activated.
func (f *FallbackProvider) Toolkits() []string { return f.toolkits }

func (f *FallbackProvider) Tools() []Tool {
	tools := make([]Tool, 0, len(f.toolkits))
	for _, kit := range f.toolkits {
		tools = append(tools, Tool{
			Name:        kit,
			Description: "Fallback-provider toolkit for " + kit,
			InputSchema: map[string]any{"type": "object"},
		})
	}
	return tools
}

func (f *FallbackProvider) Call(_ context.Context, toolName string, _ map[string]any) (map[string]any, error) {
	return nil, svcerr.NewToolError(svcerr.KindToolFailure, "fallback."+toolName,
		"no live fallback-provider session is configured for user "+f.userID, nil)
}

var _ Server = (*FallbackProvider)(nil)
