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
	"strings"

	"github.com/ramisra/agentflow/pkg/svcerr"
)

// Registry holds the always-buildable built-in servers, keyed by name.
type Registry struct {
	builtin map[string]Server
}

// NewRegistry builds a registry with the three built-in servers
// (writer, notes, board).
func NewRegistry(writer *WriterServer, notes *NotesServer, board *BoardServer) *Registry {
	builtin := make(map[string]Server)
	if writer != nil {
		builtin[writer.Name()] = writer
	}
	if notes != nil {
		builtin[notes.Name()] = notes
	}
	if board != nil {
		builtin[board.Name()] = board
	}
	return &Registry{builtin: builtin}
}

// Surface is the composed result of one agent execution's tool
// requirements: the qualified-name-dispatchable set of servers plus the
// flat list of allowed tool names, handed to the reasoner.
type Surface struct {
	servers      map[string]Server
	allowedTools []string
}

// AllowedTools returns the flat list of qualified tool names this
// surface exposes.
func (s *Surface) AllowedTools() []string { return s.allowedTools }

// Dispatch implements reasoner.ToolDispatcher: it parses a qualified
// name svc.<server>.<tool> and routes the call to the matching server.
func (s *Surface) Dispatch(ctx context.Context, qualifiedName string, params map[string]any) (map[string]any, error) {
	server, toolName, err := splitQualifiedName(qualifiedName)
	if err != nil {
		return nil, err
	}

	target, ok := s.servers[server]
	if !ok {
		return nil, svcerr.NewToolError(svcerr.KindToolFailure, qualifiedName, "server not present in composed surface", nil)
	}
	return target.Call(ctx, toolName, params)
}

func splitQualifiedName(qualifiedName string) (server, tool string, err error) {
	const prefix = "svc."
	if !strings.HasPrefix(qualifiedName, prefix) {
		return "", "", svcerr.NewToolError(svcerr.KindInvalidInput, qualifiedName, "tool name must be qualified as svc.<server>.<tool>", nil)
	}

	rest := strings.TrimPrefix(qualifiedName, prefix)
	parts := strings.SplitN(rest, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", svcerr.NewToolError(svcerr.KindInvalidInput, qualifiedName, "tool name must be qualified as svc.<server>.<tool>", nil)
	}
	return parts[0], parts[1], nil
}

// Compose assembles the set of
// built-in servers the caller required, adds a fallback-provider session
// when any requirement is unsatisfied (or "fallback" was explicitly
// requested), and returns the resulting Surface.
func (r *Registry) Compose(userID string, requiredTools, requiredToolServers []string, useFallbackProvider bool) (*Surface, error) {
	servers := make(map[string]Server)
	for _, name := range requiredToolServers {
		if server, ok := r.builtin[name]; ok {
			servers[name] = server
		}
	}

	var unsatisfied []string
	explicitFallback := false
	for _, qualified := range requiredTools {
		if qualified == "fallback" {
			explicitFallback = true
			continue
		}
		server, _, err := splitQualifiedName(qualified)
		if err != nil {
			return nil, err
		}
		if _, ok := servers[server]; !ok {
			unsatisfied = append(unsatisfied, server)
		}
	}

	if useFallbackProvider && (len(unsatisfied) > 0 || explicitFallback) {
		fp := NewFallbackProvider(userID, unsatisfied)
		servers[fp.Name()] = fp
	}

	var allowed []string
	for name, server := range servers {
		for _, t := range server.Tools() {
			allowed = append(allowed, "svc."+name+"."+t.Name)
		}
	}

	return &Surface{servers: servers, allowedTools: allowed}, nil
}
