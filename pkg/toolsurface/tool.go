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

// Package toolsurface composes the tool servers an agent execution needs
// into a single dispatcher: built-in servers (writer, notes,
// board) plus, when a required tool is unsatisfied, a fallback provider
// session scoped to the calling user.
package toolsurface

import "context"

// Tool is one callable operation exposed by a Server.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Server is a named group of tools reachable under the qualified prefix
// svc.<server_name>.<tool_name>.
type Server interface {
	Name() string
	Tools() []Tool
	Call(ctx context.Context, toolName string, params map[string]any) (map[string]any, error)
}
