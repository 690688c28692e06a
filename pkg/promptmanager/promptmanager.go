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

// Package promptmanager holds an agent's system prompt and named
// templates. One instance is built fresh per agent execution (C6).
package promptmanager

import (
	"fmt"
	"sort"
	"strings"
)

// PromptManager holds a system prompt plus a set of named templates,
// built fresh for each agent execution.
type PromptManager struct {
	systemPrompt string
	templates    map[string]string
}

// New builds a PromptManager. templates may be nil.
func New(systemPrompt string, templates map[string]string) *PromptManager {
	if templates == nil {
		templates = make(map[string]string)
	}
	return &PromptManager{systemPrompt: systemPrompt, templates: templates}
}

// SystemPrompt returns the current system prompt.
func (p *PromptManager) SystemPrompt() string { return p.systemPrompt }

// SetSystemPrompt replaces the system prompt.
func (p *PromptManager) SetSystemPrompt(prompt string) { p.systemPrompt = prompt }

// RegisterTemplate adds or replaces a named template. Templates use
// "{name}" placeholders, filled by FormatPrompt.
func (p *PromptManager) RegisterTemplate(name, template string) {
	p.templates[name] = template
}

// Template returns a registered template and whether it exists.
func (p *PromptManager) Template(name string) (string, bool) {
	t, ok := p.templates[name]
	return t, ok
}

// FormatPrompt fills a registered template's "{key}" placeholders from
// values. It errors if the template is unknown.
func (p *PromptManager) FormatPrompt(templateName string, values map[string]string) (string, error) {
	template, ok := p.templates[templateName]
	if !ok {
		return "", fmt.Errorf("promptmanager: template %q not found", templateName)
	}

	out := template
	for key, value := range values {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out, nil
}

// BuildReasoningPrompt assembles a complete prompt from the system
// prompt, a task description, optional context pairs, and optional
// additional instructions — mirroring the layout the original service
// sends to its reasoning backend.
func (p *PromptManager) BuildReasoningPrompt(taskDescription string, context map[string]any, additionalInstructions string) string {
	var parts []string
	if p.systemPrompt != "" {
		parts = append(parts, p.systemPrompt)
	}
	if taskDescription != "" {
		parts = append(parts, "\nTask: "+taskDescription)
	}
	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %v", k, context[k]))
		}
		parts = append(parts, "\nContext:\n"+strings.Join(lines, "\n"))
	}
	if additionalInstructions != "" {
		parts = append(parts, "\nAdditional Instructions:\n"+additionalInstructions)
	}
	return strings.Join(parts, "\n")
}
