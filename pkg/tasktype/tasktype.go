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

// Package tasktype enumerates the task types the identifier can assign.
// The set is additive-only: removing a value would orphan any task
// record already persisted under it.
package tasktype

import "strings"

// Known task-type values. ExtractDataToSheet, NoteTaking and TaskBoard
// have a registered agent in this module; the remainder have no agent
// yet, so the identifier can still classify into them but a registry
// lookup for one of these fails with agent-missing.
const (
	ExtractDataToSheet      = "extract-data-to-sheet"
	NoteTaking              = "note-taking"
	TaskBoard               = "task-board-update"
	AddToKnowledgeBase      = "add-to-knowledge-base"
	QuestionAnswer          = "question-answer"
	CreateTodo              = "create-todo"
	CreateDiagrams          = "create-diagrams"
	CreateLocationMap       = "create-location-map"
	CompareShoppingPrices   = "compare-shopping-prices"
	CreateActionFromContext = "create-action-from-context"
	AddToContext            = "add-to-context"
)

// All lists every known task type, in declaration order.
func All() []string {
	return []string{
		ExtractDataToSheet,
		NoteTaking,
		TaskBoard,
		AddToKnowledgeBase,
		QuestionAnswer,
		CreateTodo,
		CreateDiagrams,
		CreateLocationMap,
		CompareShoppingPrices,
		CreateActionFromContext,
		AddToContext,
	}
}

// Normalize renders value into the canonical lower-hyphen form (e.g.
// "ADD_TO_KNOWLEDGE_BASE" or "Add To Knowledge Base" ->
// "add-to-knowledge-base") so a reasoner's free-form casing can still be
// matched against the enum.
func Normalize(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	lowered = strings.ReplaceAll(lowered, "_", "-")
	lowered = strings.ReplaceAll(lowered, " ", "-")
	return lowered
}

// Parse matches value (in any casing/separator style) against the known
// set, returning ("", false) when nothing matches.
func Parse(value string) (string, bool) {
	normalized := Normalize(value)
	for _, t := range All() {
		if t == normalized {
			return t, true
		}
	}
	return "", false
}
