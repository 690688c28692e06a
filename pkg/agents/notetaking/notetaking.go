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

// Package notetaking implements the note-taking agent: a structured,
// tool-free-reasoning pipeline (search, then append or create)
// dispatched directly against the composed notes tool server. The
// reasoner is used only to generate each step's API payload — never to
// drive a tool-call loop.
package notetaking

import (
	"context"
	"strings"

	"github.com/ramisra/agentflow/pkg/agentcontract"
	"github.com/ramisra/agentflow/pkg/agentregistry"
	"github.com/ramisra/agentflow/pkg/reasoner"
	"github.com/ramisra/agentflow/pkg/toolsurface"
)

// ClassName is the loadable_class_name this agent registers under.
const ClassName = "agents.note_taking.NoteTakingAgent"

const callerTag = "NoteTakingAgent"

const systemPrompt = "You are a note-taking assistant that creates and organizes notes. " +
	"You do not call tools yourself. You only output JSON payloads when asked. " +
	"The system will first ask you for a search payload (query). Then, if a page is " +
	"found, you will be asked for an append payload (page_id, blocks). If no page is " +
	"found, you will be asked for a create payload (parent_id, title, blocks). Always " +
	"respond with a single JSON object only, no markdown or explanation."

const previewLimit = 200

func init() {
	agentregistry.RegisterFactory(ClassName, New)
}

// Agent runs the search → append-or-create note pipeline.
type Agent struct {
	reasoner reasoner.Reasoner
	surface  *toolsurface.Surface
}

// New builds a note-taking agent from its build args.
func New(args agentregistry.BuildArgs) (agentcontract.Agent, error) {
	args.PromptManager.SetSystemPrompt(systemPrompt)
	return &Agent{reasoner: args.Reasoner, surface: args.ToolSurface}, nil
}

// Execute runs the three-step pipeline: request a search payload from
// the reasoner, dispatch it, then branch into append or create
// depending on whether a page was found.
func (a *Agent) Execute(ctx context.Context, input agentcontract.Input, agentCtx agentcontract.Context) agentcontract.Result {
	selectedText := strings.TrimSpace(stringField(input, "selected_text"))
	userContext := strings.TrimSpace(stringField(input, "user_context"))
	if userContext == "" {
		userContext = strings.TrimSpace(agentCtx.RawText)
	}
	urls := stringSliceField(input, "urls")

	query, ok := a.requestSearchPayload(ctx, userContext, selectedText, urls)
	if !ok {
		return failed("Invalid or missing search payload: need at least \"query\" (string)")
	}

	searchResult, err := a.surface.Dispatch(ctx, "svc.notes.search", map[string]any{"query": query})
	if err != nil {
		return failed(err.Error())
	}

	pageID, _ := searchResult["page_id"].(string)
	pageURL, _ := searchResult["url"].(string)
	pageFound := pageID != ""

	contentPreview := preview(selectedText)

	if pageFound {
		return a.appendToPage(ctx, userContext, selectedText, pageID, pageURL, contentPreview)
	}
	return a.createPage(ctx, userContext, selectedText, contentPreview)
}

func (a *Agent) requestSearchPayload(ctx context.Context, userContext, selectedText string, urls []string) (string, bool) {
	var prompt strings.Builder
	prompt.WriteString("Return ONLY a single JSON object suitable for a notes search.\n")
	prompt.WriteString("Required: \"query\" (string).\n")
	prompt.WriteString("User context (use to derive search query):\n" + userContext + "\n\n")
	prompt.WriteString("Content to save (for context):\n" + selectedText + "\n")
	if len(urls) > 0 {
		prompt.WriteString("\nSource URLs: " + strings.Join(urls, ", ") + "\n")
	}
	prompt.WriteString("\nOutput only the JSON object, no other text.")

	jsonResult := a.reasoner.ReasonJSON(ctx, reasoner.Request{
		Prompt:     prompt.String(),
		System:     systemPrompt,
		ContextMap: map[string]any{"user_context": userContext, "urls": urls},
		CallerTag:  callerTag,
	})
	if jsonResult.Err != nil || !jsonResult.Parsed {
		return "", false
	}

	query, ok := jsonResult.Value["query"].(string)
	query = strings.TrimSpace(query)
	if !ok || query == "" {
		return "", false
	}
	return query, true
}

func (a *Agent) appendToPage(ctx context.Context, userContext, selectedText, pageID, pageURL, contentPreview string) agentcontract.Result {
	prompt := "Return ONLY a single JSON object to append blocks to an existing notes page.\n" +
		"Keys: \"page_id\" (string, the target page id), \"blocks\" (array of block objects). " +
		"Each block: {\"type\": \"paragraph\"|\"heading_1\"|\"heading_2\"|\"to_do\"|\"bulleted_list_item\"|" +
		"\"numbered_list_item\"|\"quote\"|\"code\"|\"divider\", \"content\": string, optional \"checked\" " +
		"(boolean for to_do), optional \"language\" (for code)}.\n" +
		"Target page_id: " + pageID + "\n" +
		"User context: " + userContext + "\n\n" +
		"Content to append:\n" + selectedText + "\n\n" +
		"Output only the JSON object, no other text."

	jsonResult := a.reasoner.ReasonJSON(ctx, reasoner.Request{
		Prompt:     prompt,
		System:     systemPrompt,
		ContextMap: map[string]any{"user_context": userContext, "page_id": pageID},
		CallerTag:  callerTag,
	})
	if jsonResult.Err != nil || !jsonResult.Parsed {
		return failed("Append payload reasoning failed")
	}

	blocks, hasBlocks := jsonResult.Value["blocks"].([]any)
	targetPageID, _ := jsonResult.Value["page_id"].(string)
	if targetPageID == "" || !hasBlocks || len(blocks) == 0 {
		return failed("Invalid append payload: need \"page_id\" and \"blocks\" array")
	}

	appendResult, err := a.surface.Dispatch(ctx, "svc.notes.append_blocks", map[string]any{
		"page_id": targetPageID,
		"blocks":  blocks,
	})
	if err != nil {
		return failed(err.Error())
	}

	outPageID, _ := appendResult["page_id"].(string)
	if outPageID == "" {
		outPageID = targetPageID
	}

	return agentcontract.Result{
		Status: agentcontract.StatusCompleted,
		Result: map[string]any{
			"notes_page_id":  outPageID,
			"notes_page_url": pageURL,
			"summary":        "Note appended to existing page.",
			"content_preview": contentPreview,
		},
	}
}

func (a *Agent) createPage(ctx context.Context, userContext, selectedText, contentPreview string) agentcontract.Result {
	prompt := "Return ONLY a single JSON object to create a new notes page.\n" +
		"Keys: optional \"parent_id\" (string; omit to use default), \"title\" (string), " +
		"optional \"blocks\" (array of block objects: {\"type\", \"content\", optional \"checked\", \"language\"}).\n" +
		"User context: " + userContext + "\n\n" +
		"Content to save (use to build title and optional initial blocks):\n" + selectedText + "\n\n" +
		"Output only the JSON object, no other text."

	jsonResult := a.reasoner.ReasonJSON(ctx, reasoner.Request{
		Prompt:     prompt,
		System:     systemPrompt,
		ContextMap: map[string]any{"user_context": userContext},
		CallerTag:  callerTag,
	})
	if jsonResult.Err != nil || !jsonResult.Parsed {
		return failed("Create payload reasoning failed")
	}

	title, _ := jsonResult.Value["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return failed("Invalid create payload: need \"title\" (string)")
	}

	parentID, _ := jsonResult.Value["parent_id"].(string)
	blocks, _ := jsonResult.Value["blocks"].([]any)

	createResult, err := a.surface.Dispatch(ctx, "svc.notes.create_page", map[string]any{
		"parent_id": parentID,
		"title":     title,
		"blocks":    blocks,
	})
	if err != nil {
		return failed(err.Error())
	}

	outPageID, _ := createResult["page_id"].(string)
	outURL, _ := createResult["url"].(string)

	return agentcontract.Result{
		Status: agentcontract.StatusCompleted,
		Result: map[string]any{
			"notes_page_id":   outPageID,
			"notes_page_url":  outURL,
			"summary":         "Note created.",
			"content_preview": contentPreview,
		},
	}
}

func failed(message string) agentcontract.Result {
	return agentcontract.Result{
		Status: agentcontract.StatusFailed,
		Result: map[string]any{},
		Error:  message,
	}
}

func preview(text string) string {
	if len(text) <= previewLimit {
		return text
	}
	return text[:previewLimit] + "…"
}

func stringField(input agentcontract.Input, key string) string {
	s, _ := input[key].(string)
	return s
}

func stringSliceField(input agentcontract.Input, key string) []string {
	raw, ok := input[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
