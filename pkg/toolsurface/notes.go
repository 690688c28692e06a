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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ramisra/agentflow/pkg/httpclient"
	"github.com/ramisra/agentflow/pkg/svcerr"
)

// notesAPIVersion pins the wire version of the external notes service,
// the way a Notion integration pins Notion-Version.
const notesAPIVersion = "2025-09-03"

// blockTaxonomy lists the simplified block types the notes server
// accepts, normalized into the external service's richer block schema.
var blockTaxonomy = map[string]bool{
	"paragraph": true, "heading_1": true, "heading_2": true,
	"to_do": true, "bulleted_list_item": true, "numbered_list_item": true,
	"quote": true, "code": true, "divider": true,
}

// NotesServer wraps search / create-page / append-blocks operations
// against an external notes service (grounded on the dropped notes
// integration in original_source/app/core/tools/notion_client.py).
type NotesServer struct {
	client  *httpclient.Client
	apiKey  string
	baseURL string
}

// NewNotesServer builds a notes server bound to apiKey.
func NewNotesServer(apiKey, baseURL string) *NotesServer {
	if baseURL == "" {
		baseURL = "https://api.notion.com/v1"
	}
	return &NotesServer{
		client:  httpclient.New(),
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *NotesServer) Name() string { return "notes" }

func (s *NotesServer) Tools() []Tool {
	return []Tool{
		{Name: "search", Description: "Searches notes pages by query text.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{"query": map[string]any{"type": "string"}}, "required": []string{"query"}}},
		{Name: "create_page", Description: "Creates a new notes page under a parent page.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{
				"parent_id": map[string]any{"type": "string"},
				"title":     map[string]any{"type": "string"},
				"blocks":    map[string]any{"type": "array"},
			}, "required": []string{"parent_id", "title"}}},
		{Name: "append_blocks", Description: "Appends blocks to an existing notes page.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{
				"page_id": map[string]any{"type": "string"},
				"blocks":  map[string]any{"type": "array"},
			}, "required": []string{"page_id", "blocks"}}},
	}
}

func (s *NotesServer) Call(ctx context.Context, toolName string, params map[string]any) (map[string]any, error) {
	switch toolName {
	case "search":
		return s.search(ctx, params)
	case "create_page":
		return s.createPage(ctx, params)
	case "append_blocks":
		return s.appendBlocks(ctx, params)
	default:
		return nil, svcerr.NewToolError(svcerr.KindToolFailure, "notes."+toolName, "unknown tool", nil)
	}
}

func (s *NotesServer) search(ctx context.Context, params map[string]any) (map[string]any, error) {
	query, _ := params["query"].(string)
	if query == "" {
		return nil, svcerr.NewToolError(svcerr.KindInvalidInput, "notes.search", "query is required", nil)
	}

	body := map[string]any{
		"query": query,
		"sort":  map[string]any{"direction": "descending", "timestamp": "last_edited_time"},
	}

	var resp struct {
		Results []struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		} `json:"results"`
	}
	if err := s.do(ctx, http.MethodPost, "/search", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return map[string]any{"page_id": ""}, nil
	}
	return map[string]any{"page_id": resp.Results[0].ID, "url": resp.Results[0].URL}, nil
}

func (s *NotesServer) createPage(ctx context.Context, params map[string]any) (map[string]any, error) {
	parentID, _ := params["parent_id"].(string)
	title, _ := params["title"].(string)
	if parentID == "" || title == "" {
		return nil, svcerr.NewToolError(svcerr.KindInvalidInput, "notes.create_page", "parent_id and title are required", nil)
	}

	blocks, err := toNotesBlocks(params["blocks"])
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"parent":     map[string]any{"page_id": parentID},
		"properties": map[string]any{"title": map[string]any{"title": richText(title)}},
		"children":   blocks,
	}

	var resp struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := s.do(ctx, http.MethodPost, "/pages", body, &resp); err != nil {
		return nil, err
	}
	return map[string]any{"page_id": resp.ID, "url": resp.URL, "title_plain": title}, nil
}

func (s *NotesServer) appendBlocks(ctx context.Context, params map[string]any) (map[string]any, error) {
	pageID, _ := params["page_id"].(string)
	if pageID == "" {
		return nil, svcerr.NewToolError(svcerr.KindInvalidInput, "notes.append_blocks", "page_id is required", nil)
	}

	blocks, err := toNotesBlocks(params["blocks"])
	if err != nil {
		return nil, err
	}

	var resp struct {
		Object string `json:"object"`
	}
	if err := s.do(ctx, http.MethodPatch, "/blocks/"+pageID+"/children", map[string]any{"children": blocks}, &resp); err != nil {
		return nil, err
	}
	return map[string]any{"page_id": pageID}, nil
}

// toNotesBlocks converts the simplified {type, content, checked?,
// language?} block shape into the external service's richer block
// objects.
func toNotesBlocks(raw any) ([]map[string]any, error) {
	items, _ := raw.([]any)
	blocks := make([]map[string]any, 0, len(items))

	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		blockType, _ := m["type"].(string)
		if blockType == "" {
			blockType = "paragraph"
		}
		if !blockTaxonomy[blockType] {
			return nil, svcerr.NewToolError(svcerr.KindInvalidInput, "notes", "unsupported block type: "+blockType, nil)
		}

		content, _ := m["content"].(string)
		block := map[string]any{"object": "block", "type": blockType}

		switch blockType {
		case "to_do":
			checked, _ := m["checked"].(bool)
			block["to_do"] = map[string]any{"rich_text": richText(content), "checked": checked}
		case "divider":
			block["divider"] = map[string]any{}
		case "code":
			language, _ := m["language"].(string)
			if language == "" {
				language = "plain text"
			}
			block["code"] = map[string]any{"rich_text": richText(content), "language": language}
		default:
			block[blockType] = map[string]any{"rich_text": richText(content)}
		}

		blocks = append(blocks, block)
	}
	return blocks, nil
}

func richText(content string) []map[string]any {
	return []map[string]any{{"type": "text", "text": map[string]any{"content": content}}}
}

func (s *NotesServer) do(ctx context.Context, method, path string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return svcerr.NewToolError(svcerr.KindInvalidInput, "notes", "failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return svcerr.NewToolError(svcerr.KindToolFailure, "notes", "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Notion-Version", notesAPIVersion)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return svcerr.NewToolError(svcerr.KindToolFailure, "notes", "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return svcerr.NewToolError(svcerr.KindToolFailure, "notes", "failed to read response", err)
	}

	if resp.StatusCode >= 300 {
		return svcerr.NewToolError(svcerr.KindToolFailure, "notes", fmt.Sprintf("backend returned %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return svcerr.NewToolError(svcerr.KindToolFailure, "notes", "failed to decode response", err)
		}
	}
	return nil
}

var _ Server = (*NotesServer)(nil)
