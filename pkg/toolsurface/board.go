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

// BoardServer wraps search / create-card / move-card operations against
// an external kanban service, grounded on the dropped task-board
// collaborator in original_source/app/core/composio_trello.py.
type BoardServer struct {
	client  *httpclient.Client
	apiKey  string
	boardID string
	baseURL string
}

// NewBoardServer builds a board server bound to boardID.
func NewBoardServer(apiKey, boardID, baseURL string) *BoardServer {
	if baseURL == "" {
		baseURL = "https://api.trello.com/1"
	}
	return &BoardServer{
		client:  httpclient.New(),
		apiKey:  apiKey,
		boardID: boardID,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *BoardServer) Name() string { return "board" }

func (s *BoardServer) Tools() []Tool {
	return []Tool{
		{Name: "search", Description: "Searches cards on the board by query text.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{"query": map[string]any{"type": "string"}}, "required": []string{"query"}}},
		{Name: "create_card", Description: "Creates a new card in the given list.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{
				"list_name":   map[string]any{"type": "string"},
				"title":       map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
			}, "required": []string{"list_name", "title"}}},
		{Name: "move_card", Description: "Moves a card to a different list.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{
				"card_id":   map[string]any{"type": "string"},
				"list_name": map[string]any{"type": "string"},
			}, "required": []string{"card_id", "list_name"}}},
	}
}

func (s *BoardServer) Call(ctx context.Context, toolName string, params map[string]any) (map[string]any, error) {
	switch toolName {
	case "search":
		return s.search(ctx, params)
	case "create_card":
		return s.createCard(ctx, params)
	case "move_card":
		return s.moveCard(ctx, params)
	default:
		return nil, svcerr.NewToolError(svcerr.KindToolFailure, "board."+toolName, "unknown tool", nil)
	}
}

func (s *BoardServer) search(ctx context.Context, params map[string]any) (map[string]any, error) {
	query, _ := params["query"].(string)
	if query == "" {
		return nil, svcerr.NewToolError(svcerr.KindInvalidInput, "board.search", "query is required", nil)
	}

	var cards []struct {
		ID     string `json:"id"`
		URL    string `json:"url"`
		IDList string `json:"idList"`
	}
	path := fmt.Sprintf("/boards/%s/cards?filter=open", s.boardID)
	if err := s.do(ctx, http.MethodGet, path, nil, &cards); err != nil {
		return nil, err
	}

	var lists []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/boards/%s/lists", s.boardID), nil, &lists); err != nil {
		return nil, err
	}
	listNames := make(map[string]string, len(lists))
	for _, l := range lists {
		listNames[l.ID] = l.Name
	}

	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.URL), strings.ToLower(query)) {
			return map[string]any{"card_id": c.ID, "url": c.URL, "list_name": listNames[c.IDList]}, nil
		}
	}
	if len(cards) == 0 {
		return map[string]any{"card_id": ""}, nil
	}
	return map[string]any{"card_id": cards[0].ID, "url": cards[0].URL, "list_name": listNames[cards[0].IDList]}, nil
}

func (s *BoardServer) createCard(ctx context.Context, params map[string]any) (map[string]any, error) {
	listName, _ := params["list_name"].(string)
	title, _ := params["title"].(string)
	description, _ := params["description"].(string)
	if listName == "" || title == "" {
		return nil, svcerr.NewToolError(svcerr.KindInvalidInput, "board.create_card", "list_name and title are required", nil)
	}

	listID, err := s.resolveListID(ctx, listName)
	if err != nil {
		return nil, err
	}

	var card struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	body := map[string]any{"idList": listID, "name": title, "desc": description}
	if err := s.do(ctx, http.MethodPost, "/cards", body, &card); err != nil {
		return nil, err
	}
	return map[string]any{"card_id": card.ID, "url": card.URL, "list_name": listName}, nil
}

func (s *BoardServer) moveCard(ctx context.Context, params map[string]any) (map[string]any, error) {
	cardID, _ := params["card_id"].(string)
	listName, _ := params["list_name"].(string)
	if cardID == "" || listName == "" {
		return nil, svcerr.NewToolError(svcerr.KindInvalidInput, "board.move_card", "card_id and list_name are required", nil)
	}

	listID, err := s.resolveListID(ctx, listName)
	if err != nil {
		return nil, err
	}

	var card struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := s.do(ctx, http.MethodPut, fmt.Sprintf("/cards/%s?idList=%s", cardID, listID), nil, &card); err != nil {
		return nil, err
	}
	return map[string]any{"card_id": card.ID, "url": card.URL, "list_name": listName}, nil
}

func (s *BoardServer) resolveListID(ctx context.Context, listName string) (string, error) {
	var lists []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/boards/%s/lists", s.boardID), nil, &lists); err != nil {
		return "", err
	}
	for _, l := range lists {
		if strings.EqualFold(l.Name, listName) {
			return l.ID, nil
		}
	}
	return "", svcerr.NewToolError(svcerr.KindInvalidInput, "board", "list not found: "+listName, nil)
}

func (s *BoardServer) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return svcerr.NewToolError(svcerr.KindInvalidInput, "board", "failed to marshal request", err)
		}
		reqBody = bytes.NewReader(data)
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	url := fmt.Sprintf("%s%s%skey=%s", s.baseURL, path, sep, s.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return svcerr.NewToolError(svcerr.KindToolFailure, "board", "failed to build request", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return svcerr.NewToolError(svcerr.KindToolFailure, "board", "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return svcerr.NewToolError(svcerr.KindToolFailure, "board", "failed to read response", err)
	}

	if resp.StatusCode >= 300 {
		return svcerr.NewToolError(svcerr.KindToolFailure, "board", fmt.Sprintf("backend returned %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return svcerr.NewToolError(svcerr.KindToolFailure, "board", "failed to decode response", err)
		}
	}
	return nil
}

var _ Server = (*BoardServer)(nil)
