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

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ramisra/agentflow/pkg/svcerr"
)

// Context is a single unit of ingested user context: a piece of raw
// content (a note, a forwarded message, a scraped page) plus the tags,
// optional embedding, and optional parent link used for retrieval.
type Context struct {
	ContextID       string
	UserID          string
	RawContent      string
	UserSummary     string
	Tags            []string
	Embedding       []float32
	URL             string
	Kind            string
	ParentContextID string
	CreatedAt       time.Time
}

// CreateContext inserts a new context row.
func (s *Store) CreateContext(ctx context.Context, c Context) error {
	tagsJSON, err := json.Marshal(c.Tags)
	if err != nil {
		return svcerr.NewContextStoreError(svcerr.KindInvalidInput, "CreateContext", "failed to marshal tags", err)
	}

	var embeddingJSON []byte
	if len(c.Embedding) > 0 {
		embeddingJSON, err = json.Marshal(c.Embedding)
		if err != nil {
			return svcerr.NewContextStoreError(svcerr.KindInvalidInput, "CreateContext", "failed to marshal embedding", err)
		}
	}

	query := fmt.Sprintf(`
INSERT INTO user_contexts (context_id, user_id, raw_content, user_summary, tags, embedding, url, kind, parent_context_id, created_at)
VALUES (%s)
`, s.placeholders(10))

	_, err = s.db.ExecContext(ctx, query,
		c.ContextID, c.UserID, c.RawContent, c.UserSummary, string(tagsJSON), string(embeddingJSON), c.URL, c.Kind, nullable(c.ParentContextID), c.CreatedAt)
	if err != nil {
		return svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "CreateContext", "insert failed", err)
	}
	return nil
}

// GetContext fetches one context row by ID.
func (s *Store) GetContext(ctx context.Context, contextID string) (Context, error) {
	query := fmt.Sprintf(`
SELECT context_id, user_id, raw_content, user_summary, tags, embedding, url, kind, parent_context_id, created_at
FROM user_contexts WHERE context_id = %s
`, s.placeholder(1))

	row := s.db.QueryRowContext(ctx, query, contextID)
	c, err := scanContext(row)
	if err == sql.ErrNoRows {
		return Context{}, svcerr.NewContextStoreError(svcerr.KindInvalidInput, "GetContext", "context not found: "+contextID, nil)
	}
	if err != nil {
		return Context{}, svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "GetContext", "scan failed", err)
	}
	return c, nil
}

// GetContextsByIDs fetches multiple contexts in one round trip, preserving
// no particular order — callers that need order re-sort by ID.
func (s *Store) GetContextsByIDs(ctx context.Context, contextIDs []string) ([]Context, error) {
	if len(contextIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
SELECT context_id, user_id, raw_content, user_summary, tags, embedding, url, kind, parent_context_id, created_at
FROM user_contexts WHERE context_id IN (%s)
`, s.placeholders(len(contextIDs)))

	args := make([]any, len(contextIDs))
	for i, id := range contextIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "GetContextsByIDs", "query failed", err)
	}
	defer rows.Close()

	var contexts []Context
	for rows.Next() {
		c, err := scanContext(rows)
		if err != nil {
			return nil, svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "GetContextsByIDs", "scan failed", err)
		}
		contexts = append(contexts, c)
	}
	return contexts, rows.Err()
}

// ListContextsByUser returns every context owned by userID, most recent
// first. rootOnly restricts the result to contexts with no parent, used
// by the parent-topic-linking candidate search.
func (s *Store) ListContextsByUser(ctx context.Context, userID string, rootOnly bool) ([]Context, error) {
	query := fmt.Sprintf(`
SELECT context_id, user_id, raw_content, user_summary, tags, embedding, url, kind, parent_context_id, created_at
FROM user_contexts WHERE user_id = %s
`, s.placeholder(1))
	if rootOnly {
		query += " AND parent_context_id IS NULL"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "ListContextsByUser", "query failed", err)
	}
	defer rows.Close()

	var contexts []Context
	for rows.Next() {
		c, err := scanContext(rows)
		if err != nil {
			return nil, svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "ListContextsByUser", "scan failed", err)
		}
		contexts = append(contexts, c)
	}
	return contexts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContext(row rowScanner) (Context, error) {
	var (
		c               Context
		tagsJSON        string
		embeddingJSON   sql.NullString
		userSummary     sql.NullString
		url             sql.NullString
		parentContextID sql.NullString
	)

	if err := row.Scan(&c.ContextID, &c.UserID, &c.RawContent, &userSummary, &tagsJSON, &embeddingJSON, &url, &c.Kind, &parentContextID, &c.CreatedAt); err != nil {
		return Context{}, err
	}

	c.UserSummary = userSummary.String
	c.URL = url.String
	c.ParentContextID = parentContextID.String

	if tagsJSON != "" {
		_ = json.Unmarshal([]byte(tagsJSON), &c.Tags)
	}
	if embeddingJSON.Valid && embeddingJSON.String != "" {
		_ = json.Unmarshal([]byte(embeddingJSON.String), &c.Embedding)
	}

	return c, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
