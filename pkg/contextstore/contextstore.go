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

// Package contextstore combines the relational store, the embedded
// vector index, and an embedder into the context-store component: create
// with deferred commit, fetch, similarity search, and parent-topic
// linking.
package contextstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramisra/agentflow/pkg/embedder"
	"github.com/ramisra/agentflow/pkg/embedderprovider"
	"github.com/ramisra/agentflow/pkg/store"
	"github.com/ramisra/agentflow/pkg/svcerr"
	"github.com/ramisra/agentflow/pkg/vector"
)

const vectorCollection = "user_contexts"

// Defaults for the parent-topic-linking heuristic.
const (
	DefaultMinTagOverlap = 1
	DefaultSimilarityTau = 0.7
)

// Draft is a not-yet-committed context create. Create stages a Draft and
// returns its context ID, so callers can batch several creates and commit
// them together — writes are deferred until the caller explicitly commits.
type Draft struct {
	context store.Context
}

// ContextStore is the context-store component (C3).
type ContextStore struct {
	store    *store.Store
	vec      vector.Provider
	embedder embedder.Embedder

	minTagOverlap int
	tau           float64

	mu      sync.Mutex
	pending []Draft
}

// Option configures a ContextStore.
type Option func(*ContextStore)

// WithMinTagOverlap overrides the default tag-overlap threshold.
func WithMinTagOverlap(n int) Option {
	return func(c *ContextStore) { c.minTagOverlap = n }
}

// WithSimilarityThreshold overrides the default cosine-similarity
// threshold τ used to accept a parent-topic candidate.
func WithSimilarityThreshold(tau float64) Option {
	return func(c *ContextStore) { c.tau = tau }
}

// New builds a ContextStore from its three collaborators.
func New(s *store.Store, vec vector.Provider, emb embedder.Embedder, opts ...Option) *ContextStore {
	c := &ContextStore{
		store:         s,
		vec:           vec,
		embedder:      emb,
		minTagOverlap: DefaultMinTagOverlap,
		tau:           DefaultSimilarityTau,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateInput is the input to Create.
type CreateInput struct {
	UserID     string
	RawContent string
	Tags       []string
	URL        string
	Kind       string
	FindParent bool
}

// Create computes an embedding for rawContent, optionally resolves a
// parent via the tag+similarity heuristic, and stages the resulting row
// for the next Commit. It does not write to the store until Commit is
// called.
func (c *ContextStore) Create(ctx context.Context, in CreateInput) (string, error) {
	if in.UserID == "" || in.RawContent == "" {
		return "", svcerr.NewContextStoreError(svcerr.KindInvalidInput, "Create", "user_id and raw_content are required", nil)
	}

	dedupedTags := dedupeTags(in.Tags)

	var embedding []float32
	if c.embedder != nil {
		vec, err := c.embedder.Embed(ctx, in.RawContent)
		if err != nil {
			return "", svcerr.NewContextStoreError(svcerr.KindIngestPartial, "Create", "embedding failed", err)
		}
		embedding = vec
	}

	var parentID string
	if in.FindParent {
		candidate, err := c.findParent(ctx, in.UserID, dedupedTags, embedding)
		if err != nil {
			return "", err
		}
		parentID = candidate
	}

	row := store.Context{
		ContextID:       uuid.NewString(),
		UserID:          in.UserID,
		RawContent:      in.RawContent,
		Tags:            dedupedTags,
		Embedding:       embedding,
		URL:             in.URL,
		Kind:            in.Kind,
		ParentContextID: parentID,
		CreatedAt:       time.Now().UTC(),
	}

	c.mu.Lock()
	c.pending = append(c.pending, Draft{context: row})
	c.mu.Unlock()

	return row.ContextID, nil
}

// Commit writes every staged context to the relational store and the
// vector index in one batch, then clears the pending set. A single
// failed row does not abort the batch — its error is returned alongside
// the IDs that did commit successfully.
func (c *ContextStore) Commit(ctx context.Context) (committed []string, err error) {
	c.mu.Lock()
	drafts := c.pending
	c.pending = nil
	c.mu.Unlock()

	var firstErr error
	for _, d := range drafts {
		if writeErr := c.store.CreateContext(ctx, d.context); writeErr != nil {
			if firstErr == nil {
				firstErr = writeErr
			}
			continue
		}

		if len(d.context.Embedding) > 0 {
			metadata := map[string]any{
				"content": d.context.RawContent,
				"user_id": d.context.UserID,
				"kind":    d.context.Kind,
			}
			if upsertErr := c.vec.Upsert(ctx, vectorCollection, d.context.ContextID, d.context.Embedding, metadata); upsertErr != nil {
				if firstErr == nil {
					firstErr = svcerr.NewContextStoreError(svcerr.KindIngestPartial, "Commit", "vector upsert failed", upsertErr)
				}
				continue
			}
		}

		committed = append(committed, d.context.ContextID)
	}

	return committed, firstErr
}

// Get fetches a single context.
func (c *ContextStore) Get(ctx context.Context, contextID string) (store.Context, error) {
	return c.store.GetContext(ctx, contextID)
}

// GetByIDs fetches multiple contexts.
func (c *ContextStore) GetByIDs(ctx context.Context, contextIDs []string) ([]store.Context, error) {
	return c.store.GetContextsByIDs(ctx, contextIDs)
}

// ListByUser returns every context a user owns.
func (c *ContextStore) ListByUser(ctx context.Context, userID string) ([]store.Context, error) {
	return c.store.ListContextsByUser(ctx, userID, false)
}

// SimilaritySearch finds the topK contexts closest to query, optionally
// scoped to a user.
func (c *ContextStore) SimilaritySearch(ctx context.Context, query string, userID string, topK int) ([]vector.Result, error) {
	if c.embedder == nil {
		return nil, svcerr.NewContextStoreError(svcerr.KindInvalidInput, "SimilaritySearch", "no embedder configured", nil)
	}

	vec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, svcerr.NewContextStoreError(svcerr.KindReasonerError, "SimilaritySearch", "query embedding failed", err)
	}

	var filter map[string]any
	if userID != "" {
		filter = map[string]any{"user_id": userID}
	}

	results, err := c.vec.SearchWithFilter(ctx, vectorCollection, vec, topK, filter)
	if err != nil {
		return nil, svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "SimilaritySearch", "vector search failed", err)
	}
	return results, nil
}

// findParent implements the parent-topic-linking rule: candidate roots
// filtered by tag overlap, ranked by cosine similarity when an embedding
// is available, falling back to stable tag-match order otherwise.
func (c *ContextStore) findParent(ctx context.Context, userID string, tags []string, embedding []float32) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}

	roots, err := c.store.ListContextsByUser(ctx, userID, true)
	if err != nil {
		return "", svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "findParent", "listing root contexts failed", err)
	}

	var candidates []store.Context
	for _, root := range roots {
		if tagOverlap(tags, root.Tags) >= c.minTagOverlap {
			candidates = append(candidates, root)
		}
	}
	if len(candidates) == 0 {
		return "", nil
	}

	// Stable order: earliest-created first, ties broken by context ID.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].ContextID < candidates[j].ContextID
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	if len(embedding) == 0 {
		return candidates[0].ContextID, nil
	}

	best := ""
	bestScore := -1.0
	for _, cand := range candidates {
		if len(cand.Embedding) == 0 {
			continue
		}
		score := embedderprovider.CosineSimilarity(embedding, cand.Embedding)
		if score > bestScore {
			bestScore = score
			best = cand.ContextID
		}
	}

	if best != "" && bestScore >= c.tau {
		return best, nil
	}

	return candidates[0].ContextID, nil
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func tagOverlap(a, b []string) int {
	bSet := make(map[string]bool, len(b))
	for _, t := range b {
		bSet[t] = true
	}
	count := 0
	for _, t := range a {
		if bSet[t] {
			count++
		}
	}
	return count
}

// PendingCount reports how many drafts are staged but not yet committed,
// useful for callers that want to flush before ending a request.
func (c *ContextStore) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
