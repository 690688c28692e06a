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

// Package vector is the embedded vector-similarity backend used by the
// context store's candidate ranking.
package vector

import "context"

// Result is one match returned by a similarity search.
type Result struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]any
}

// Provider is the minimal vector-store contract the context store needs:
// upsert a pre-computed embedding, search by vector, and delete by ID or
// filter. Embeddings are always computed externally (pkg/embedderprovider)
// and passed in — providers never compute their own.
type Provider interface {
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error)
	SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Result, error)
	Delete(ctx context.Context, collection string, id string) error
	DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error
	CreateCollection(ctx context.Context, collection string, vectorDimension int) error
	DeleteCollection(ctx context.Context, collection string) error
	Name() string
	Close() error
}
