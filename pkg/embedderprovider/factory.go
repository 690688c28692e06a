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

package embedderprovider

import (
	"fmt"
	"math"

	"github.com/ramisra/agentflow/pkg/config"
	"github.com/ramisra/agentflow/pkg/embedder"
	"github.com/ramisra/agentflow/pkg/registry"
)

// New builds the configured embedder.Embedder: "openai" for the HTTP
// provider, "local" for the offline hashing provider.
func New(cfg config.EmbedderConfig) (embedder.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg)
	case "local":
		return NewLocalEmbedder(cfg), nil
	default:
		return nil, fmt.Errorf("embedderprovider: unknown provider %q", cfg.Provider)
	}
}

// Registry holds named embedders, so a service can keep more than one
// provider alive at once (e.g. a primary OpenAI embedder and a local
// fallback for offline tests).
type Registry = registry.BaseRegistry[embedder.Embedder]

// NewRegistry creates an empty embedder registry.
func NewRegistry() *Registry {
	return registry.NewBaseRegistry[embedder.Embedder]()
}

// CosineSimilarity computes cosine similarity between two vectors. A
// zero-norm input (including mismatched or empty vectors) yields 0,
// never a division error.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
