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
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/ramisra/agentflow/pkg/config"
)

// LocalEmbedder is an offline embedder with no external dependency: it
// hashes each lowercased word into a fixed-width vector. It trades
// semantic accuracy for zero network/API dependency, useful for local
// development and tests where an OpenAI key is unavailable.
type LocalEmbedder struct {
	dimension int
	model     string
}

// NewLocalEmbedder builds a LocalEmbedder from EmbedderConfig.
func NewLocalEmbedder(cfg config.EmbedderConfig) *LocalEmbedder {
	return &LocalEmbedder{dimension: cfg.Dimension, model: cfg.Model}
}

// Embed converts text to a vector via feature hashing. Empty or
// whitespace-only input yields nil.
func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return hashEmbed(text, e.dimension), nil
}

// EmbedBatch embeds each text independently.
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimension returns the configured vector width.
func (e *LocalEmbedder) Dimension() int { return e.dimension }

// Model returns the configured model label.
func (e *LocalEmbedder) Model() string { return e.model }

// Close releases no resources.
func (e *LocalEmbedder) Close() error { return nil }

// hashEmbed produces a deterministic, L2-normalized vector of the given
// width from the words of text via FNV-1a feature hashing.
func hashEmbed(text string, dimension int) []float32 {
	if dimension <= 0 {
		dimension = 1536
	}

	vec := make([]float32, dimension)
	words := strings.Fields(strings.ToLower(text))

	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		idx := int(h.Sum32()) % dimension
		if idx < 0 {
			idx += dimension
		}
		vec[idx]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
