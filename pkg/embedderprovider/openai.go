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

// Package embedderprovider supplies concrete embedder.Embedder
// implementations: an OpenAI-compatible HTTP provider and a local/offline
// provider, selected by configuration and held in a small provider
// registry (C1).
package embedderprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ramisra/agentflow/pkg/config"
	"github.com/ramisra/agentflow/pkg/httpclient"
)

// openAIEmbedRequest is the request payload for the OpenAI-compatible
// embeddings endpoint.
type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// OpenAIEmbedder implements embedder.Embedder against an
// OpenAI-compatible HTTP embeddings endpoint.
type OpenAIEmbedder struct {
	client    *httpclient.Client
	apiKey    string
	baseURL   string
	model     string
	dimension int
	batchSize int
}

// NewOpenAIEmbedder builds an OpenAIEmbedder from EmbedderConfig. Batches
// larger than cfg.BatchSize are chunked by EmbedBatch.
func NewOpenAIEmbedder(cfg config.EmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedderprovider: api key is required for openai provider")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIEmbedder{
		client:    httpclient.New(httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders)),
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
	}, nil
}

// Embed converts text to a vector embedding. Empty or whitespace-only
// input yields nil without calling the backend.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return vectors[0], nil
}

// EmbedBatch converts multiple texts in chunks of at most e.batchSize.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	batchSize := e.batchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		chunk := texts[start:end]
		nonEmpty := make([]string, 0, len(chunk))
		for _, t := range chunk {
			if strings.TrimSpace(t) != "" {
				nonEmpty = append(nonEmpty, t)
			}
		}
		if len(nonEmpty) == 0 {
			for range chunk {
				out = append(out, nil)
			}
			continue
		}

		vectors, err := e.embed(ctx, nonEmpty)
		if err != nil {
			return nil, err
		}

		vi := 0
		for _, t := range chunk {
			if strings.TrimSpace(t) == "" {
				out = append(out, nil)
				continue
			}
			out = append(out, vectors[vi])
			vi++
		}
	}

	return out, nil
}

func (e *OpenAIEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody, err := json.Marshal(openAIEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embedderprovider: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("embedderprovider: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embedderprovider: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedderprovider: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedderprovider: openai returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed openAIEmbedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("embedderprovider: decode response: %w", err)
	}

	vectors := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			continue
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Dimension returns the configured embedding width.
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// Model returns the configured model name.
func (e *OpenAIEmbedder) Model() string { return e.model }

// Close releases no resources; the underlying HTTP client owns no
// long-lived connections worth closing explicitly.
func (e *OpenAIEmbedder) Close() error { return nil }
