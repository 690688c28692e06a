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

// Package config provides the layered configuration for the orchestration
// service: database, reasoner, embedder, vector store, agent registry, logger
// and on-disk storage, loaded from a single YAML file with environment
// variable expansion.
package config

import "fmt"

// Config is the single entry point for all configuration.
type Config struct {
	Version     string                  `yaml:"version,omitempty"`
	Name        string                  `yaml:"name,omitempty"`
	Description string                  `yaml:"description,omitempty"`
	Database    DatabaseConfig          `yaml:"database"`
	LLM         LLMConfig               `yaml:"llm"`
	Embedder    EmbedderConfig          `yaml:"embedder"`
	VectorStore VectorStoreConfig       `yaml:"vector_store"`
	Logger      LoggerConfig            `yaml:"logger"`
	Storage     StorageConfig           `yaml:"storage"`
	Agents      map[string]*AgentConfig `yaml:"agents,omitempty"`
}

// SetDefaults applies default values to every section.
func (c *Config) SetDefaults() {
	c.Database.SetDefaults()
	c.LLM.SetDefaults()
	c.Embedder.SetDefaults()
	c.VectorStore.SetDefaults()
	c.Logger.SetDefaults()
	c.Storage.SetDefaults()
	for id, a := range c.Agents {
		if a.AgentID == "" {
			a.AgentID = id
		}
		a.SetDefaults()
	}
}

// Validate checks every section and cross-references agent ids.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Embedder.Validate(); err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	if err := c.VectorStore.Validate(); err != nil {
		return fmt.Errorf("vector_store: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	for id, a := range c.Agents {
		if id != a.AgentID {
			return fmt.Errorf("agents: key %q does not match agent_id %q", id, a.AgentID)
		}
		if err := a.Validate(); err != nil {
			return fmt.Errorf("agents.%s: %w", id, err)
		}
	}
	return nil
}
