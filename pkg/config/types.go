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

package config

import (
	"fmt"
	"os"
)

// LLMConfig configures the reasoner's backend LLM client.
type LLMConfig struct {
	Model       string   `yaml:"model,omitempty"`
	APIKey      string   `yaml:"api_key,omitempty"`
	BaseURL     string   `yaml:"base_url,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
}

func (c *LLMConfig) SetDefaults() {
	if c.Model == "" {
		c.Model = "claude-3-5-sonnet-20241022"
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if c.Temperature == nil {
		temp := 0.7
		c.Temperature = &temp
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
}

func (c *LLMConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set directly or via ANTHROPIC_API_KEY)")
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 1) {
		return fmt.Errorf("llm.temperature must be between 0 and 1")
	}
	return nil
}

// EmbedderConfig configures the embedding client (C1).
type EmbedderConfig struct {
	Provider  string `yaml:"provider,omitempty"` // "openai" | "local"
	Model     string `yaml:"model,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Dimension int    `yaml:"dimension,omitempty"`
	BatchSize int    `yaml:"batch_size,omitempty"`
}

func (c *EmbedderConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.Model == "" {
		c.Model = "text-embedding-3-small"
	}
	if c.Dimension == 0 {
		c.Dimension = 1536
	}
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}
	if c.Provider == "openai" && c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func (c *EmbedderConfig) Validate() error {
	switch c.Provider {
	case "openai", "local":
	default:
		return fmt.Errorf("embedder.provider must be one of openai, local (got %q)", c.Provider)
	}
	if c.Provider == "openai" && c.APIKey == "" {
		return fmt.Errorf("embedder.api_key is required for provider openai")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("embedder.dimension must be positive")
	}
	return nil
}

// VectorStoreConfig configures the context store's embedded vector index (C3).
type VectorStoreConfig struct {
	PersistPath string `yaml:"persist_path,omitempty"`
	Compress    bool   `yaml:"compress,omitempty"`
}

func (c *VectorStoreConfig) SetDefaults() {}

func (c *VectorStoreConfig) Validate() error { return nil }

// AgentConfig is a registry entry: an agent descriptor.
type AgentConfig struct {
	AgentID             string         `yaml:"agent_id" json:"agent_id"`
	LoadableClassName   string         `yaml:"loadable_class_name" json:"loadable_class_name"`
	SupportedTaskTypes  []string       `yaml:"supported_task_types" json:"supported_task_types"`
	Capabilities        []string       `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	RequiredTools       []string       `yaml:"required_tools,omitempty" json:"required_tools,omitempty"`
	RequiredToolServers []string       `yaml:"required_tool_servers,omitempty" json:"required_tool_servers,omitempty"`
	FallbackToolkits    []string       `yaml:"fallback_toolkits,omitempty" json:"fallback_toolkits,omitempty"`
	UseFallbackProvider *bool          `yaml:"use_fallback_provider,omitempty" json:"use_fallback_provider,omitempty"`
	Description         string         `yaml:"description,omitempty" json:"description,omitempty"`
	Config              map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

func (c *AgentConfig) SetDefaults() {
	if c.UseFallbackProvider == nil {
		t := true
		c.UseFallbackProvider = &t
	}
}

func (c *AgentConfig) Validate() error {
	if c.AgentID == "" {
		return fmt.Errorf("agent.agent_id is required")
	}
	if c.LoadableClassName == "" {
		return fmt.Errorf("agent %q: loadable_class_name is required", c.AgentID)
	}
	if len(c.SupportedTaskTypes) == 0 {
		return fmt.Errorf("agent %q: supported_task_types must be non-empty", c.AgentID)
	}
	return nil
}

// UsesFallbackProvider reports whether the descriptor opts into the fallback
// tool provider when required tools are unsatisfied (default true).
func (c *AgentConfig) UsesFallbackProvider() bool {
	return c.UseFallbackProvider == nil || *c.UseFallbackProvider
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

func (c *LoggerConfig) Validate() error { return nil }

// StorageConfig configures on-disk artefacts owned by the service (spreadsheets,
// agent-registry file).
type StorageConfig struct {
	Root               string `yaml:"root,omitempty"`
	AgentRegistryFile  string `yaml:"agent_registry_file,omitempty"`
	DefaultSafeTask    string `yaml:"default_safe_task_type,omitempty"`
	PromptStoreJSONL   string `yaml:"prompt_store_jsonl,omitempty"`
}

func (c *StorageConfig) SetDefaults() {
	if c.Root == "" {
		c.Root = "./data"
	}
	if c.AgentRegistryFile == "" {
		c.AgentRegistryFile = "./agents.json"
	}
	if c.DefaultSafeTask == "" {
		c.DefaultSafeTask = "add-to-knowledge-base"
	}
}

func (c *StorageConfig) Validate() error { return nil }
