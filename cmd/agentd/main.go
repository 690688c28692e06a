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

// Command agentd is the CLI for the orchestration pkg.
//
// Usage:
//
//	agentd serve-once --config config.yaml --user-context "..." --selected-text "..."
//	agentd validate-registry --config config.yaml
//	agentd migrate --config config.yaml
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/ramisra/agentflow/pkg/agentregistry"
	"github.com/ramisra/agentflow/pkg/agentspawner"
	"github.com/ramisra/agentflow/pkg/config"
	"github.com/ramisra/agentflow/pkg/contextstore"
	"github.com/ramisra/agentflow/pkg/embedderprovider"
	"github.com/ramisra/agentflow/pkg/logger"
	"github.com/ramisra/agentflow/pkg/orchestrator"
	"github.com/ramisra/agentflow/pkg/promptstore"
	"github.com/ramisra/agentflow/pkg/reasoner"
	"github.com/ramisra/agentflow/pkg/store"
	"github.com/ramisra/agentflow/pkg/taskidentifier"
	"github.com/ramisra/agentflow/pkg/toolsurface"
	"github.com/ramisra/agentflow/pkg/vector"

	_ "github.com/ramisra/agentflow/pkg/agents/dataextraction"
	_ "github.com/ramisra/agentflow/pkg/agents/notetaking"
	_ "github.com/ramisra/agentflow/pkg/agents/taskboard"
)

// CLI defines the command-line interface.
type CLI struct {
	ServeOnce        ServeOnceCmd        `cmd:"" help:"Run a single orchestration request end to end and print the result."`
	ValidateRegistry ValidateRegistryCmd `cmd:"" help:"Resolve every registered agent's loadable class and report failures."`
	Migrate          MigrateCmd          `cmd:"" help:"Apply the relational schema to the configured database."`
	Version          VersionCmd          `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path" default:"agentd.yaml"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)." `
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("agentd version %s\n", version)
	return nil
}

// ServeOnceCmd runs one orchestration request without an HTTP server.
type ServeOnceCmd struct {
	UserID           string   `required:"" help:"User id the request is executed on behalf of."`
	SelectedText     string   `help:"Selected text supplied with the request."`
	UserContext      string   `help:"Free-form user instructions/context."`
	URL              []string `help:"Source URL (repeatable)."`
	ExplicitTaskType string   `name:"task-type" help:"Skip classification and run this task type directly."`
}

func (c *ServeOnceCmd) Run(cli *CLI) error {
	ctx := context.Background()

	cfg, err := loadCLIConfig(cli)
	if err != nil {
		return err
	}

	orch, closeFn, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := orch.Orchestrate(ctx, orchestrator.Request{
		UserID:           c.UserID,
		SelectedText:     c.SelectedText,
		UserContext:      c.UserContext,
		URLs:             c.URL,
		ExplicitTaskType: c.ExplicitTaskType,
	})
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

// ValidateRegistryCmd resolves every descriptor's loadable class.
type ValidateRegistryCmd struct{}

func (c *ValidateRegistryCmd) Run(cli *CLI) error {
	cfg, err := loadCLIConfig(cli)
	if err != nil {
		return err
	}

	registry, err := loadAgentRegistry(cfg)
	if err != nil {
		return fmt.Errorf("failed to load agent registry: %w", err)
	}

	var failures []string
	for _, descriptor := range registry.Descriptors() {
		for _, taskType := range descriptor.SupportedTaskTypes {
			if _, _, err := registry.LookupByTaskType(taskType); err != nil {
				failures = append(failures, fmt.Sprintf("agent %q (task type %q): %v", descriptor.AgentID, taskType, err))
			}
		}
	}

	if len(failures) > 0 {
		for _, f := range failures {
			fmt.Fprintln(os.Stderr, f)
		}
		return fmt.Errorf("registry validation failed: %d agent(s) could not be resolved", len(failures))
	}

	fmt.Printf("registry OK: %d agent(s) resolved\n", len(registry.Descriptors()))
	return nil
}

// MigrateCmd applies the relational schema to the configured database.
// store.Open creates every table with CREATE TABLE IF NOT EXISTS, so
// migrating is simply opening the store once against the target database.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(cli *CLI) error {
	cfg, err := loadCLIConfig(cli)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer st.Close()

	fmt.Printf("schema applied to %s database %q\n", cfg.Database.Driver, cfg.Database.Database)
	return nil
}

func loadCLIConfig(cli *CLI) (*config.Config, error) {
	_ = godotenv.Load()

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		return nil, err
	}
	output := os.Stderr
	if cli.LogFile != "" {
		file, _, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
	}
	logger.Init(level, output, cli.LogFormat)

	cfg, err := config.LoadConfig(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// loadAgentRegistry builds the agent registry from the config file's
// inline "agents" map when present, falling back to the standalone
// registry file named in storage.agent_registry_file.
func loadAgentRegistry(cfg *config.Config) (*agentregistry.Registry, error) {
	if len(cfg.Agents) > 0 {
		descriptors := make([]config.AgentConfig, 0, len(cfg.Agents))
		for _, a := range cfg.Agents {
			descriptors = append(descriptors, *a)
		}
		return agentregistry.New(descriptors), nil
	}
	return agentregistry.Load(cfg.Storage.AgentRegistryFile)
}

// buildOrchestrator wires every shared collaborator from cfg
// and returns a ready Orchestrator plus a cleanup func that releases the
// database and vector-index handles.
func buildOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, func(), error) {
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	vec, err := vector.NewProvider(&vector.ChromemConfig{
		PersistPath: cfg.VectorStore.PersistPath,
		Compress:    cfg.VectorStore.Compress,
	})
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	emb, err := embedderprovider.New(cfg.Embedder)
	if err != nil {
		st.Close()
		vec.Close()
		return nil, nil, fmt.Errorf("failed to build embedder: %w", err)
	}

	cleanup := func() {
		vec.Close()
		st.Close()
	}

	var sink promptstore.Sink = promptstore.NoopSink{}
	if cfg.Storage.PromptStoreJSONL != "" {
		jsonlSink, err := promptstore.NewJSONLSink(cfg.Storage.PromptStoreJSONL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to open prompt store sink: %w", err)
		}
		sink = jsonlSink
	}

	ctxStore := contextstore.New(st, vec, emb)

	writer, err := toolsurface.NewWriterServer(cfg.Storage.Root + "/excel")
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to build writer tool server: %w", err)
	}
	notes := toolsurface.NewNotesServer(os.Getenv("NOTION_API_KEY"), os.Getenv("NOTION_BASE_URL"))
	board := toolsurface.NewBoardServer(os.Getenv("TRELLO_API_KEY"), os.Getenv("TRELLO_BOARD_ID"), os.Getenv("TRELLO_BASE_URL"))
	toolServers := toolsurface.NewRegistry(writer, notes, board)

	agentRegistry, err := loadAgentRegistry(cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to load agent registry: %w", err)
	}

	spawner := agentspawner.New(agentspawner.Shared{
		LLM:          cfg.LLM,
		ToolServers:  toolServers,
		Sink:         sink,
		Embedder:     emb,
		ContextStore: ctxStore,
	})

	contextReasoner := reasoner.NewAnthropicReasoner(cfg.LLM, sink)
	identifier := taskidentifier.New(contextReasoner, cfg.Storage.DefaultSafeTask)

	orch := orchestrator.New(ctxStore, identifier, agentRegistry, spawner, st, contextReasoner)

	slog.Info("orchestrator ready", "driver", cfg.Database.Driver, "agents", len(agentRegistry.Descriptors()))

	return orch, cleanup, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("agentd"),
		kong.Description("Context-aware task orchestration CLI."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
