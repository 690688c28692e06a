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

package reasoner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ramisra/agentflow/pkg/config"
	"github.com/ramisra/agentflow/pkg/promptstore"
	"github.com/ramisra/agentflow/pkg/svcerr"
)

// maxToolTurns bounds the interactive tool-call loop so a misbehaving
// backend can't spin forever trading tool calls.
const maxToolTurns = 8

// AnthropicReasoner implements Reasoner against Anthropic's Messages API
// via the official SDK's blocking Messages.New call — calls are
// non-streaming.
type AnthropicReasoner struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64

	sink promptstore.Sink
}

// emittedSystemPrompts records, process-wide, the caller tags whose
// system prompt has already been emitted.
var emittedSystemPrompts sync.Map

// NewAnthropicReasoner builds a reasoner from LLMConfig. sink may be nil,
// in which case prompts are not emitted anywhere (promptstore.NoopSink).
func NewAnthropicReasoner(cfg config.LLMConfig, sink promptstore.Sink) *AnthropicReasoner {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	temperature := 0.7
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	if sink == nil {
		sink = promptstore.NoopSink{}
	}

	return &AnthropicReasoner{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: temperature,
		sink:        sink,
	}
}

// Reason implements Reasoner.
func (r *AnthropicReasoner) Reason(ctx context.Context, req Request) Result {
	r.emitPrompt(req, "reason")

	prompt := renderPrompt(req.Prompt, req.ContextMap)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(r.modelOrDefault()),
		MaxTokens: int64(r.maxTokensOrDefault()),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	if len(req.Tools) > 0 {
		return r.reasonWithTools(ctx, req, params)
	}

	message, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return Result{Err: svcerr.NewReasonerError(svcerr.KindReasonerError, "Reason", "backend call failed", err)}
	}

	return toResult(message)
}

// reasonWithTools drives the interactive tool-call loop: the backend may
// emit tool_use blocks, which are dispatched via req.Dispatcher and fed
// back as tool_result blocks until the backend returns a non-tool
// stop_reason or maxToolTurns is exhausted.
func (r *AnthropicReasoner) reasonWithTools(ctx context.Context, req Request, params anthropic.MessageNewParams) Result {
	if req.Dispatcher == nil {
		return Result{Err: svcerr.NewReasonerError(svcerr.KindReasonerError, "Reason", "tools requested without a dispatcher", nil)}
	}

	params.Tools = toAnthropicTools(req.Tools)

	for turn := 0; turn < maxToolTurns; turn++ {
		message, err := r.client.Messages.New(ctx, params)
		if err != nil {
			return Result{Err: svcerr.NewReasonerError(svcerr.KindReasonerError, "Reason", "backend call failed", err)}
		}

		if message.StopReason != anthropic.StopReasonToolUse {
			return toResult(message)
		}

		assistantBlocks := make([]anthropic.ContentBlockParamUnion, 0, len(message.Content))
		var toolResults []anthropic.ContentBlockParamUnion

		for _, block := range message.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(variant.Text))
			case anthropic.ToolUseBlock:
				var toolInput map[string]any
				_ = json.Unmarshal(variant.Input, &toolInput)

				assistantBlocks = append(assistantBlocks, anthropic.NewToolUseBlock(variant.ID, toolInput, variant.Name))

				output, dispatchErr := req.Dispatcher.Dispatch(ctx, variant.Name, toolInput)
				content := toolResultContent(output, dispatchErr)
				toolResults = append(toolResults, anthropic.NewToolResultBlock(variant.ID, content, dispatchErr != nil))
			}
		}

		params.Messages = append(params.Messages, anthropic.NewAssistantMessage(assistantBlocks...))
		if len(toolResults) > 0 {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(toolResults...))
		}
	}

	return Result{Err: svcerr.NewReasonerError(svcerr.KindReasonerError, "Reason", "tool-call loop exceeded maximum turns", nil)}
}

// ReasonJSON implements Reasoner.
func (r *AnthropicReasoner) ReasonJSON(ctx context.Context, req Request) JSONResult {
	r.emitPrompt(req, "reason_json")

	result := r.Reason(ctx, req)
	if result.Err != nil {
		return JSONResult{Result: result}
	}

	value, ok := ExtractJSONObject(result.Text)
	if !ok {
		return JSONResult{Result: result, Parsed: false, RawWarning: "no balanced JSON object found in reasoner output"}
	}

	return JSONResult{Result: result, Value: value, Parsed: true}
}

func (r *AnthropicReasoner) modelOrDefault() string {
	if r.model != "" {
		return r.model
	}
	return "claude-3-5-sonnet-20241022"
}

func (r *AnthropicReasoner) maxTokensOrDefault() int {
	if r.maxTokens > 0 {
		return r.maxTokens
	}
	return 4096
}

// emitPrompt sends the prompt to the configured sink. System prompts are
// emitted at most once per caller tag per process.
func (r *AnthropicReasoner) emitPrompt(req Request, method string) {
	metadata := map[string]any{"caller": req.CallerTag, "method": method}
	r.sink.Emit(fmt.Sprintf("%s_%s_prompt", req.CallerTag, method), req.Prompt, metadata)

	if req.System == "" {
		return
	}

	if _, already := emittedSystemPrompts.LoadOrStore(req.CallerTag, true); !already {
		r.sink.Emit(fmt.Sprintf("%s_%s_system", req.CallerTag, method), req.System, metadata)
	}
}

func renderPrompt(prompt string, contextMap map[string]any) string {
	if len(contextMap) == 0 {
		return prompt
	}

	keys := make([]string, 0, len(contextMap))
	for k := range contextMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nContext:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %v\n", k, contextMap[k])
	}
	return b.String()
}

func toAnthropicTools(specs []ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, s := range specs {
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := s.InputSchema["properties"]; ok {
			schema.Properties = props
		}
		tool := anthropic.ToolUnionParamOfTool(schema, s.Name)
		tool.OfTool.Description = anthropic.String(s.Description)
		tools = append(tools, tool)
	}
	return tools
}

func toolResultContent(output map[string]any, dispatchErr error) string {
	if dispatchErr != nil {
		return dispatchErr.Error()
	}
	data, err := json.Marshal(output)
	if err != nil {
		slog.Warn("reasoner: failed to marshal tool result", "error", err)
		return "{}"
	}
	return string(data)
}

func toResult(message *anthropic.Message) Result {
	var text strings.Builder
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(textBlock.Text)
		}
	}

	return Result{
		Text:       text.String(),
		StopReason: string(message.StopReason),
		Usage: Usage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}
}
