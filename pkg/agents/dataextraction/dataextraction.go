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

// Package dataextraction implements the extract-data-to-sheet agent
// (C10): parse unstructured text into rows via the reasoner, then write
// them to a spreadsheet through pkg/excelstore.
package dataextraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ramisra/agentflow/pkg/agentcontract"
	"github.com/ramisra/agentflow/pkg/agentregistry"
	"github.com/ramisra/agentflow/pkg/evaluator"
	"github.com/ramisra/agentflow/pkg/excelstore"
	"github.com/ramisra/agentflow/pkg/promptmanager"
	"github.com/ramisra/agentflow/pkg/reasoner"
)

// ClassName is the loadable_class_name this agent registers under.
const ClassName = "agents.data_extraction.DataExtractionAgent"

const callerTag = "DataExtractionAgent"

const systemPrompt = `You are a data extraction specialist. Your task is to:
1. Parse unstructured text data (comma-separated, natural language, etc.)
2. Extract structured data points (names, titles, companies, numbers, etc.)
3. Understand user instructions for column requirements
4. Structure data into rows and columns
5. Handle multiple entries in various formats

Be precise and extract all relevant information.`

func init() {
	agentregistry.RegisterFactory(ClassName, New)
}

// Agent extracts rows from free-form text and writes them to a
// spreadsheet.
type Agent struct {
	prompts   *promptmanager.PromptManager
	evaluator *evaluator.Evaluator
	reasoner  reasoner.Reasoner
	excel     *excelstore.Store
}

// New builds a data-extraction agent from its build args. The excel
// store is created here, rooted at "./data/excel" unless the descriptor
// config's "output_dir" overrides it.
func New(args agentregistry.BuildArgs) (agentcontract.Agent, error) {
	args.PromptManager.SetSystemPrompt(systemPrompt)

	outputDir := "./data/excel"
	if dir, ok := args.Descriptor.Config["output_dir"].(string); ok && dir != "" {
		outputDir = dir
	}
	store, err := excelstore.New(outputDir)
	if err != nil {
		return nil, err
	}

	return &Agent{
		prompts:   args.PromptManager,
		evaluator: args.Evaluator,
		reasoner:  args.Reasoner,
		excel:     store,
	}, nil
}

// Execute parses the task's source text into rows and writes them to a
// spreadsheet, appending to an existing file when one already exists
// under the resolved file name.
func (a *Agent) Execute(ctx context.Context, input agentcontract.Input, agentCtx agentcontract.Context) agentcontract.Result {
	selectedText, _ := input["selected_text"].(string)
	userContextText, _ := input["user_context"].(string)
	if userContextText == "" {
		userContextText = agentCtx.RawText
	}

	contextInput := agentCtx.TaskIdentification.Input

	columns := parseColumns(contextInput, true)
	if len(columns) == 0 {
		columns = parseColumns(map[string]any(input), false)
	}

	sheetName := parseSheetName(contextInput)
	if sheetName == "" {
		sheetName = parseSheetName(map[string]any(input))
	}
	fileName := parseFileName(contextInput, sheetName)
	if fileName == "" {
		fileName = parseFileName(map[string]any(input), sheetName)
	}

	sourceText := selectedText
	if sourceText == "" {
		sourceText = userContextText
	}
	if sourceText == "" {
		sourceText = agentCtx.RawText
	}

	extracted := a.extractRows(ctx, sourceText, columns, userContextText)
	if len(extracted) == 0 {
		return agentcontract.Result{
			Status: agentcontract.StatusFailed,
			Result: map[string]any{"error": "No data extracted from input."},
			Error:  "No data extracted from input.",
		}
	}

	if len(columns) == 0 {
		for key := range extracted[0] {
			columns = append(columns, key)
		}
	}
	if len(columns) == 0 {
		columns = []string{"data"}
	}

	normalized := normalizeRows(extracted, columns)

	filePath, err := a.writeSpreadsheet(fileName, sheetName, columns, normalized)
	if err != nil {
		return agentcontract.Result{
			Status: agentcontract.StatusFailed,
			Result: map[string]any{"error": err.Error()},
			Error:  err.Error(),
		}
	}

	fieldTypes := make(map[string]string, len(columns))
	for _, c := range columns {
		fieldTypes[c] = "string"
	}
	eval := a.evaluator.Evaluate(normalized[0], &evaluator.Expected{
		RequiredFields: columns,
		FieldTypes:     fieldTypes,
	})

	rows := make([]map[string]any, len(normalized))
	for i, r := range normalized {
		rows[i] = r
	}

	return agentcontract.Result{
		Status: agentcontract.StatusCompleted,
		Result: map[string]any{
			"excel_file_path": filePath,
			"extracted_data":  normalized,
			"columns":         columns,
			"row_count":       len(normalized),
		},
		FilePath:         filePath,
		Rows:             rows,
		ValidationErrors: eval.Errors,
		ExecutionMetadata: map[string]any{
			"evaluation_score":    eval.Score,
			"evaluation_feedback": eval.Feedback,
		},
	}
}

func (a *Agent) writeSpreadsheet(fileName, sheetName string, columns []string, rows []map[string]any) (string, error) {
	if fileName != "" && a.excel.Exists(fileName) {
		return a.excel.Append(fileName, sheetName, columns, rows)
	}
	return a.excel.Create(fileNameOrDefault(fileName), sheetName, columns, rows)
}

func fileNameOrDefault(fileName string) string {
	if fileName != "" {
		return fileName
	}
	return "export.xlsx"
}

// extractRows asks the reasoner to parse sourceText into a JSON array of
// row objects, returning nothing when the call fails or no array is
// present — the caller treats an empty result as task failure.
func (a *Agent) extractRows(ctx context.Context, sourceText string, columns []string, userContext string) []map[string]any {
	if sourceText == "" {
		return nil
	}

	var prompt string
	if len(columns) > 0 {
		prompt = fmt.Sprintf(`Parse the following text and extract structured data for these columns: %s.

Return a JSON array of objects. Each object should contain exactly these keys:
%s

Text to parse:
%s`, strings.Join(columns, ", "), formatColumnList(columns), sourceText)
	} else {
		prompt = fmt.Sprintf(`Parse the following text and extract structured data.

Infer appropriate column names from the content. Return a JSON array of objects,
where each object represents one entry.

Text to parse:
%s`, sourceText)
	}

	result := a.reasoner.Reason(ctx, reasoner.Request{
		Prompt:     prompt,
		System:     a.prompts.SystemPrompt(),
		ContextMap: map[string]any{"user_context": userContext},
		CallerTag:  callerTag,
	})
	if result.Err != nil {
		return nil
	}

	return parseJSONArray(result.Text)
}

func parseJSONArray(text string) []map[string]any {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil
	}

	var raw []any
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil
	}

	rows := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			rows = append(rows, m)
		}
	}
	return rows
}

func normalizeRows(rows []map[string]any, columns []string) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized := make(map[string]any, len(columns))
		for _, col := range columns {
			if v, ok := row[col]; ok {
				normalized[col] = v
			} else {
				normalized[col] = ""
			}
		}
		out = append(out, normalized)
	}
	return out
}

// parseColumns mirrors the original's column-name resolution order:
// "columns", then "fields", then "headers", falling back to the input's
// own keys only when allowKeyFallback is set (used for the richer
// task-identification input, never for the raw task payload).
func parseColumns(input map[string]any, allowKeyFallback bool) []string {
	if len(input) == 0 {
		return nil
	}

	var candidates any
	switch {
	case input["columns"] != nil:
		candidates = input["columns"]
	case input["fields"] != nil:
		candidates = input["fields"]
	case input["headers"] != nil:
		candidates = input["headers"]
	case allowKeyFallback:
		keys := make([]string, 0, len(input))
		for k := range input {
			keys = append(keys, k)
		}
		candidates = keys
	}
	if candidates == nil {
		return nil
	}

	var columns []string
	switch v := candidates.(type) {
	case string:
		for _, c := range strings.Split(v, ",") {
			columns = append(columns, strings.TrimSpace(c))
		}
	case []string:
		columns = v
	case []any:
		for _, c := range v {
			if s, ok := c.(string); ok {
				columns = append(columns, strings.TrimSpace(s))
			} else {
				columns = append(columns, fmt.Sprintf("%v", c))
			}
		}
	default:
		return nil
	}

	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func parseSheetName(input map[string]any) string {
	for _, key := range []string{"sheet_name", "sheet", "worksheet", "tab_name"} {
		if v, ok := input[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func parseFileName(input map[string]any, sheetName string) string {
	var fileName string
	for _, key := range []string{"file_name", "filename", "file", "excel_file_name"} {
		if v, ok := input[key].(string); ok && strings.TrimSpace(v) != "" {
			fileName = strings.TrimSpace(v)
			break
		}
	}
	if fileName == "" && sheetName != "" {
		fileName = sheetName
	}
	if fileName == "" {
		return ""
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".xlsx") {
		fileName += ".xlsx"
	}
	return fileName
}

func formatColumnList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = `"` + c + `"`
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
