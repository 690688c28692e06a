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

package toolsurface

import (
	"context"
	"fmt"
	"time"

	"github.com/ramisra/agentflow/pkg/excelstore"
	"github.com/ramisra/agentflow/pkg/svcerr"
)

// WriterServer creates/appends rows in a tabular spreadsheet file. It is
// the only built-in server with purely local side effects (no external
// API call); it shares its round-trip logic with the data-extraction
// agent's direct writes via pkg/excelstore.
type WriterServer struct {
	store *excelstore.Store
}

// NewWriterServer builds a writer server that places generated
// spreadsheets under outputDir.
func NewWriterServer(outputDir string) (*WriterServer, error) {
	store, err := excelstore.New(outputDir)
	if err != nil {
		return nil, err
	}
	return &WriterServer{store: store}, nil
}

func (s *WriterServer) Name() string { return "writer" }

func (s *WriterServer) Tools() []Tool {
	return []Tool{
		{
			Name:        "write_rows",
			Description: "Creates or appends rows in a tabular spreadsheet file.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"rows":       map[string]any{"type": "array"},
					"columns":    map[string]any{"type": "array"},
					"file_name":  map[string]any{"type": "string"},
					"sheet_name": map[string]any{"type": "string"},
				},
				"required": []string{"rows"},
			},
		},
	}
}

func (s *WriterServer) Call(_ context.Context, toolName string, params map[string]any) (map[string]any, error) {
	if toolName != "write_rows" {
		return nil, svcerr.NewToolError(svcerr.KindToolFailure, "writer."+toolName, "unknown tool", nil)
	}

	rawRows, ok := params["rows"].([]any)
	if !ok || len(rawRows) == 0 {
		return nil, svcerr.NewToolError(svcerr.KindInvalidInput, "writer.write_rows", "rows is required and must be a non-empty array", nil)
	}

	rows := make([]map[string]any, 0, len(rawRows))
	for _, r := range rawRows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, svcerr.NewToolError(svcerr.KindInvalidInput, "writer.write_rows", "rows must contain row objects", nil)
	}

	columns := columnNames(params["columns"])
	if len(columns) == 0 {
		for key := range rows[0] {
			columns = append(columns, key)
		}
	}

	sheetName := "Data"
	if v, ok := params["sheet_name"].(string); ok && v != "" {
		sheetName = v
	}

	fileName := fmt.Sprintf("export-%d.xlsx", time.Now().UnixNano())
	if v, ok := params["file_name"].(string); ok && v != "" {
		fileName = v
	}

	path, err := s.store.CreateOrAppend(fileName, sheetName, columns, rows)
	if err != nil {
		return nil, err
	}
	return map[string]any{"file_path": path}, nil
}

func columnNames(raw any) []string {
	items, _ := raw.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

var _ Server = (*WriterServer)(nil)
