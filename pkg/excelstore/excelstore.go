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

// Package excelstore is the spreadsheet round-trip used by the writer
// tool server and the data-extraction agent: create a file from row
// maps, append rows to an existing file, and read rows back — grounded
// on original_source/app/core/tools/excel_tools.py's openpyxl path, with
// excelize/v2 standing in for openpyxl.
package excelstore

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ramisra/agentflow/pkg/svcerr"
)

const defaultSheet = "Data"

// Store creates, appends to, and reads spreadsheet files rooted under a
// fixed directory — the tabular writer's storage tree.
type Store struct {
	root string
}

// New builds a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, svcerr.NewToolError(svcerr.KindToolFailure, "excelstore", "failed to create storage directory", err)
	}
	return &Store{root: dir}, nil
}

// Path resolves fileName under the store's root.
func (s *Store) Path(fileName string) string {
	return filepath.Join(s.root, fileName)
}

// Exists reports whether fileName already exists under the store's root.
func (s *Store) Exists(fileName string) bool {
	_, err := os.Stat(s.Path(fileName))
	return err == nil
}

// Create writes a new spreadsheet with one header row (columns) followed
// by one row per entry in data, in column order. Missing keys in a row
// are written as empty strings so every row keeps the full column set.
func (s *Store) Create(fileName, sheetName string, columns []string, data []map[string]any) (string, error) {
	if len(data) == 0 {
		return "", svcerr.NewToolError(svcerr.KindInvalidInput, "excelstore.Create", "data cannot be empty", nil)
	}
	if sheetName == "" {
		sheetName = defaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheetName != f.GetSheetName(0) {
		if _, err := f.NewSheet(sheetName); err != nil {
			return "", svcerr.NewToolError(svcerr.KindToolFailure, "excelstore.Create", "failed to create sheet", err)
		}
		f.DeleteSheet(f.GetSheetName(0))
	}

	for colIdx, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return "", svcerr.NewToolError(svcerr.KindToolFailure, "excelstore.Create", "failed to write header", err)
		}
	}

	for rowIdx, row := range data {
		for colIdx, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, valueOrEmpty(row, col)); err != nil {
				return "", svcerr.NewToolError(svcerr.KindToolFailure, "excelstore.Create", "failed to write cell", err)
			}
		}
	}

	path := s.Path(fileName)
	if err := f.SaveAs(path); err != nil {
		return "", svcerr.NewToolError(svcerr.KindToolFailure, "excelstore.Create", "failed to save spreadsheet", err)
	}
	return path, nil
}

// Append adds rows to an existing sheet, creating the sheet (with a
// header row) if it doesn't yet exist in the file. The header is never
// rewritten when the sheet already exists.
func (s *Store) Append(fileName, sheetName string, columns []string, data []map[string]any) (string, error) {
	if len(data) == 0 {
		return "", svcerr.NewToolError(svcerr.KindInvalidInput, "excelstore.Append", "data cannot be empty", nil)
	}
	if sheetName == "" {
		sheetName = defaultSheet
	}

	path := s.Path(fileName)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", svcerr.NewToolError(svcerr.KindToolFailure, "excelstore.Append", "failed to open spreadsheet", err)
	}
	defer f.Close()

	nextRow := 2
	if !sheetExists(f, sheetName) {
		if _, err := f.NewSheet(sheetName); err != nil {
			return "", svcerr.NewToolError(svcerr.KindToolFailure, "excelstore.Append", "failed to create sheet", err)
		}
		for colIdx, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
			if err := f.SetCellValue(sheetName, cell, col); err != nil {
				return "", svcerr.NewToolError(svcerr.KindToolFailure, "excelstore.Append", "failed to write header", err)
			}
		}
	} else {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return "", svcerr.NewToolError(svcerr.KindToolFailure, "excelstore.Append", "failed to read existing rows", err)
		}
		nextRow = len(rows) + 1
	}

	for i, row := range data {
		for colIdx, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, nextRow+i)
			if err := f.SetCellValue(sheetName, cell, valueOrEmpty(row, col)); err != nil {
				return "", svcerr.NewToolError(svcerr.KindToolFailure, "excelstore.Append", "failed to write cell", err)
			}
		}
	}

	if err := f.Save(); err != nil {
		return "", svcerr.NewToolError(svcerr.KindToolFailure, "excelstore.Append", "failed to save spreadsheet", err)
	}
	return path, nil
}

// CreateOrAppend appends to fileName's sheet when it already exists,
// otherwise creates it — the branch the data-extraction agent and the
// writer tool server both take.
func (s *Store) CreateOrAppend(fileName, sheetName string, columns []string, data []map[string]any) (string, error) {
	if s.Exists(fileName) {
		return s.Append(fileName, sheetName, columns, data)
	}
	return s.Create(fileName, sheetName, columns, data)
}

// Read returns every data row (header row excluded) of sheetName as
// column-name-keyed maps. An empty sheetName reads the file's first
// sheet.
func (s *Store) Read(fileName, sheetName string) ([]map[string]any, error) {
	path := s.Path(fileName)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, svcerr.NewToolError(svcerr.KindToolFailure, "excelstore.Read", "failed to open spreadsheet", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, svcerr.NewToolError(svcerr.KindToolFailure, "excelstore.Read", "failed to read rows", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	out := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = row[i]
			} else {
				record[col] = ""
			}
		}
		out = append(out, record)
	}
	return out, nil
}

func sheetExists(f *excelize.File, name string) bool {
	for _, n := range f.GetSheetList() {
		if n == name {
			return true
		}
	}
	return false
}

func valueOrEmpty(row map[string]any, col string) any {
	v, ok := row[col]
	if !ok || v == nil {
		return ""
	}
	return v
}
