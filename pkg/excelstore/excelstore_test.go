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

package excelstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateThenReadRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	columns := []string{"name", "designation", "connections"}
	data := []map[string]any{
		{"name": "Ratikesh Misra", "designation": "VP engineering Flobiz", "connections": "140"},
		{"name": "Someone Else", "designation": "CTO furrl"},
	}

	path, err := s.Create("leads.xlsx", "Leads", columns, data)
	require.NoError(t, err)
	require.NotEmpty(t, path)

	rows, err := s.Read("leads.xlsx", "Leads")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Ratikesh Misra", rows[0]["name"])
	require.Equal(t, "VP engineering Flobiz", rows[0]["designation"])
	require.Equal(t, "", rows[1]["connections"])
}

func TestCreateOrAppendAppendsWhenFileExists(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	columns := []string{"name", "price"}
	first := []map[string]any{{"name": "Product A", "price": "$100"}}
	second := []map[string]any{{"name": "Product B", "price": "$200"}}

	_, err = s.CreateOrAppend("products.xlsx", "Data", columns, first)
	require.NoError(t, err)
	_, err = s.CreateOrAppend("products.xlsx", "Data", columns, second)
	require.NoError(t, err)

	rows, err := s.Read("products.xlsx", "Data")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Product A", rows[0]["name"])
	require.Equal(t, "Product B", rows[1]["name"])
}

func TestAppendCreatesNewSheetWhenMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	columns := []string{"x"}
	_, err = s.Create("f.xlsx", "First", columns, []map[string]any{{"x": "1"}})
	require.NoError(t, err)

	_, err = s.Append("f.xlsx", "Second", columns, []map[string]any{{"x": "2"}})
	require.NoError(t, err)

	rows, err := s.Read("f.xlsx", "Second")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "2", rows[0]["x"])
}

func TestCreateRejectsEmptyData(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Create("empty.xlsx", "Data", []string{"a"}, nil)
	require.Error(t, err)
}
