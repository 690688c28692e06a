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

// Package utils provides small filesystem and token helpers shared across
// the service's packages.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureStateDir ensures the .agentflow directory exists at the given base
// path. If basePath is empty or ".", it creates ./.agentflow in the current
// directory. Otherwise, it creates {basePath}/.agentflow.
//
// This is used by the embedded vector store, which persists under
// {basePath}/.agentflow/vectors/ instead of writing into basePath directly.
//
// Returns the full path to the .agentflow directory and any error.
func EnsureStateDir(basePath string) (string, error) {
	var stateDir string
	if basePath == "" || basePath == "." {
		stateDir = ".agentflow"
	} else {
		stateDir = filepath.Join(basePath, ".agentflow")
	}

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create .agentflow directory at '%s': %w", stateDir, err)
	}

	return stateDir, nil
}
