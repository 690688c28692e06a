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

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ramisra/agentflow/pkg/svcerr"
)

// Task records one orchestrated task's lifecycle: the classified type,
// the contexts it drew on, and its eventual output.
type Task struct {
	TaskID     string
	UserID     string
	TaskType   string
	Input      string
	Output     string
	ContextIDs []string
	Status     string
	CreatedAt  time.Time
}

// Task status values.
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
	TaskStatusPartial   = "partial"
)

// CreateTask inserts a new task row.
func (s *Store) CreateTask(ctx context.Context, t Task) error {
	contextIDsJSON, err := json.Marshal(t.ContextIDs)
	if err != nil {
		return svcerr.NewOrchestrationError(svcerr.KindInvalidInput, "CreateTask", "failed to marshal context ids", err)
	}

	query := fmt.Sprintf(`
INSERT INTO user_tasks (task_id, user_id, task_type, input, output, context_ids, status, created_at)
VALUES (%s)
`, s.placeholders(8))

	_, err = s.db.ExecContext(ctx, query,
		t.TaskID, t.UserID, t.TaskType, t.Input, t.Output, string(contextIDsJSON), t.Status, t.CreatedAt)
	if err != nil {
		return svcerr.NewOrchestrationError(svcerr.KindPersistenceFailure, "CreateTask", "insert failed", err)
	}
	return nil
}

// UpdateTaskStatus sets a task's status and, when non-empty, its output.
func (s *Store) UpdateTaskStatus(ctx context.Context, taskID, status, output string) error {
	var query string
	var args []any

	if output != "" {
		query = fmt.Sprintf("UPDATE user_tasks SET status = %s, output = %s WHERE task_id = %s",
			s.placeholder(1), s.placeholder(2), s.placeholder(3))
		args = []any{status, output, taskID}
	} else {
		query = fmt.Sprintf("UPDATE user_tasks SET status = %s WHERE task_id = %s",
			s.placeholder(1), s.placeholder(2))
		args = []any{status, taskID}
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return svcerr.NewOrchestrationError(svcerr.KindPersistenceFailure, "UpdateTaskStatus", "update failed", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return svcerr.NewOrchestrationError(svcerr.KindPersistenceFailure, "UpdateTaskStatus", "rows affected check failed", err)
	}
	if rows == 0 {
		return svcerr.NewOrchestrationError(svcerr.KindInvalidInput, "UpdateTaskStatus", "task not found: "+taskID, nil)
	}
	return nil
}

// GetTask fetches one task by ID.
func (s *Store) GetTask(ctx context.Context, taskID string) (Task, error) {
	query := fmt.Sprintf(`
SELECT task_id, user_id, task_type, input, output, context_ids, status, created_at
FROM user_tasks WHERE task_id = %s
`, s.placeholder(1))

	var (
		t              Task
		contextIDsJSON sql.NullString
		output         sql.NullString
	)

	row := s.db.QueryRowContext(ctx, query, taskID)
	err := row.Scan(&t.TaskID, &t.UserID, &t.TaskType, &t.Input, &output, &contextIDsJSON, &t.Status, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return Task{}, svcerr.NewOrchestrationError(svcerr.KindInvalidInput, "GetTask", "task not found: "+taskID, nil)
	}
	if err != nil {
		return Task{}, svcerr.NewOrchestrationError(svcerr.KindPersistenceFailure, "GetTask", "scan failed", err)
	}

	t.Output = output.String
	if contextIDsJSON.Valid && contextIDsJSON.String != "" {
		_ = json.Unmarshal([]byte(contextIDsJSON.String), &t.ContextIDs)
	}
	return t, nil
}

// ListTasksByUser returns a user's tasks, most recent first.
func (s *Store) ListTasksByUser(ctx context.Context, userID string) ([]Task, error) {
	query := fmt.Sprintf(`
SELECT task_id, user_id, task_type, input, output, context_ids, status, created_at
FROM user_tasks WHERE user_id = %s ORDER BY created_at DESC
`, s.placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, svcerr.NewOrchestrationError(svcerr.KindPersistenceFailure, "ListTasksByUser", "query failed", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var (
			t              Task
			contextIDsJSON sql.NullString
			output         sql.NullString
		)
		if err := rows.Scan(&t.TaskID, &t.UserID, &t.TaskType, &t.Input, &output, &contextIDsJSON, &t.Status, &t.CreatedAt); err != nil {
			return nil, svcerr.NewOrchestrationError(svcerr.KindPersistenceFailure, "ListTasksByUser", "scan failed", err)
		}
		t.Output = output.String
		if contextIDsJSON.Valid && contextIDsJSON.String != "" {
			_ = json.Unmarshal([]byte(contextIDsJSON.String), &t.ContextIDs)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
