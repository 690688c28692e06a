package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := Task{
		TaskID:     "task-1",
		UserID:     "user-1",
		TaskType:   "extract-data-to-sheet",
		Input:      "extract prices from this email",
		ContextIDs: []string{"ctx-1", "ctx-2"},
		Status:     TaskStatusPending,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.CreateTask(ctx, task))

	got, err := s.GetTask(ctx, "task-1")
	require.NoError(t, err)
	require.Equal(t, task.TaskType, got.TaskType)
	require.Equal(t, task.ContextIDs, got.ContextIDs)
	require.Equal(t, TaskStatusPending, got.Status)
	require.Empty(t, got.Output)
}

func TestUpdateTaskStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTask(ctx, Task{TaskID: "task-2", UserID: "user-1", TaskType: "add-note", Status: TaskStatusPending, CreatedAt: time.Now()}))

	require.NoError(t, s.UpdateTaskStatus(ctx, "task-2", TaskStatusCompleted, "done"))

	got, err := s.GetTask(ctx, "task-2")
	require.NoError(t, err)
	require.Equal(t, TaskStatusCompleted, got.Status)
	require.Equal(t, "done", got.Output)
}

func TestUpdateTaskStatus_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateTaskStatus(context.Background(), "missing", TaskStatusFailed, "")
	require.Error(t, err)
}

func TestListTasksByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTask(ctx, Task{TaskID: "t1", UserID: "user-1", TaskType: "add-note", Status: TaskStatusPending, CreatedAt: time.Now()}))
	require.NoError(t, s.CreateTask(ctx, Task{TaskID: "t2", UserID: "user-1", TaskType: "add-note", Status: TaskStatusPending, CreatedAt: time.Now()}))
	require.NoError(t, s.CreateTask(ctx, Task{TaskID: "t3", UserID: "user-2", TaskType: "add-note", Status: TaskStatusPending, CreatedAt: time.Now()}))

	tasks, err := s.ListTasksByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
}
