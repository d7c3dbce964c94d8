package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/domain"
	"github.com/taskmesh/taskmesh/event"
	"github.com/taskmesh/taskmesh/internal/testutil"
)

func TestUpdateTaskPartial(t *testing.T) {
	e, store, pub := newTestExecutor("user-1")
	id := seedTask(t, store, testutil.NewTaskBuilder("user-1").
		Title("original").
		Description("keep me").
		Priority(domain.PriorityHigh).
		Tags("work"))

	before, err := store.GetTask(id)
	require.NoError(t, err)

	res := dispatch(e, core.ToolUpdateTask, map[string]any{
		"task_id": id,
		"title":   "renamed",
	})
	require.True(t, res.Success, res.Error)

	after, err := store.GetTask(id)
	require.NoError(t, err)

	// Only the named field and updated_at change.
	assert.Equal(t, "renamed", after.Title)
	assert.Equal(t, *before.Description, *after.Description)
	assert.Equal(t, before.Priority, after.Priority)
	assert.Equal(t, before.Tags, after.Tags)
	assert.Equal(t, before.Completed, after.Completed)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	require.Len(t, pub.calls, 1)
	assert.Equal(t, event.TopicTaskUpdates, pub.calls[0].topic)
	assert.Equal(t, event.TypeTaskUpdated, pub.calls[0].eventType)
}

func TestUpdateTaskCompletedOnlyTouchesNothingElse(t *testing.T) {
	e, store, _ := newTestExecutor("user-1")
	due := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	id := seedTask(t, store, testutil.NewTaskBuilder("user-1").
		Title("untouched").
		Description("still here").
		Priority(domain.PriorityLow).
		Tags("a", "b").
		DueDate(due))

	before, err := store.GetTask(id)
	require.NoError(t, err)

	res := dispatch(e, core.ToolUpdateTask, map[string]any{
		"task_id":   id,
		"completed": true,
	})
	require.True(t, res.Success, res.Error)

	after, err := store.GetTask(id)
	require.NoError(t, err)
	assert.True(t, after.Completed)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	// Everything except the two mutated fields compares equal.
	after.Completed = before.Completed
	after.UpdatedAt = before.UpdatedAt
	assert.Equal(t, before, after)
}

func TestUpdateTaskExplicitNullClears(t *testing.T) {
	e, store, _ := newTestExecutor("user-1")
	id := seedTask(t, store, testutil.NewTaskBuilder("user-1").
		Description("about to vanish").
		Tags("a", "b"))

	res := dispatch(e, core.ToolUpdateTask, map[string]any{
		"task_id":     id,
		"description": nil,
		"tags":        nil,
	})
	require.True(t, res.Success, res.Error)

	after, err := store.GetTask(id)
	require.NoError(t, err)
	assert.Nil(t, after.Description)
	assert.Empty(t, after.Tags)
}

func TestUpdateTaskReopenAndPriority(t *testing.T) {
	e, store, _ := newTestExecutor("user-1")
	id := seedTask(t, store, testutil.NewTaskBuilder("user-1").Completed())

	res := dispatch(e, core.ToolUpdateTask, map[string]any{
		"task_id":   id,
		"completed": false,
		"priority":  "urgent",
	})
	require.True(t, res.Success, res.Error)

	after, err := store.GetTask(id)
	require.NoError(t, err)
	assert.False(t, after.Completed)
	assert.Equal(t, domain.PriorityUrgent, after.Priority)
}

func TestUpdateTaskRejectionsLeaveRecordIntact(t *testing.T) {
	e, store, pub := newTestExecutor("user-1")
	id := seedTask(t, store, testutil.NewTaskBuilder("user-1").Title("pristine"))

	cases := []struct {
		name   string
		params map[string]any
	}{
		{"unknown field", map[string]any{"task_id": id, "owner_id": "user-2"}},
		{"empty title", map[string]any{"task_id": id, "title": ""}},
		{"title wrong type", map[string]any{"task_id": id, "title": 42}},
		{"title cleared", map[string]any{"task_id": id, "title": nil}},
		{"bad priority", map[string]any{"task_id": id, "priority": "asap"}},
		{"completed wrong type", map[string]any{"task_id": id, "completed": "yes"}},
		{"bad date", map[string]any{"task_id": id, "due_date": "soon"}},
		{"recurrence without due date", map[string]any{
			"task_id":         id,
			"recurrence_rule": map[string]any{"frequency": "daily"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := dispatch(e, core.ToolUpdateTask, tc.params)
			assert.False(t, res.Success)
		})
	}

	after, err := store.GetTask(id)
	require.NoError(t, err)
	assert.Equal(t, "pristine", after.Title)
	assert.Empty(t, pub.calls)
}

func TestUpdateTaskRecurrenceWithDueDate(t *testing.T) {
	e, store, _ := newTestExecutor("user-1")
	id := seedTask(t, store, testutil.NewTaskBuilder("user-1"))

	res := dispatch(e, core.ToolUpdateTask, map[string]any{
		"task_id":         id,
		"due_date":        "2026-04-01T08:00:00Z",
		"recurrence_rule": map[string]any{"frequency": "weekly", "interval": float64(2)},
	})
	require.True(t, res.Success, res.Error)

	after, err := store.GetTask(id)
	require.NoError(t, err)
	require.NotNil(t, after.RecurrenceRule)
	assert.Equal(t, "weekly", after.RecurrenceRule.Frequency)
	assert.Equal(t, 2, after.RecurrenceRule.Interval)
	require.NotNil(t, after.DueDate)
}

func TestUpdateTaskClearingDueDateOfRecurringTaskFails(t *testing.T) {
	e, store, _ := newTestExecutor("user-1")

	res := dispatch(e, core.ToolAddTask, map[string]any{
		"title":           "recurring",
		"due_date":        "2026-04-01",
		"recurrence_rule": map[string]any{"frequency": "daily"},
	})
	require.True(t, res.Success, res.Error)
	id := res.Data.(map[string]any)["id"].(string)

	res = dispatch(e, core.ToolUpdateTask, map[string]any{"task_id": id, "due_date": nil})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "recurrence_rule")

	after, err := store.GetTask(id)
	require.NoError(t, err)
	assert.NotNil(t, after.DueDate)
}

func TestListTasksStatusFilters(t *testing.T) {
	e, store, _ := newTestExecutor("user-1")
	seedTask(t, store, testutil.NewTaskBuilder("user-1").Title("open one"))
	seedTask(t, store, testutil.NewTaskBuilder("user-1").Title("done one").Completed())
	seedTask(t, store, testutil.NewTaskBuilder("user-2").Title("other owner"))

	res := dispatch(e, core.ToolListTasks, nil)
	require.True(t, res.Success, res.Error)
	table := res.Data.(string)
	assert.Contains(t, table, "open one")
	assert.Contains(t, table, "done one")
	assert.NotContains(t, table, "other owner")

	res = dispatch(e, core.ToolListTasks, map[string]any{"status": "pending"})
	require.True(t, res.Success, res.Error)
	table = res.Data.(string)
	assert.Contains(t, table, "open one")
	assert.NotContains(t, table, "done one")

	res = dispatch(e, core.ToolListTasks, map[string]any{"status": "completed"})
	require.True(t, res.Success, res.Error)
	table = res.Data.(string)
	assert.NotContains(t, table, "open one")
	assert.Contains(t, table, "done one")

	// Unrecognized statuses fall back to listing everything.
	res = dispatch(e, core.ToolListTasks, map[string]any{"status": "archived"})
	require.True(t, res.Success, res.Error)
	table = res.Data.(string)
	assert.Contains(t, table, "open one")
	assert.Contains(t, table, "done one")
}

func TestListTasksEmpty(t *testing.T) {
	e, _, _ := newTestExecutor("user-1")
	res := dispatch(e, core.ToolListTasks, nil)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "No tasks found.", res.Data)
}
