package executor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/domain"
	"github.com/taskmesh/taskmesh/event"
	"github.com/taskmesh/taskmesh/internal/testutil"
	"github.com/taskmesh/taskmesh/storage"
)

// fakePublisher records announcements and acknowledges per its ack flag.
type fakePublisher struct {
	ack   bool
	calls []publishCall
}

type publishCall struct {
	topic     string
	eventType string
	data      any
}

func (p *fakePublisher) Publish(_ context.Context, topic, eventType string, data any) bool {
	p.calls = append(p.calls, publishCall{topic: topic, eventType: eventType, data: data})
	return p.ack
}

func newTestExecutor(userID string) (*Executor, *storage.Memory, *fakePublisher) {
	store := storage.NewMemory()
	store.PutUser(testutil.NewUser(userID))
	pub := &fakePublisher{ack: true}
	return New(store, pub, nil, userID), store, pub
}

func seedTask(t *testing.T, store *storage.Memory, builder *testutil.TaskBuilder) string {
	t.Helper()
	task := builder.Build()
	tx := store.Begin()
	require.NoError(t, tx.PutTask(task))
	require.NoError(t, tx.Commit())
	return task.ID
}

func dispatch(e *Executor, name string, params map[string]any) core.Result {
	return e.Dispatch(context.Background(), core.ToolCall{Name: name, Params: params})
}

func TestDispatchUnknownTool(t *testing.T) {
	e, _, _ := newTestExecutor("user-1")
	res := dispatch(e, "drop_database", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Unknown tool: drop_database", res.Error)
}

func TestDispatchRecoversPanic(t *testing.T) {
	e := New(panicStore{}, nil, nil, "user-1")
	res := dispatch(e, core.ToolListTasks, nil)
	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Error, "Tool execution failed: "), res.Error)
}

type panicStore struct{}

func (panicStore) Begin() storage.Tx { panic("store exploded") }

func TestAddTaskDefaults(t *testing.T) {
	e, store, pub := newTestExecutor("user-1")

	res := dispatch(e, core.ToolAddTask, map[string]any{"title": "buy milk"})
	require.True(t, res.Success, res.Error)

	view := res.Data.(map[string]any)
	assert.Equal(t, "buy milk", view["title"])
	assert.Equal(t, "medium", view["priority"])
	assert.Equal(t, false, view["completed"])
	assert.NotContains(t, view, "description")
	assert.NotContains(t, view, "due_date")

	task, err := store.GetTask(view["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "user-1", task.OwnerID)

	require.Len(t, pub.calls, 1)
	assert.Equal(t, event.TopicTaskEvents, pub.calls[0].topic)
	assert.Equal(t, event.TypeTaskCreated, pub.calls[0].eventType)
}

func TestAddTaskFullFields(t *testing.T) {
	e, store, _ := newTestExecutor("user-1")

	res := dispatch(e, core.ToolAddTask, map[string]any{
		"title":       "report",
		"description": "quarterly numbers",
		"priority":    "urgent",
		"tags":        []any{"work", "finance"},
		"due_date":    "2026-03-01T09:00:00Z",
		"remind_at":   "2026-02-28T09:00:00Z",
		"recurrence_rule": map[string]any{
			"frequency": "monthly",
			"interval":  float64(1),
			"end_date":  "2026-12-31",
		},
	})
	require.True(t, res.Success, res.Error)

	task, err := store.GetTask(res.Data.(map[string]any)["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "quarterly numbers", *task.Description)
	assert.Equal(t, []string{"work", "finance"}, task.Tags)
	require.NotNil(t, task.RecurrenceRule)
	assert.Equal(t, "monthly", task.RecurrenceRule.Frequency)
	assert.Equal(t, 1, task.RecurrenceRule.Interval)
	require.NotNil(t, task.RecurrenceRule.EndDate)
}

func TestAddTaskValidationLeavesNoRecord(t *testing.T) {
	e, store, pub := newTestExecutor("user-1")

	tags := make([]any, 11)
	for i := range tags {
		tags[i] = "t"
	}
	res := dispatch(e, core.ToolAddTask, map[string]any{"title": "over-tagged", "tags": tags})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "tags")

	owner := "user-1"
	tx := store.Begin()
	defer tx.Rollback()
	tasks, err := tx.ListTasks(domain.TaskFilter{OwnerID: &owner})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Empty(t, pub.calls)
}

func TestAddTaskRejections(t *testing.T) {
	e, _, _ := newTestExecutor("user-1")

	cases := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"empty title", map[string]any{"title": ""}, "title"},
		{"long title", map[string]any{"title": strings.Repeat("a", 201)}, "title"},
		{"bad priority", map[string]any{"title": "t", "priority": "critical"}, "priority"},
		{"bad date", map[string]any{"title": "t", "due_date": "someday"}, "due_date"},
		{"recurrence without due date", map[string]any{
			"title":           "t",
			"recurrence_rule": map[string]any{"frequency": "daily"},
		}, "recurrence_rule"},
		{"bad frequency", map[string]any{
			"title":           "t",
			"due_date":        "2026-03-01",
			"recurrence_rule": map[string]any{"frequency": "hourly"},
		}, "frequency"},
		{"zero interval", map[string]any{
			"title":           "t",
			"due_date":        "2026-03-01",
			"recurrence_rule": map[string]any{"frequency": "daily", "interval": float64(0)},
		}, "interval"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := dispatch(e, core.ToolAddTask, tc.params)
			assert.False(t, res.Success)
			assert.Contains(t, res.Error, tc.want)
		})
	}
}

func TestCompleteTaskIdempotent(t *testing.T) {
	e, store, pub := newTestExecutor("user-1")
	id := seedTask(t, store, testutil.NewTaskBuilder("user-1").Title("finish me"))

	res := dispatch(e, core.ToolCompleteTask, map[string]any{"task_id": id})
	require.True(t, res.Success, res.Error)
	first, err := time.Parse(time.RFC3339Nano, res.Data.(map[string]any)["updated_at"].(string))
	require.NoError(t, err)

	// Completing again succeeds and still advances updated_at.
	res = dispatch(e, core.ToolCompleteTask, map[string]any{"task_id": id})
	require.True(t, res.Success, res.Error)
	second, err := time.Parse(time.RFC3339Nano, res.Data.(map[string]any)["updated_at"].(string))
	require.NoError(t, err)
	assert.True(t, second.After(first), "updated_at must strictly increase")

	task, err := store.GetTask(id)
	require.NoError(t, err)
	assert.True(t, task.Completed)

	require.Len(t, pub.calls, 2)
	assert.Equal(t, event.TypeTaskCompleted, pub.calls[0].eventType)
}

func TestCompleteTaskNotFound(t *testing.T) {
	e, _, _ := newTestExecutor("user-1")
	res := dispatch(e, core.ToolCompleteTask, map[string]any{"task_id": "ghost"})
	assert.False(t, res.Success)
	assert.Equal(t, "Task not found. Please check the task ID.", res.Error)
}

func TestCrossOwnerAccessDenied(t *testing.T) {
	e, store, pub := newTestExecutor("user-1")
	foreign := seedTask(t, store, testutil.NewTaskBuilder("user-2").Title("not yours"))

	for _, tool := range []string{core.ToolCompleteTask, core.ToolDeleteTask, core.ToolUpdateTask} {
		params := map[string]any{"task_id": foreign}
		if tool == core.ToolUpdateTask {
			params["title"] = "hijacked"
		}
		res := dispatch(e, tool, params)
		assert.False(t, res.Success, tool)
		assert.Equal(t, "You don't have permission to access this task.", res.Error, tool)
	}

	// The record survives untouched and nothing was announced.
	task, err := store.GetTask(foreign)
	require.NoError(t, err)
	assert.Equal(t, "not yours", task.Title)
	assert.False(t, task.Completed)
	assert.Empty(t, pub.calls)
}

func TestDeleteTask(t *testing.T) {
	e, store, pub := newTestExecutor("user-1")
	id := seedTask(t, store, testutil.NewTaskBuilder("user-1").Title("doomed"))

	res := dispatch(e, core.ToolDeleteTask, map[string]any{"task_id": id})
	require.True(t, res.Success, res.Error)
	snapshot := res.Data.(map[string]any)
	assert.Equal(t, id, snapshot["id"])
	assert.Equal(t, "doomed", snapshot["title"])

	_, err := store.GetTask(id)
	assert.Error(t, err)

	require.Len(t, pub.calls, 1)
	assert.Equal(t, event.TypeTaskDeleted, pub.calls[0].eventType)
	payload := pub.calls[0].data.(map[string]any)
	assert.Equal(t, "doomed", payload["title"])
}

func TestPublishFailureDoesNotAffectResult(t *testing.T) {
	store := storage.NewMemory()
	store.PutUser(testutil.NewUser("user-1"))
	pub := &fakePublisher{ack: false}
	e := New(store, pub, nil, "user-1")

	res := dispatch(e, core.ToolAddTask, map[string]any{"title": "still created"})
	require.True(t, res.Success, res.Error)

	// The commit stands even though delivery failed.
	_, err := store.GetTask(res.Data.(map[string]any)["id"].(string))
	assert.NoError(t, err)
	assert.Len(t, pub.calls, 1)
}

func TestNilPublisherSkipsAnnouncements(t *testing.T) {
	store := storage.NewMemory()
	store.PutUser(testutil.NewUser("user-1"))
	e := New(store, nil, nil, "user-1")

	res := dispatch(e, core.ToolAddTask, map[string]any{"title": "quiet"})
	assert.True(t, res.Success, res.Error)
}

func TestGetUserProfile(t *testing.T) {
	e, _, _ := newTestExecutor("user-1")

	res := dispatch(e, core.ToolGetUserProfile, nil)
	require.True(t, res.Success, res.Error)
	profile := res.Data.(map[string]any)
	assert.Equal(t, "user-1", profile["id"])
	assert.Equal(t, "user-1@example.com", profile["email"])
}

func TestGetUserProfileUnknownUser(t *testing.T) {
	e := New(storage.NewMemory(), nil, nil, "ghost")
	res := dispatch(e, core.ToolGetUserProfile, nil)
	assert.False(t, res.Success)
	assert.Equal(t, "User not found.", res.Error)
}
