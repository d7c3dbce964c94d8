package testutil

import (
	"time"

	"github.com/taskmesh/taskmesh/domain"
)

// TaskBuilder provides a fluent helper for constructing tasks in tests.
// Example:
//
//	task := NewTaskBuilder("user-1").Title("buy milk").Completed().Build()
//
// Chain only the parts you need; sensible defaults are applied.
type TaskBuilder struct {
	task *domain.Task
}

// NewTaskBuilder creates a builder for a task owned by ownerID with a
// default title.
func NewTaskBuilder(ownerID string) *TaskBuilder {
	return &TaskBuilder{task: domain.NewTask(ownerID, "test task")}
}

// ID overrides the auto-generated task ID (chainable). Use mainly where
// determinism matters.
func (b *TaskBuilder) ID(id string) *TaskBuilder { b.task.ID = id; return b }

// Title sets the task title (chainable).
func (b *TaskBuilder) Title(t string) *TaskBuilder { b.task.Title = t; return b }

// Description sets the optional description (chainable).
func (b *TaskBuilder) Description(d string) *TaskBuilder { b.task.Description = &d; return b }

// Priority sets the priority level (chainable).
func (b *TaskBuilder) Priority(p domain.Priority) *TaskBuilder { b.task.Priority = p; return b }

// Tags replaces the tag list (chainable).
func (b *TaskBuilder) Tags(tags ...string) *TaskBuilder { b.task.Tags = tags; return b }

// Completed marks the task completed (chainable).
func (b *TaskBuilder) Completed() *TaskBuilder { b.task.Completed = true; return b }

// DueDate sets the due date (chainable).
func (b *TaskBuilder) DueDate(t time.Time) *TaskBuilder { b.task.DueDate = &t; return b }

// CreatedAt overrides the creation timestamp, e.g. to force list ordering
// (chainable).
func (b *TaskBuilder) CreatedAt(t time.Time) *TaskBuilder {
	b.task.CreatedAt = t
	b.task.UpdatedAt = t
	return b
}

// Build returns the constructed task.
func (b *TaskBuilder) Build() *domain.Task { return b.task }

// NewUser constructs a user record with deterministic fields derived from id.
func NewUser(id string) *domain.User {
	return &domain.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      "User " + id,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
