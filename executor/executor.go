// Package executor implements the tool invocation layer: one Executor per
// inbound request, bound to the authenticated caller, dispatching decoded
// commands to ownership-enforcing handlers. Every call returns a core.Result;
// no fault escapes Dispatch.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/domain"
	"github.com/taskmesh/taskmesh/logging"
	"github.com/taskmesh/taskmesh/storage"
)

// Publisher is the event delivery dependency. Publish performs a single
// best-effort attempt and reports acknowledgment as a bool; it never returns
// an error (see the event package).
type Publisher interface {
	Publish(ctx context.Context, topic, eventType string, data any) bool
}

// Executor executes tool calls on behalf of exactly one authenticated user.
// The identity is fixed at construction; build a fresh Executor per request.
type Executor struct {
	store     storage.Store
	publisher Publisher
	logger    logging.Logger
	userID    string
}

// New constructs an Executor bound to userID. publisher may be nil, in which
// case state changes are not announced.
func New(store storage.Store, publisher Publisher, logger logging.Logger, userID string) *Executor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Executor{store: store, publisher: publisher, logger: logger, userID: userID}
}

// Dispatch resolves a tool call to its handler and returns its Result. It is
// the sole boundary guaranteeing no fault escapes: unknown names and decode
// failures become error Results, and a panicking handler is recovered into
// "Tool execution failed". Handlers convert every anticipated failure
// (validation, not-found, authorization) themselves.
func (e *Executor) Dispatch(ctx context.Context, call core.ToolCall) (res core.Result) {
	logger := logging.WithTrace(ctx, e.logger)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("tool panicked", "tool", call.Name, "recover", fmt.Sprintf("%v", r))
			res = core.Failf("Tool execution failed: %v", r)
		}
		logger.Info("tool executed",
			"tool", call.Name,
			"duration_ms", time.Since(start).Milliseconds(),
			"success", res.Success,
		)
	}()

	cmd, err := core.DecodeCommand(call)
	if err != nil {
		var unknown *core.UnknownToolError
		if errors.As(err, &unknown) {
			return core.Failf("Unknown tool: %s", unknown.Name)
		}
		return resultFromError(err)
	}

	switch cmd := cmd.(type) {
	case core.AddTaskCommand:
		return e.addTask(ctx, cmd)
	case core.ListTasksCommand:
		return e.listTasks(ctx, cmd)
	case core.CompleteTaskCommand:
		return e.completeTask(ctx, cmd)
	case core.DeleteTaskCommand:
		return e.deleteTask(ctx, cmd)
	case core.UpdateTaskCommand:
		return e.updateTask(ctx, cmd)
	case core.GetUserProfileCommand:
		return e.getUserProfile(ctx)
	default:
		return core.Failf("Unknown tool: %s", call.Name)
	}
}

// resultFromError converts a taxonomy error into its agent-facing Result.
func resultFromError(err error) core.Result {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		authz      *domain.AuthorizationError
	)
	switch {
	case errors.As(err, &validation):
		return core.Fail(validation.Error())
	case errors.As(err, &notFound):
		if notFound.Kind == "user" {
			return core.Fail("User not found.")
		}
		return core.Fail("Task not found. Please check the task ID.")
	case errors.As(err, &authz):
		return core.Fail("You don't have permission to access this task.")
	default:
		return core.Fail(err.Error())
	}
}

// fetchOwned loads a task and enforces ownership: absent ids yield a
// not-found error, records owned by someone else a distinct authorization
// error. The distinction intentionally reveals the record's existence.
func (e *Executor) fetchOwned(tx storage.Tx, taskID string) (*domain.Task, error) {
	task, err := tx.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != e.userID {
		return nil, &domain.AuthorizationError{Kind: "task", ID: taskID}
	}
	return task, nil
}

// announce publishes an event for an already-committed change. Delivery
// failure is logged and deliberately does not alter the handler's Result.
func (e *Executor) announce(ctx context.Context, topic, eventType string, data any) {
	if e.publisher == nil {
		return
	}
	logger := logging.WithTrace(ctx, e.logger)
	if e.publisher.Publish(ctx, topic, eventType, data) {
		logger.Info("task event published", "topic", topic, "event_type", eventType)
	} else {
		logger.Error("task event publish failed", "topic", topic, "event_type", eventType)
	}
}
