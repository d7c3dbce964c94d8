package core

import (
	"fmt"

	"github.com/taskmesh/taskmesh/domain"
)

// Tool names form a closed set. Anything else is rejected at decode time.
const (
	ToolAddTask        = "add_task"
	ToolListTasks      = "list_tasks"
	ToolCompleteTask   = "complete_task"
	ToolDeleteTask     = "delete_task"
	ToolUpdateTask     = "update_task"
	ToolGetUserProfile = "get_user_profile"
)

// ToolNames lists every recognized tool identifier.
func ToolNames() []string {
	return []string{
		ToolAddTask,
		ToolListTasks,
		ToolCompleteTask,
		ToolDeleteTask,
		ToolUpdateTask,
		ToolGetUserProfile,
	}
}

// ToolCall is the raw inbound invocation: a tool name plus a parameter
// mapping as decoded from the external JSON payload.
type ToolCall struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

// UnknownToolError reports a ToolCall whose name is outside the closed set.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// Command is the closed union of decoded tool invocations. Decoding happens
// before dispatch so the dispatcher can switch exhaustively over variants
// instead of routing untrusted strings through an open callable map.
type Command interface {
	isCommand()
	// Tool returns the wire name of the command.
	Tool() string
}

// AddTaskCommand creates a new task. Date fields stay raw strings here;
// parsing them is a handler-side validation concern.
type AddTaskCommand struct {
	Title       string
	Description *string
	Priority    string // "" means default
	Tags        []string
	DueDate     *string
	RemindAt    *string
	Recurrence  map[string]any
}

func (AddTaskCommand) isCommand()   {}
func (AddTaskCommand) Tool() string { return ToolAddTask }

// ListTasksCommand lists the caller's tasks, optionally filtered by
// completion status ("pending" or "completed"; empty means all).
type ListTasksCommand struct {
	Status string
}

func (ListTasksCommand) isCommand()   {}
func (ListTasksCommand) Tool() string { return ToolListTasks }

// CompleteTaskCommand marks a task completed.
type CompleteTaskCommand struct {
	TaskID string
}

func (CompleteTaskCommand) isCommand()   {}
func (CompleteTaskCommand) Tool() string { return ToolCompleteTask }

// DeleteTaskCommand removes a task permanently.
type DeleteTaskCommand struct {
	TaskID string
}

func (DeleteTaskCommand) isCommand()   {}
func (DeleteTaskCommand) Tool() string { return ToolDeleteTask }

// UpdateTaskCommand applies a partial update. Fields holds only the keys the
// caller explicitly sent, so "absent" stays distinguishable from "set to
// null": a present key with a nil value clears the field.
type UpdateTaskCommand struct {
	TaskID string
	Fields map[string]any
}

func (UpdateTaskCommand) isCommand()   {}
func (UpdateTaskCommand) Tool() string { return ToolUpdateTask }

// GetUserProfileCommand returns the caller's own profile. The caller identity
// is bound at executor construction, so the command takes no parameters.
type GetUserProfileCommand struct{}

func (GetUserProfileCommand) isCommand()   {}
func (GetUserProfileCommand) Tool() string { return ToolGetUserProfile }

// DecodeCommand converts a raw ToolCall into its typed command variant. It
// checks required parameter presence and JSON value shapes only; range and
// semantic validation belong to the handlers. An unrecognized name yields
// *UnknownToolError, malformed parameters a *domain.ValidationError.
func DecodeCommand(call ToolCall) (Command, error) {
	params := call.Params
	if params == nil {
		params = map[string]any{}
	}

	switch call.Name {
	case ToolAddTask:
		return decodeAddTask(params)
	case ToolListTasks:
		status, err := optionalString(params, "status")
		if err != nil {
			return nil, err
		}
		cmd := ListTasksCommand{}
		if status != nil {
			cmd.Status = *status
		}
		return cmd, nil
	case ToolCompleteTask:
		id, err := requiredString(params, "task_id")
		if err != nil {
			return nil, err
		}
		return CompleteTaskCommand{TaskID: id}, nil
	case ToolDeleteTask:
		id, err := requiredString(params, "task_id")
		if err != nil {
			return nil, err
		}
		return DeleteTaskCommand{TaskID: id}, nil
	case ToolUpdateTask:
		id, err := requiredString(params, "task_id")
		if err != nil {
			return nil, err
		}
		fields := make(map[string]any, len(params))
		for k, v := range params {
			if k == "task_id" {
				continue
			}
			fields[k] = v
		}
		return UpdateTaskCommand{TaskID: id, Fields: fields}, nil
	case ToolGetUserProfile:
		return GetUserProfileCommand{}, nil
	default:
		return nil, &UnknownToolError{Name: call.Name}
	}
}

func decodeAddTask(params map[string]any) (Command, error) {
	title, err := requiredString(params, "title")
	if err != nil {
		return nil, err
	}
	cmd := AddTaskCommand{Title: title}

	if cmd.Description, err = optionalString(params, "description"); err != nil {
		return nil, err
	}
	priority, err := optionalString(params, "priority")
	if err != nil {
		return nil, err
	}
	if priority != nil {
		cmd.Priority = *priority
	}
	if cmd.Tags, err = optionalStringSlice(params, "tags"); err != nil {
		return nil, err
	}
	if cmd.DueDate, err = optionalString(params, "due_date"); err != nil {
		return nil, err
	}
	if cmd.RemindAt, err = optionalString(params, "remind_at"); err != nil {
		return nil, err
	}
	if cmd.Recurrence, err = optionalMap(params, "recurrence_rule"); err != nil {
		return nil, err
	}
	return cmd, nil
}

func requiredString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", &domain.ValidationError{Field: key, Message: "required field is missing"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &domain.ValidationError{
			Field:   key,
			Value:   v,
			Message: fmt.Sprintf("expected type string, got %T", v),
		}
	}
	return s, nil
}

func optionalString(params map[string]any, key string) (*string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, &domain.ValidationError{
			Field:   key,
			Value:   v,
			Message: fmt.Sprintf("expected type string, got %T", v),
		}
	}
	return &s, nil
}

func optionalStringSlice(params map[string]any, key string) ([]string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]string); ok {
			return typed, nil
		}
		return nil, &domain.ValidationError{
			Field:   key,
			Value:   v,
			Message: fmt.Sprintf("expected type array, got %T", v),
		}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, &domain.ValidationError{
				Field:   key,
				Value:   item,
				Message: fmt.Sprintf("expected string elements, got %T", item),
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalMap(params map[string]any, key string) (map[string]any, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &domain.ValidationError{
			Field:   key,
			Value:   v,
			Message: fmt.Sprintf("expected type object, got %T", v),
		}
	}
	return m, nil
}
