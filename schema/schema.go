// Package schema holds the static tool registry advertised to the language
// model: one definition per tool with a minimal JSON-Schema parameter shape.
// The executor trusts these shapes beyond required/optional presence; range
// and semantic validation live with the handlers.
package schema

import (
	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/internal/util"
	"github.com/taskmesh/taskmesh/model"
)

var registry = []model.ToolDefinition{
	{
		Type: "function",
		Function: model.FunctionDefinition{
			Name: core.ToolAddTask,
			Description: "Create a new task for the authenticated user. Use this when the user " +
				"wants to add a new todo item. Supports priority levels, tags, due dates, " +
				"reminders, and recurrence.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{
						"type":        "string",
						"description": "The title of the task; the main description of what needs to be done.",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Optional detailed description or notes about the task.",
					},
					"priority": map[string]any{
						"type":        "string",
						"description": "Priority level: 'low', 'medium' (default), 'high', or 'urgent'.",
						"enum":        []string{"low", "medium", "high", "urgent"},
					},
					"tags": map[string]any{
						"type":        "array",
						"description": "Tag strings for categorization (e.g. ['work', 'errands']).",
					},
					"due_date": map[string]any{
						"type":        "string",
						"description": "Due date in ISO format (e.g. '2026-02-15T10:00:00').",
					},
					"remind_at": map[string]any{
						"type":        "string",
						"description": "Reminder time in ISO format (e.g. '2026-02-15T09:00:00').",
					},
					"recurrence_rule": map[string]any{
						"type":        "object",
						"description": "Recurrence pattern with 'frequency' (daily/weekly/monthly/custom), 'interval', and optional 'end_date'.",
					},
				},
				"required": []string{"title"},
			},
		},
	},
	{
		Type: "function",
		Function: model.FunctionDefinition{
			Name: core.ToolListTasks,
			Description: "List tasks. The tool returns a formatted table in a markdown code " +
				"block. Display it exactly as provided.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"status": map[string]any{
						"type":        "string",
						"description": "Filter: 'pending', 'completed', or omit for all.",
						"enum":        []string{"pending", "completed"},
					},
				},
			},
		},
	},
	{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        core.ToolCompleteTask,
			Description: "Mark a task as completed. Use this when the user indicates they finished a task.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{
						"type":        "string",
						"description": "The unique identifier (UUID) of the task to mark as complete.",
					},
				},
				"required": []string{"task_id"},
			},
		},
	},
	{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        core.ToolDeleteTask,
			Description: "Permanently delete a task. Use this when the user wants a task removed from their list.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{
						"type":        "string",
						"description": "The unique identifier (UUID) of the task to delete.",
					},
				},
				"required": []string{"task_id"},
			},
		},
	},
	{
		Type: "function",
		Function: model.FunctionDefinition{
			Name: core.ToolUpdateTask,
			Description: "Update fields of an existing task. Only the fields provided are " +
				"changed; everything else is left untouched.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{
						"type":        "string",
						"description": "The unique identifier (UUID) of the task to update.",
					},
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"completed":   map[string]any{"type": "boolean"},
					"priority": map[string]any{
						"type": "string",
						"enum": []string{"low", "medium", "high", "urgent"},
					},
					"tags":            map[string]any{"type": "array"},
					"due_date":        map[string]any{"type": "string"},
					"remind_at":       map[string]any{"type": "string"},
					"recurrence_rule": map[string]any{"type": "object"},
				},
				"required": []string{"task_id"},
			},
		},
	},
	{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        core.ToolGetUserProfile,
			Description: "Get the authenticated user's profile information (name, email).",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	},
}

// Tools returns the full registry in declaration order. The returned slice is
// shared; callers must not mutate it.
func Tools() []model.ToolDefinition {
	return registry
}

// Lookup returns the definition for a tool name.
func Lookup(name string) (model.ToolDefinition, bool) {
	for _, def := range registry {
		if def.Function.Name == name {
			return def, true
		}
	}
	return model.ToolDefinition{}, false
}

// Validate checks params against the registered parameter shape for name:
// required presence plus declared value types. Unknown names pass; dispatch
// rejects them with its own error.
func Validate(name string, params map[string]any) error {
	def, ok := Lookup(name)
	if !ok {
		return nil
	}
	return util.ValidateParameters(params, def.Function.Parameters)
}
