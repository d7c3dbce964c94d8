package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskmesh/taskmesh/domain"
)

const (
	titleColumnWidth = 24
	idColumnWidth    = 8

	statusCompleted = "Completed"
	statusPending   = "Pending  "
)

// renderTaskTable renders tasks as a fixed-width table inside a markdown code
// fence; models preserve tables better than free-form lists. Every title cell
// is exactly 24 characters: longer titles truncate, shorter ones pad with
// spaces. An empty set renders a plain message instead of an empty table.
func renderTaskTable(tasks []*domain.Task) string {
	if len(tasks) == 0 {
		return "No tasks found."
	}

	lines := []string{
		"```",
		"ID       | Title                    | Status",
		"---------|--------------------------|----------",
	}
	for _, task := range tasks {
		status := statusPending
		if task.Completed {
			status = statusCompleted
		}
		lines = append(lines, fmt.Sprintf("%s | %s | %s",
			clip(task.ID, idColumnWidth),
			pad(task.Title, titleColumnWidth),
			status,
		))
	}
	lines = append(lines, "```")
	return strings.Join(lines, "\n")
}

// clip returns the first n characters of s.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// pad truncates s to exactly n characters, space-padding when shorter.
func pad(s string, n int) string {
	runes := []rune(s)
	if len(runes) >= n {
		return string(runes[:n])
	}
	return s + strings.Repeat(" ", n-len(runes))
}

// formatTime renders a timestamp for the wire, keeping sub-second precision
// so consecutive updates stay distinguishable.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// taskView is the serialized form of a task returned from handlers and
// carried in event payloads.
func taskView(task *domain.Task) map[string]any {
	view := map[string]any{
		"id":         task.ID,
		"user_id":    task.OwnerID,
		"title":      task.Title,
		"completed":  task.Completed,
		"priority":   string(task.Priority),
		"tags":       task.Tags,
		"reminded":   task.Reminded,
		"created_at": formatTime(task.CreatedAt),
		"updated_at": formatTime(task.UpdatedAt),
	}
	if task.Description != nil {
		view["description"] = *task.Description
	}
	if task.DueDate != nil {
		view["due_date"] = formatTime(*task.DueDate)
	}
	if task.RemindAt != nil {
		view["remind_at"] = formatTime(*task.RemindAt)
	}
	if task.RecurrenceRule != nil {
		rule := map[string]any{
			"frequency": task.RecurrenceRule.Frequency,
			"interval":  task.RecurrenceRule.Interval,
		}
		if task.RecurrenceRule.EndDate != nil {
			rule["end_date"] = formatTime(*task.RecurrenceRule.EndDate)
		}
		view["recurrence_rule"] = rule
	}
	return view
}
