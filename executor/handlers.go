package executor

import (
	"context"

	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/domain"
	"github.com/taskmesh/taskmesh/event"
)

func (e *Executor) addTask(ctx context.Context, cmd core.AddTaskCommand) core.Result {
	if err := domain.ValidateTitle(cmd.Title); err != nil {
		return resultFromError(err)
	}
	if cmd.Description != nil {
		if err := domain.ValidateDescription(*cmd.Description); err != nil {
			return resultFromError(err)
		}
	}
	priority, err := domain.ParsePriority(cmd.Priority)
	if err != nil {
		return resultFromError(err)
	}
	if err := domain.ValidateTags(cmd.Tags); err != nil {
		return resultFromError(err)
	}

	task := domain.NewTask(e.userID, cmd.Title)
	task.Description = cmd.Description
	task.Priority = priority
	if cmd.Tags != nil {
		task.Tags = cmd.Tags
	}
	if cmd.DueDate != nil {
		due, err := domain.ParseTime("due_date", *cmd.DueDate)
		if err != nil {
			return resultFromError(err)
		}
		task.DueDate = &due
	}
	if cmd.RemindAt != nil {
		remind, err := domain.ParseTime("remind_at", *cmd.RemindAt)
		if err != nil {
			return resultFromError(err)
		}
		task.RemindAt = &remind
	}
	if cmd.Recurrence != nil {
		rule, err := decodeRecurrence(cmd.Recurrence)
		if err != nil {
			return resultFromError(err)
		}
		task.RecurrenceRule = rule
	}
	if task.RecurrenceRule != nil && task.DueDate == nil {
		return resultFromError(&domain.ValidationError{
			Field:   "recurrence_rule",
			Message: "recurring tasks require a due date",
		})
	}

	tx := e.store.Begin()
	defer tx.Rollback()
	if err := tx.PutTask(task); err != nil {
		return core.Failf("Failed to create task: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Failf("Failed to create task: %v", err)
	}

	e.announce(ctx, event.TopicTaskEvents, event.TypeTaskCreated, taskView(task))
	return core.OK(taskView(task))
}

func (e *Executor) listTasks(_ context.Context, cmd core.ListTasksCommand) core.Result {
	filter := domain.TaskFilter{OwnerID: &e.userID}
	switch cmd.Status {
	case "pending":
		pending := false
		filter.Completed = &pending
	case "completed":
		completed := true
		filter.Completed = &completed
	}

	tx := e.store.Begin()
	defer tx.Rollback()
	tasks, err := tx.ListTasks(filter)
	if err != nil {
		return core.Failf("Failed to list tasks: %v", err)
	}
	return core.OK(renderTaskTable(tasks))
}

func (e *Executor) completeTask(ctx context.Context, cmd core.CompleteTaskCommand) core.Result {
	tx := e.store.Begin()
	defer tx.Rollback()

	task, err := e.fetchOwned(tx, cmd.TaskID)
	if err != nil {
		return resultFromError(err)
	}

	// Unconditional set keeps repeated calls idempotent.
	task.Completed = true
	task.Touch()
	if err := tx.PutTask(task); err != nil {
		return core.Failf("Failed to complete task: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Failf("Failed to complete task: %v", err)
	}

	e.announce(ctx, event.TopicTaskEvents, event.TypeTaskCompleted, map[string]any{
		"task_id":    task.ID,
		"user_id":    task.OwnerID,
		"completed":  task.Completed,
		"updated_at": formatTime(task.UpdatedAt),
	})
	return core.OK(map[string]any{
		"id":         task.ID,
		"title":      task.Title,
		"completed":  task.Completed,
		"updated_at": formatTime(task.UpdatedAt),
	})
}

func (e *Executor) deleteTask(ctx context.Context, cmd core.DeleteTaskCommand) core.Result {
	tx := e.store.Begin()
	defer tx.Rollback()

	task, err := e.fetchOwned(tx, cmd.TaskID)
	if err != nil {
		return resultFromError(err)
	}

	// Snapshot before removal; the record is gone once the tx commits.
	snapshot := map[string]any{"id": task.ID, "title": task.Title}

	if err := tx.DeleteTask(cmd.TaskID); err != nil {
		return core.Failf("Failed to delete task: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Failf("Failed to delete task: %v", err)
	}

	e.announce(ctx, event.TopicTaskEvents, event.TypeTaskDeleted, map[string]any{
		"task_id": task.ID,
		"user_id": task.OwnerID,
		"title":   task.Title,
	})
	return core.OK(snapshot)
}

func (e *Executor) updateTask(ctx context.Context, cmd core.UpdateTaskCommand) core.Result {
	tx := e.store.Begin()
	defer tx.Rollback()

	task, err := e.fetchOwned(tx, cmd.TaskID)
	if err != nil {
		return resultFromError(err)
	}

	if err := applyTaskFields(task, cmd.Fields); err != nil {
		return resultFromError(err)
	}
	if task.RecurrenceRule != nil && task.DueDate == nil {
		return resultFromError(&domain.ValidationError{
			Field:   "recurrence_rule",
			Message: "recurring tasks require a due date",
		})
	}

	task.Touch()
	if err := tx.PutTask(task); err != nil {
		return core.Failf("Failed to update task: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Failf("Failed to update task: %v", err)
	}

	e.announce(ctx, event.TopicTaskUpdates, event.TypeTaskUpdated, taskView(task))
	return core.OK(taskView(task))
}

func (e *Executor) getUserProfile(_ context.Context) core.Result {
	tx := e.store.Begin()
	defer tx.Rollback()

	user, err := tx.GetUser(e.userID)
	if err != nil {
		return resultFromError(err)
	}
	return core.OK(map[string]any{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"created_at": formatTime(user.CreatedAt),
	})
}

// applyTaskFields mutates task with exactly the fields present in fields.
// A key whose value is nil clears the field where clearing is legal; absence
// leaves the field untouched. Each field revalidates with the add_task rules.
func applyTaskFields(task *domain.Task, fields map[string]any) error {
	for field, raw := range fields {
		switch field {
		case "title":
			title, ok := raw.(string)
			if !ok {
				return &domain.ValidationError{Field: field, Value: raw, Message: "must be a string"}
			}
			if err := domain.ValidateTitle(title); err != nil {
				return err
			}
			task.Title = title
		case "description":
			if raw == nil {
				task.Description = nil
				continue
			}
			description, ok := raw.(string)
			if !ok {
				return &domain.ValidationError{Field: field, Value: raw, Message: "must be a string"}
			}
			if err := domain.ValidateDescription(description); err != nil {
				return err
			}
			task.Description = &description
		case "completed":
			completed, ok := raw.(bool)
			if !ok {
				return &domain.ValidationError{Field: field, Value: raw, Message: "must be a boolean"}
			}
			task.Completed = completed
		case "priority":
			value, ok := raw.(string)
			if !ok {
				return &domain.ValidationError{Field: field, Value: raw, Message: "must be a string"}
			}
			priority, err := domain.ParsePriority(value)
			if err != nil {
				return err
			}
			task.Priority = priority
		case "tags":
			if raw == nil {
				task.Tags = make([]string, 0)
				continue
			}
			tags, err := toStringSlice(field, raw)
			if err != nil {
				return err
			}
			if err := domain.ValidateTags(tags); err != nil {
				return err
			}
			task.Tags = tags
		case "due_date":
			if raw == nil {
				task.DueDate = nil
				continue
			}
			value, ok := raw.(string)
			if !ok {
				return &domain.ValidationError{Field: field, Value: raw, Message: "must be a string"}
			}
			due, err := domain.ParseTime(field, value)
			if err != nil {
				return err
			}
			task.DueDate = &due
		case "remind_at":
			if raw == nil {
				task.RemindAt = nil
				continue
			}
			value, ok := raw.(string)
			if !ok {
				return &domain.ValidationError{Field: field, Value: raw, Message: "must be a string"}
			}
			remind, err := domain.ParseTime(field, value)
			if err != nil {
				return err
			}
			task.RemindAt = &remind
		case "recurrence_rule":
			if raw == nil {
				task.RecurrenceRule = nil
				continue
			}
			rawRule, ok := raw.(map[string]any)
			if !ok {
				return &domain.ValidationError{Field: field, Value: raw, Message: "must be an object"}
			}
			rule, err := decodeRecurrence(rawRule)
			if err != nil {
				return err
			}
			task.RecurrenceRule = rule
		default:
			return &domain.ValidationError{Field: field, Message: "unknown field"}
		}
	}
	return nil
}

// decodeRecurrence converts the wire recurrence object into a RecurrenceRule.
func decodeRecurrence(raw map[string]any) (*domain.RecurrenceRule, error) {
	frequency, _ := raw["frequency"].(string)
	switch frequency {
	case "daily", "weekly", "monthly", "custom":
	case "":
		return nil, &domain.ValidationError{Field: "recurrence_rule", Message: "frequency is required"}
	default:
		return nil, &domain.ValidationError{
			Field:   "recurrence_rule",
			Value:   frequency,
			Message: "frequency must be one of: daily, weekly, monthly, custom",
		}
	}

	interval := 1
	if v, ok := raw["interval"]; ok && v != nil {
		switch n := v.(type) {
		case float64:
			interval = int(n)
		case int:
			interval = n
		default:
			return nil, &domain.ValidationError{Field: "recurrence_rule", Value: v, Message: "interval must be a number"}
		}
		if interval < 1 {
			return nil, &domain.ValidationError{Field: "recurrence_rule", Value: interval, Message: "interval must be at least 1"}
		}
	}

	rule := &domain.RecurrenceRule{Frequency: frequency, Interval: interval}
	if v, ok := raw["end_date"]; ok && v != nil {
		value, ok := v.(string)
		if !ok {
			return nil, &domain.ValidationError{Field: "recurrence_rule", Value: v, Message: "end_date must be a string"}
		}
		end, err := domain.ParseTime("recurrence_rule.end_date", value)
		if err != nil {
			return nil, err
		}
		rule.EndDate = &end
	}
	return rule, nil
}

func toStringSlice(field string, raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &domain.ValidationError{
					Field:   field,
					Value:   item,
					Message: "must contain only strings",
				}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &domain.ValidationError{Field: field, Value: raw, Message: "must be an array"}
	}
}
