package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Priority is the task urgency level. The set is closed: anything outside it
// is rejected at validation time rather than coerced.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority validates a raw priority string. An empty string yields the
// default PriorityMedium.
func ParsePriority(raw string) (Priority, error) {
	if raw == "" {
		return PriorityMedium, nil
	}
	switch p := Priority(raw); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", &ValidationError{
		Field:   "priority",
		Value:   raw,
		Message: "must be one of: low, medium, high, urgent",
	}
}

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	maxTags           = 10
	maxTagLen         = 50
)

// RecurrenceRule describes how a task repeats. Frequency and Interval mirror
// the structured object accepted on the wire; EndDate is optional.
type RecurrenceRule struct {
	Frequency string     `json:"frequency"`
	Interval  int        `json:"interval"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// Task is a single todo record owned by exactly one user. OwnerID is fixed at
// creation and never changes afterwards. UpdatedAt strictly increases on
// every mutation.
type Task struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id"`
	Title          string          `json:"title"`
	Description    *string         `json:"description,omitempty"`
	Completed      bool            `json:"completed"`
	Priority       Priority        `json:"priority"`
	Tags           []string        `json:"tags"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	RemindAt       *time.Time      `json:"remind_at,omitempty"`
	RecurrenceRule *RecurrenceRule `json:"recurrence_rule,omitempty"`
	Reminded       bool            `json:"reminded"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewTask creates an unsaved task with a fresh identifier, default priority
// and empty tags. Field validation is the caller's responsibility (see the
// Validate* helpers).
func NewTask(ownerID, title string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Priority:  PriorityMedium,
		Tags:      make([]string, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch advances UpdatedAt, guaranteeing a strict increase even when two
// mutations land within clock resolution.
func (t *Task) Touch() {
	now := time.Now().UTC()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Nanosecond)
	}
	t.UpdatedAt = now
}

// Clone returns a deep copy so stored records cannot be mutated through
// returned pointers.
func (t *Task) Clone() *Task {
	cp := *t
	cp.Tags = append([]string(nil), t.Tags...)
	if t.Description != nil {
		d := *t.Description
		cp.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		cp.DueDate = &d
	}
	if t.RemindAt != nil {
		r := *t.RemindAt
		cp.RemindAt = &r
	}
	if t.RecurrenceRule != nil {
		rr := *t.RecurrenceRule
		if t.RecurrenceRule.EndDate != nil {
			e := *t.RecurrenceRule.EndDate
			rr.EndDate = &e
		}
		cp.RecurrenceRule = &rr
	}
	return &cp
}

// ValidateTitle enforces the 1..200 character bound.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n == 0 {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if n > maxTitleLen {
		return &ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("must be at most %d characters", maxTitleLen),
		}
	}
	return nil
}

// ValidateDescription enforces the 1000 character cap.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return &ValidationError{
			Field:   "description",
			Message: fmt.Sprintf("must be at most %d characters", maxDescriptionLen),
		}
	}
	return nil
}

// ValidateTags enforces at most 10 tags of at most 50 characters each. Over
// the limit is a validation failure, never a silent truncation.
func ValidateTags(tags []string) error {
	if len(tags) > maxTags {
		return &ValidationError{
			Field:   "tags",
			Message: fmt.Sprintf("at most %d tags allowed", maxTags),
		}
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > maxTagLen {
			return &ValidationError{
				Field:   "tags",
				Value:   tag,
				Message: fmt.Sprintf("each tag must be at most %d characters", maxTagLen),
			}
		}
	}
	return nil
}

// timeLayouts are tried in order when parsing inbound date strings. RFC 3339
// first, then the zone-less forms the original wire format also accepted.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses an ISO-8601 date string. Unparsable input is a validation
// error attributed to the named field, not a crash.
func ParseTime(field, raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, &ValidationError{
		Field:   field,
		Value:   raw,
		Message: "must be an ISO 8601 date string",
	}
}

// TaskFilter narrows List results. Nil fields match everything.
type TaskFilter struct {
	OwnerID   *string
	Completed *bool
}

// ByCreatedAt orders tasks oldest first with ID as a tiebreaker so listings
// are deterministic.
func ByCreatedAt(a, b *Task) int {
	switch {
	case a.CreatedAt.Before(b.CreatedAt):
		return -1
	case a.CreatedAt.After(b.CreatedAt):
		return 1
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}
