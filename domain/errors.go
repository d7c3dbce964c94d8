package domain

import "fmt"

// ValidationError reports malformed or out-of-range input with the offending
// field and, when useful, the rejected value.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NotFoundError reports that a referenced entity does not exist at all.
type NotFoundError struct {
	Kind string // "task" or "user"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// AuthorizationError reports that the entity exists but belongs to a
// different user than the caller. Kept distinct from NotFoundError on
// purpose; collapsing the two would hide real ownership bugs, at the cost of
// disclosing that the resource exists.
type AuthorizationError struct {
	Kind string
	ID   string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to access %s %s", e.Kind, e.ID)
}
