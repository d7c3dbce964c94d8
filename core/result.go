package core

import "fmt"

// Result is the uniform envelope every tool invocation returns. Exactly one
// of Data or Error is meaningful: a failed Result always carries an error
// message and never data, a successful one never carries an error.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK builds a successful Result carrying data.
func OK(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail builds a failed Result with the given error message.
func Fail(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Failf builds a failed Result with a formatted error message.
func Failf(format string, args ...any) Result {
	return Fail(fmt.Sprintf(format, args...))
}
