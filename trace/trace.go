// Package trace carries per-request correlation state (trace id, user id,
// correlation id) as an explicit context.Context value. Threading the value
// through dispatcher, handlers, logger and publisher keeps one request's
// identity from ever leaking into another, which goroutine-local or pooled
// worker slots cannot guarantee.
package trace

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Context is the correlation state for one inbound request. The zero value
// means "no trace context set". Fields left empty are omitted from logs and
// outbound headers rather than rendered as null.
type Context struct {
	TraceID       string `json:"trace_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Empty reports whether no field is set.
func (c Context) Empty() bool {
	return c.TraceID == "" && c.UserID == "" && c.CorrelationID == ""
}

type ctxKey struct{}

// With returns a context carrying tc. Calling it again replaces the previous
// value wholesale, so repeated sets are idempotent.
func With(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// From returns the trace context carried by ctx, or the zero Context when
// none was set.
func From(ctx context.Context) Context {
	tc, _ := ctx.Value(ctxKey{}).(Context)
	return tc
}

// Clear returns a context whose trace fields all read empty. Safe to call on
// a context that never carried a value.
func Clear(ctx context.Context) context.Context {
	return With(ctx, Context{})
}

// ParseTraceParent extracts the trace id from a W3C traceparent header
// ("00-<trace-id>-<span-id>-<flags>"): the second hyphen-delimited field.
// Returns "" for headers without one.
func ParseTraceParent(header string) string {
	parts := strings.Split(header, "-")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// EnsureCorrelationID returns the inbound correlation id unchanged, or a
// freshly generated one when the caller supplied none.
func EnsureCorrelationID(inbound string) string {
	if inbound != "" {
		return inbound
	}
	return uuid.NewString()
}
