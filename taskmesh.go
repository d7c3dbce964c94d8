// Package taskmesh provides a high-level façade over the tool invocation
// layer: per-request executors bound to an authenticated user, trace context
// propagation, and best-effort event announcement. Most applications interact
// with this package by:
//  1. Creating a Mesh via New() (optionally overriding the default in-memory
//     store, publisher or logger)
//  2. Deriving a request context with RequestContext() from the inbound
//     headers
//  3. Invoking HandleToolCall() once per tool call, or wiring NewAgent() to a
//     model for full conversational use
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable store and a structured logger.
package taskmesh

import (
	"context"

	"github.com/taskmesh/taskmesh/agent"
	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/event"
	"github.com/taskmesh/taskmesh/executor"
	"github.com/taskmesh/taskmesh/logging"
	"github.com/taskmesh/taskmesh/model"
	"github.com/taskmesh/taskmesh/storage"
	"github.com/taskmesh/taskmesh/trace"
)

// Options configures the Mesh.
type Options struct {
	// Store is the persistence layer (defaults to in-memory).
	Store storage.Store
	// Publisher announces committed state changes (defaults to the local
	// sidecar publisher).
	Publisher executor.Publisher
	// Logger (defaults to a NoOp logger).
	Logger logging.Logger
	// AgentConfig tunes agents created via NewAgent.
	AgentConfig *agent.Config
}

// Mesh wires the store, publisher and logger behind per-request executors.
type Mesh struct {
	store     storage.Store
	publisher executor.Publisher
	logger    logging.Logger
	agentCfg  *agent.Config
}

// New creates a Mesh with the given options applied over defaults.
func New(optFns ...func(o *Options)) *Mesh {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemory()
	}
	if opts.Publisher == nil {
		opts.Publisher = event.NewPublisher(nil, opts.Logger)
	}
	return &Mesh{
		store:     opts.Store,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		agentCfg:  opts.AgentConfig,
	}
}

// Store exposes the underlying store, e.g. for seeding user records.
func (m *Mesh) Store() storage.Store { return m.store }

// RequestContext derives a context carrying the trace state for one inbound
// request: the trace id from the traceparent header (when present), the
// inbound correlation id or a freshly generated one, and the authenticated
// user id. The value lives only on the returned context, so it can never
// leak into another request.
func RequestContext(ctx context.Context, traceparent, correlationID, userID string) context.Context {
	return trace.With(ctx, trace.Context{
		TraceID:       trace.ParseTraceParent(traceparent),
		CorrelationID: trace.EnsureCorrelationID(correlationID),
		UserID:        userID,
	})
}

// HandleToolCall executes one tool call on behalf of userID and returns its
// Result. A fresh executor is built per call, keeping caller identity
// request-scoped.
func (m *Mesh) HandleToolCall(ctx context.Context, userID string, call core.ToolCall) core.Result {
	tc := trace.From(ctx)
	tc.UserID = userID
	tc.CorrelationID = trace.EnsureCorrelationID(tc.CorrelationID)
	ctx = trace.With(ctx, tc)

	return m.Executor(userID).Dispatch(ctx, call)
}

// Executor returns a dispatcher bound to userID for the current request.
func (m *Mesh) Executor(userID string) *executor.Executor {
	return executor.New(m.store, m.publisher, m.logger, userID)
}

// NewAgent builds a conversational agent that drives mdl against the tool
// registry on behalf of userID.
func (m *Mesh) NewAgent(mdl model.Model, userID string) *agent.Agent {
	return agent.New(mdl, m.Executor(userID), m.logger, m.agentCfg)
}
