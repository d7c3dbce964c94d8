// Package agent runs the tool-calling conversation loop: it hands the model
// the user message plus the tool registry, executes every function call the
// model requests through the dispatcher, feeds the results back, and repeats
// until the model produces a final text answer.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taskmesh/taskmesh/core"
	"github.com/taskmesh/taskmesh/logging"
	"github.com/taskmesh/taskmesh/model"
	"github.com/taskmesh/taskmesh/schema"
)

// Dispatcher executes one decoded tool call, always returning a Result.
// *executor.Executor satisfies this.
type Dispatcher interface {
	Dispatch(ctx context.Context, call core.ToolCall) core.Result
}

// DefaultInstructions is the system prompt used when none is configured.
const DefaultInstructions = "You are a helpful task management assistant. " +
	"Use the available tools to manage the user's todo list. When a tool returns " +
	"a formatted table, display it exactly as provided."

// Config tunes the conversation loop.
type Config struct {
	// Instructions is the system prompt. Empty means DefaultInstructions.
	Instructions string
	// MaxTurns bounds model round-trips per Chat call so a misbehaving
	// model cannot loop forever. Zero means the default of 8.
	MaxTurns int
}

// Agent drives a Model against the tool registry on behalf of one user.
type Agent struct {
	model      model.Model
	dispatcher Dispatcher
	logger     logging.Logger
	cfg        Config
}

// New constructs an Agent. cfg may be nil for defaults.
func New(m model.Model, dispatcher Dispatcher, logger logging.Logger, cfg *Config) *Agent {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.Instructions == "" {
		c.Instructions = DefaultInstructions
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = 8
	}
	return &Agent{model: m, dispatcher: dispatcher, logger: logger, cfg: c}
}

// Chat processes one user message and returns the model's final answer.
func (a *Agent) Chat(ctx context.Context, message string) (string, error) {
	logger := logging.WithTrace(ctx, a.logger)
	contents := []core.Content{core.NewUserContent(message)}

	for turn := 0; turn < a.cfg.MaxTurns; turn++ {
		resp, err := a.model.Generate(ctx, model.Request{
			Instructions: a.cfg.Instructions,
			Contents:     contents,
			Tools:        schema.Tools(),
		})
		if err != nil {
			return "", fmt.Errorf("model generate: %w", err)
		}
		contents = append(contents, resp.Content)

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			return resp.Content.Text(), nil
		}

		parts := make([]core.Part, 0, len(calls))
		for _, fc := range calls {
			result := a.execute(ctx, logger, fc)
			parts = append(parts, core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
				ID:       fc.ID,
				Name:     fc.Name,
				Response: encodeResult(result),
			}})
		}
		contents = append(contents, core.Content{Role: "tool", Parts: parts})
	}

	return "", fmt.Errorf("tool loop did not settle within %d turns", a.cfg.MaxTurns)
}

// execute decodes the model-supplied arguments, checks them against the
// registered parameter shape, and dispatches. Argument problems surface as
// error Results so the model can correct itself on the next turn.
func (a *Agent) execute(ctx context.Context, logger logging.Logger, fc core.FunctionCall) core.Result {
	args := map[string]any{}
	if fc.Arguments != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
			logger.Warn("tool arguments unparsable", "tool", fc.Name, "error", err.Error())
			return core.Failf("Tool execution failed: invalid arguments: %v", err)
		}
	}
	if err := schema.Validate(fc.Name, args); err != nil {
		logger.Warn("tool arguments rejected", "tool", fc.Name, "error", err.Error())
		return core.Fail(err.Error())
	}

	start := time.Now()
	result := a.dispatcher.Dispatch(ctx, core.ToolCall{Name: fc.Name, Params: args})
	logger.Info("agent tool call",
		"tool", fc.Name,
		"fc_id", fc.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"success", result.Success,
	)
	return result
}

// encodeResult serializes a Result for the tool-response message. The model
// consumes text, so the envelope travels as compact JSON.
func encodeResult(result core.Result) string {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"result encoding failed: %v"}`, err)
	}
	return string(encoded)
}
