// Package model defines the vendor-neutral interface the chat agent uses to
// drive tool-calling language models, plus the tool definition types exposed
// to providers. Concrete adapters live in the openai and anthropic
// subpackages.
package model

import (
	"context"
	"fmt"

	"github.com/taskmesh/taskmesh/core"
)

// ToolDefinition declaratively exposes a callable tool to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual tool. Parameters is a minimal
// JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is the normalized model input: optional system instructions, the
// conversation so far, and the tools the model may call.
type Request struct {
	Instructions string           `json:"instructions,omitempty"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// Response is one complete assistant turn. Content may mix text and
// function call parts.
type Response struct {
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "tool_calls", ...
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the agent loop requires.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel replays scripted responses in order. Useful for tests and
// examples; it also records every request it receives.
type MockModel struct {
	info     Info
	script   []Response
	next     int
	Requests []Request
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string, script ...Response) *MockModel {
	return &MockModel{
		info:   Info{Name: name, Provider: "mock", SupportsTools: true},
		script: script,
	}
}

// Generate returns the next scripted response.
func (m *MockModel) Generate(_ context.Context, req Request) (*Response, error) {
	m.Requests = append(m.Requests, req)
	if m.next >= len(m.script) {
		return nil, fmt.Errorf("mock model script exhausted after %d responses", len(m.script))
	}
	resp := m.script[m.next]
	m.next++
	return &resp, nil
}

// Info returns metadata describing the mock.
func (m *MockModel) Info() Info { return m.info }
