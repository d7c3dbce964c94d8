// Package event publishes CloudEvents 1.0 envelopes to a co-located message
// bus sidecar over HTTP. Delivery is best-effort at-most-once: one bounded
// attempt, no retry, no durable queue. Failures are logged and surface only
// as a false return so they can never affect the operation that produced the
// event.
package event

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskmesh/taskmesh/logging"
	"github.com/taskmesh/taskmesh/trace"
)

// Topics and event types announced by the task handlers.
const (
	TopicTaskEvents  = "task-events"
	TopicTaskUpdates = "task-updates"

	TypeTaskCreated   = "com.todo.task.created"
	TypeTaskUpdated   = "com.todo.task.updated"
	TypeTaskCompleted = "com.todo.task.completed"
	TypeTaskDeleted   = "com.todo.task.deleted"
)

// Envelope is a CloudEvents 1.0 event. Immutable once constructed.
type Envelope struct {
	SpecVersion     string `json:"specversion"`
	Type            string `json:"type"`
	Source          string `json:"source"`
	ID              string `json:"id"`
	Time            string `json:"time"`
	DataContentType string `json:"datacontenttype"`
	Data            any    `json:"data"`
}

// NewEnvelope builds an envelope with a fresh id and the current UTC time.
func NewEnvelope(eventType, source string, data any) Envelope {
	return Envelope{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          source,
		ID:              uuid.NewString(),
		Time:            time.Now().UTC().Format("2006-01-02T15:04:05.000000") + "Z",
		DataContentType: "application/json",
		Data:            data,
	}
}

// Config configures the sidecar endpoint and delivery bound.
type Config struct {
	// BaseURL of the sidecar, e.g. "http://localhost:3500".
	BaseURL string
	// PubSubName is the bus component addressed in the publish path.
	PubSubName string
	// Source stamped on every envelope.
	Source string
	// Timeout bounds the single delivery attempt.
	Timeout time.Duration
}

// DefaultConfig returns the conventional local sidecar settings.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:3500",
		PubSubName: "kafka-pubsub",
		Source:     "taskmesh",
		Timeout:    5 * time.Second,
	}
}

// Publisher delivers envelopes to the sidecar. Safe for concurrent use.
type Publisher struct {
	cfg    Config
	client *http.Client
	logger logging.Logger
}

// NewPublisher constructs a Publisher from cfg (or defaults when nil).
func NewPublisher(cfg *Config, logger logging.Logger) *Publisher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Publisher{
		cfg:    *cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Publish wraps data in a CloudEvents envelope and performs exactly one
// delivery attempt to the given topic. When ctx carries a trace id the
// outbound request gains a traceparent header linking the event to its
// originating request. Returns true only on broker acknowledgment; any
// non-2xx status, timeout or transport fault is logged and yields false.
// Publish never panics and never returns an error.
func (p *Publisher) Publish(ctx context.Context, topic, eventType string, data any) bool {
	env := NewEnvelope(eventType, p.cfg.Source, data)
	logger := logging.WithTrace(ctx, p.logger)

	body, err := json.Marshal(env)
	if err != nil {
		logger.Error("event encode failed", "event_id", env.ID, "topic", topic, "error", err.Error())
		return false
	}

	url := fmt.Sprintf("%s/v1.0/publish/%s/%s", p.cfg.BaseURL, p.cfg.PubSubName, topic)

	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logger.Error("event request build failed", "event_id", env.ID, "topic", topic, "error", err.Error())
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := trace.From(ctx).TraceID; traceID != "" {
		req.Header.Set("traceparent", traceParent(traceID, env.ID))
	}

	logger.Info("publishing event", "event_id", env.ID, "event_type", eventType, "topic", topic)

	resp, err := p.client.Do(req)
	if err != nil {
		logger.Error("event publish failed", "event_id", env.ID, "topic", topic, "error", err.Error())
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Error("event publish rejected",
			"event_id", env.ID,
			"topic", topic,
			"status_code", resp.StatusCode,
			"response", string(detail),
		)
		return false
	}

	logger.Info("event published", "event_id", env.ID, "topic", topic, "status_code", resp.StatusCode)
	return true
}

// traceParent composes a W3C traceparent header: fixed version, the parent
// trace id unchanged, a span id from the first 16 hex characters of the event
// id, and a sampled flags byte.
func traceParent(traceID, eventID string) string {
	span := strings.ReplaceAll(eventID, "-", "")
	if len(span) > 16 {
		span = span[:16]
	}
	return fmt.Sprintf("00-%s-%s-01", traceID, span)
}
