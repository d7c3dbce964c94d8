package event

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskmesh/taskmesh/trace"
)

type captured struct {
	path        string
	traceparent string
	contentType string
	envelope    Envelope
}

func newTestPublisher(t *testing.T, status int) (*Publisher, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.traceparent = r.Header.Get("traceparent")
		got.contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got.envelope)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	p := NewPublisher(&Config{
		BaseURL:    srv.URL,
		PubSubName: "kafka-pubsub",
		Source:     "taskmesh",
		Timeout:    time.Second,
	}, nil)
	return p, got
}

func TestPublishSuccess(t *testing.T) {
	p, got := newTestPublisher(t, http.StatusOK)

	ok := p.Publish(context.Background(), TopicTaskEvents, TypeTaskCreated, map[string]any{"id": "t1"})
	require.True(t, ok)

	assert.Equal(t, "/v1.0/publish/kafka-pubsub/task-events", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "1.0", got.envelope.SpecVersion)
	assert.Equal(t, TypeTaskCreated, got.envelope.Type)
	assert.Equal(t, "taskmesh", got.envelope.Source)
	assert.Equal(t, "application/json", got.envelope.DataContentType)
	assert.NotEmpty(t, got.envelope.ID)
	assert.True(t, strings.HasSuffix(got.envelope.Time, "Z"))

	data, ok2 := got.envelope.Data.(map[string]any)
	require.True(t, ok2)
	assert.Equal(t, "t1", data["id"])
}

func TestPublishNoTraceOmitsHeader(t *testing.T) {
	p, got := newTestPublisher(t, http.StatusOK)
	require.True(t, p.Publish(context.Background(), TopicTaskUpdates, TypeTaskUpdated, nil))
	assert.Empty(t, got.traceparent)
}

func TestPublishPropagatesTraceParent(t *testing.T) {
	p, got := newTestPublisher(t, http.StatusNoContent)

	ctx := trace.With(context.Background(), trace.Context{TraceID: "4bf92f3577b34da6a3ce929d0e0e4736"})
	require.True(t, p.Publish(ctx, TopicTaskEvents, TypeTaskCompleted, nil))

	parts := strings.Split(got.traceparent, "-")
	require.Len(t, parts, 4)
	assert.Equal(t, "00", parts[0])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", parts[1])
	assert.Len(t, parts[2], 16)
	assert.Equal(t, "01", parts[3])

	// Span id derives from the envelope id.
	assert.Equal(t, strings.ReplaceAll(got.envelope.ID, "-", "")[:16], parts[2])
}

func TestPublishRejectedStatus(t *testing.T) {
	p, _ := newTestPublisher(t, http.StatusInternalServerError)
	assert.False(t, p.Publish(context.Background(), TopicTaskEvents, TypeTaskDeleted, nil))
}

func TestPublishUnreachableSidecar(t *testing.T) {
	p := NewPublisher(&Config{
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		Timeout: 200 * time.Millisecond,
	}, nil)
	assert.False(t, p.Publish(context.Background(), TopicTaskEvents, TypeTaskCreated, nil))
}

func TestPublishUnserializableData(t *testing.T) {
	p, _ := newTestPublisher(t, http.StatusOK)
	assert.False(t, p.Publish(context.Background(), TopicTaskEvents, TypeTaskCreated, func() {}))
}

func TestNewEnvelopeTimeFormat(t *testing.T) {
	env := NewEnvelope(TypeTaskCreated, "taskmesh", nil)
	// Microsecond precision with a literal Z suffix.
	_, err := time.Parse("2006-01-02T15:04:05.000000Z", env.Time)
	assert.NoError(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "http://localhost:3500", cfg.BaseURL)
	assert.Equal(t, "kafka-pubsub", cfg.PubSubName)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}
