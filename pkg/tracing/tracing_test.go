package tracing

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestPropagationRoundTrip(t *testing.T) {
	ctx := context.Background()
	tp, err := Init(ctx, "test", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer func() { _ = tp.Shutdown(ctx) }()

	ctx, span := tp.Tracer("test").Start(ctx, "parent")
	defer span.End()
	want := span.SpanContext().TraceID()

	h := http.Header{}
	InjectHTTPHeaders(ctx, h)
	assert.NotEmpty(t, h.Get(TraceparentHeader))
	got := trace.SpanContextFromContext(ExtractHTTPHeaders(context.Background(), h))
	assert.Equal(t, want, got.TraceID())

	headers := InjectKafkaHeaders(ctx, []kafka.Header{{Key: "event_type", Value: []byte("x")}})
	got = trace.SpanContextFromContext(ExtractKafkaHeaders(context.Background(), headers))
	assert.Equal(t, want, got.TraceID())
}

func TestKafkaHeadersSetReplaces(t *testing.T) {
	headers := []kafka.Header{{Key: TraceparentHeader, Value: []byte("stale")}}
	c := kafkaHeaders{headers: &headers}
	c.Set(TraceparentHeader, "fresh")
	c.Set("tracestate", "x=1")

	assert.Len(t, headers, 2)
	assert.Equal(t, "fresh", c.Get(TraceparentHeader))
	assert.ElementsMatch(t, []string{TraceparentHeader, "tracestate"}, c.Keys())
	assert.Empty(t, c.Get("missing"))
}
