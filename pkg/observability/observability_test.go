package observability

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestMetricsHandlerExposesInstruments(t *testing.T) {
	m, err := NewMetrics("command-bot-test")
	require.NoError(t, err)
	defer func() { _ = m.Shutdown(context.Background()) }()

	ctx := context.Background()
	m.CommandsDispatched.Add(ctx, 2, metric.WithAttributes(attribute.String("command", "ping")))
	m.MessagesCached.Add(ctx, 1)
	require.NoError(t, m.ObserveStoreSize(func() int64 { return 42 }))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "bot_commands_dispatched_total")
	assert.Contains(t, body, `command="ping"`)
	assert.Contains(t, body, "bot_messages_cached_total")
	assert.Regexp(t, `bot_store_size\{[^}]*\} 42`, body)
}

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(TracingConfig{ServiceName: "x"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupTracingWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := SetupTracing(TracingConfig{ServiceName: "command-bot-test", Enabled: true, Output: &buf})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "dispatch")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"dispatch"`)
}
