package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestSetup_Enabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{
		Enabled:     true,
		ServiceName: "gincore-test",
		Endpoint:    "localhost:4318",
		Insecure:    true,
		SampleRatio: 0.5,
	})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().TraceID().IsValid())
	span.End()

	// Коллектора нет, поэтому ошибка экспорта при shutdown допустима.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}

func TestNewResource(t *testing.T) {
	res := NewResource(Config{ServiceName: "gincore", Version: "1.2.3"})

	values := map[string]string{}
	for _, kv := range res.Attributes() {
		values[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, "gincore", values["service.name"])
	assert.Equal(t, "1.2.3", values["service.version"])
}

func TestSampleRatio(t *testing.T) {
	assert.Equal(t, 1.0, sampleRatio(0))
	assert.Equal(t, 1.0, sampleRatio(2))
	assert.Equal(t, 0.25, sampleRatio(0.25))
}
