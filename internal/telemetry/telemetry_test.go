package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestInit_DisabledInstallsNoop(t *testing.T) {
	require.NoError(t, Init(context.Background(), Options{}))

	_, ok := otel.GetTracerProvider().(tracenoop.TracerProvider)
	assert.True(t, ok, "expected no-op tracer provider, got %T", otel.GetTracerProvider())

	_, span := Tracer("").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, Shutdown(context.Background()))
}

func TestInit_StdoutExportsSpansOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	require.NoError(t, Init(ctx, Options{
		Enabled: true,
		Stdout:  true,
		Version: "test",
		Writer:  &buf,
	}))
	t.Cleanup(func() { _ = Init(ctx, Options{}) })

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	require.True(t, ok)

	_, span := Tracer("").Start(ctx, "transition.test")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, Shutdown(ctx))
	assert.Contains(t, buf.String(), "transition.test")
}
