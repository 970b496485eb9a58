package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestGetTracer(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
		_ = tp.Shutdown(context.Background())
	})

	_, span := GetTracer().Start(context.Background(), "fetcher.FetchJSON")
	span.SetAttributes(attribute.String("http.url", "https://api.figma.com/v1/files/abc"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "fetcher.FetchJSON", spans[0].Name)

	var found bool
	for _, attr := range spans[0].Attributes {
		if attr.Key == "http.url" {
			found = true
			assert.Equal(t, "https://api.figma.com/v1/files/abc", attr.Value.AsString())
		}
	}
	assert.True(t, found, "http.url attribute missing")
}
