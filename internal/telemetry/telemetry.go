// Package telemetry sets up OpenTelemetry tracing for a run.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span of a run.
const TracerName = "github.com/datar-psa/medeval"

// Attribute keys
const (
	AttrRunID  = attribute.Key("medeval.run_id")
	AttrTask   = attribute.Key("medeval.task")
	AttrCorpus = attribute.Key("medeval.corpus")
	AttrMetric = attribute.Key("medeval.metric")
	AttrItems  = attribute.Key("medeval.items")
)

// Setup installs a tracer provider exporting to w and returns its shutdown
// function. When enabled is false the global no-op provider is kept.
func Setup(enabled bool, w io.Writer) (func(context.Context) error, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", "medeval"))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the run tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// HTTPClient wraps base so that every outgoing request gets a client span.
func HTTPClient(base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	wrapped := *base
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	wrapped.Transport = otelhttp.NewTransport(transport)
	return &wrapped
}
