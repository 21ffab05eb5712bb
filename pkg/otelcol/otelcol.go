package otelcol

import (
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ProvideTrace builds a tracer provider around the given exporter. The
// service name ends up on every exported span so traces from the API
// server and the worker can be told apart in the collector.
func ProvideTrace(exporter trace.SpanExporter, serviceName string, opts ...trace.TracerProviderOption) *trace.TracerProvider {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		res = resource.Default()
	}

	opts = append(opts,
		trace.WithResource(res),
		trace.WithBatcher(exporter),
	)

	return trace.NewTracerProvider(opts...)
}
