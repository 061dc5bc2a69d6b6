// Package tracex wires OpenTelemetry tracing for optsim. Until Init is
// called the global provider is a no-op, so spans cost nothing.
package tracex

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/rustyeddy/optsim"

// Init installs a global tracer provider that writes spans as JSON to w.
// The returned func flushes pending spans and must be called before exit.
func Init(ctx context.Context, w io.Writer, service, version string) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(service),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the optsim tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentation)
}

// OrGlobal returns t, or the global optsim tracer when t is nil.
func OrGlobal(t trace.Tracer) trace.Tracer {
	if t == nil {
		return Tracer()
	}
	return t
}
