// pkg/telemetry/telemetry.go
package telemetry

import (
	"context"
	"io"
	"os"
	"path/filepath"

	cerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName is the instrumentation scope used for traces and metrics.
const ServiceName = "stretchsync"

var tracer trace.Tracer

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

// Init configures OpenTelemetry; call this early in main().
// When disabled a noop provider is installed. When enabled spans are written
// as JSON lines to w, or to the default telemetry file when w is nil.
func Init(service string, enabled bool, w io.Writer) (ShutdownFunc, error) {
	if !enabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		tracer = tp.Tracer(service)
		return func(context.Context) error { return nil }, nil
	}

	var closer io.Closer
	if w == nil {
		file, err := openTelemetryFile()
		if err != nil {
			return nil, err
		}
		w, closer = file, file
	}

	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, cerr.Wrap(err, "failed to create span exporter")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(
			sdkresource.NewWithAttributes(
				semconv.SchemaURL,
				attribute.String("service.name", service),
				attribute.String("host.name", hostname()),
			),
		),
	)

	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(service)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closer != nil {
			if cerrClose := closer.Close(); cerrClose != nil && err == nil {
				err = cerrClose
			}
		}
		return err
	}, nil
}

// Start a telemetry span with optional attributes.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	t := tracer
	if t == nil {
		t = otel.Tracer(ServiceName)
	}
	return t.Start(ctx, name, trace.WithAttributes(attrs...))
}

// NewOperationID returns a correlation id for one command or request.
func NewOperationID() string {
	return uuid.New().String()
}

func openTelemetryFile() (*os.File, error) {
	dir := filepath.Join(os.Getenv("HOME"), ".stretchsync", "telemetry")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, cerr.Wrap(err, "failed to create telemetry directory")
	}
	file, err := os.OpenFile(filepath.Join(dir, "telemetry.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to open telemetry file")
	}
	return file, nil
}

func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
