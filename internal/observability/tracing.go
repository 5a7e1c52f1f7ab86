// Package observability provides OpenTelemetry integration for
// distributed tracing. Spans from Genkit's model and embedding calls
// are exported over OTLP HTTP to whatever collector the endpoint
// points at (Jaeger, Grafana Tempo, a vendor agent, ...).
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config for OTLP trace export.
type Config struct {
	// Endpoint is the OTLP HTTP host:port, e.g. "localhost:4318".
	Endpoint string
	// ServiceName is the service name reported on every span.
	ServiceName string
}

// Setup registers an OTLP exporter with Genkit's TracerProvider. It
// must run before genkit.Init so the model call spans reach the
// processor.
//
// Returns a shutdown function that flushes pending spans. Export setup
// failure disables tracing but never fails startup.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if cfg.ServiceName != "" {
		// Genkit's TracerProvider reads the service name from the env.
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		slog.Warn("failed to create OTLP exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	slog.Debug("tracing enabled", "endpoint", cfg.Endpoint, "service", cfg.ServiceName)

	return tracing.TracerProvider().Shutdown, nil
}
