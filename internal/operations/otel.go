package operations

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for batch spans
const TracerName = "expenditure.operations"

func tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// traceBatch creates a span for a whole batch
func traceBatch(ctx context.Context, files, workers int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "batch.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("batch.files", files),
			attribute.Int("batch.workers", workers),
		),
	)
}

// traceFile creates a span for one file of a batch
func traceFile(ctx context.Context, filename, category string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "batch.file",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("file.name", filename),
			attribute.String("file.category", category),
		),
	)
}

// endFile closes a file span with the outcome's result
func endFile(span trace.Span, outcome FileOutcome) {
	if outcome.Skip != nil {
		span.SetAttributes(attribute.String("file.skip_kind", string(outcome.Skip.Kind)))
		span.SetStatus(codes.Error, outcome.Skip.Reason)
	} else if outcome.Table != nil {
		span.SetAttributes(
			attribute.Int("file.records", len(outcome.Table.Records)),
			attribute.Int("file.imputed", outcome.Table.Summary.Imputed),
			attribute.Int("file.anomalies", len(outcome.Anomalies)),
		)
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
