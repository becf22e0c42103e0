// Package tracing provides OpenTelemetry setup and span helpers.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer names used by the span helpers. Spans from the store layer are kept
// separate from scoring spans so backends can group them independently.
const (
	tracerName   = "questboard"
	dbTracerName = "questboard/db"
)

// DBOperation names the kind of statement a database span covers.
type DBOperation string

const (
	DBOperationQuery  DBOperation = "query"
	DBOperationInsert DBOperation = "insert"
)

// StartDBSpan opens a client span for a database operation, named
// "<operation> <table>". The returned func ends the span, recording err when
// it is non-nil:
//
//	ctx, endSpan := tracing.StartDBSpan(ctx, "quests", tracing.DBOperationQuery)
//	defer func() { endSpan(err) }()
func StartDBSpan(ctx context.Context, table string, operation DBOperation) (context.Context, func(error)) {
	name := string(operation)
	if table != "" {
		name += " " + table
	}

	attrs := []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", string(operation)),
	}
	if table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", table))
	}

	ctx, span := otel.Tracer(dbTracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, endFunc(span)
}

// StartSpan opens an internal span for a scoring or service operation. The
// returned func ends the span, recording err when it is non-nil.
func StartSpan(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	return ctx, endFunc(span)
}

func endFunc(span trace.Span) func(error) {
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// SetAttributes sets attributes on the span active in ctx, if any.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
