// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Tracing instruments requests with OpenTelemetry spans via otelhttp, which
// also handles W3C trace context propagation (traceparent/tracestate).
//
// Span names use the normalized route, not the raw path, so every quest
// detail request rolls up under "GET /quests/{id}" instead of producing one
// span name per quest.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + normalizePath(r.URL.Path)
			}),
		)
	}
}

// GetTraceID returns the active trace ID for the request, or "" when no
// span is recording (tracing disabled or middleware not installed).
func GetTraceID(r *http.Request) string {
	sc := trace.SpanContextFromContext(r.Context())
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
