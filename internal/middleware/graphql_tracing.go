package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"blogql/internal/logging"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// GraphQLTracingMiddleware instruments GraphQL execution with an inner span.
func GraphQLTracingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query, operationName := readGraphQLQuery(r)
			if strings.TrimSpace(query) == "" {
				next.ServeHTTP(w, r)
				return
			}

			tracer := otel.Tracer("blogql/graphql")
			ctx, span := tracer.Start(r.Context(), "graphql.execute")
			defer span.End()
			if spanCtx := span.SpanContext(); spanCtx.IsValid() {
				reqLogger := logging.FromContext(ctx).WithFields(
					slog.String("trace_id", spanCtx.TraceID().String()),
					slog.String("span_id", spanCtx.SpanID().String()),
				)
				ctx = logging.WithLogger(ctx, reqLogger)
			}

			if span.IsRecording() {
				attrs := []attribute.KeyValue{
					attribute.Int("graphql.document.length", len(query)),
				}
				if operationName != "" {
					attrs = append(attrs, attribute.String("graphql.operation.name", operationName))
				}
				if stats, err := analyzeDocument(query, operationName); err == nil && stats != nil {
					attrs = append(attrs,
						attribute.String("graphql.operation.type", stats.operation),
						attribute.Int("graphql.document.field_count", stats.fields),
						attribute.Int("graphql.document.depth", stats.depth),
						attribute.Int("graphql.document.variable_count", stats.variables),
					)
				}
				span.SetAttributes(attrs...)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
