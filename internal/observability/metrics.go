package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GraphQLMetrics holds custom metrics for GraphQL operations
type GraphQLMetrics struct {
	requestDuration  metric.Float64Histogram
	requestCounter   metric.Int64Counter
	errorCounter     metric.Int64Counter
	activeRequests   metric.Int64UpDownCounter
	includeParents   metric.Int64Histogram
	includeRows      metric.Int64Histogram
	transformedBlobs metric.Int64Counter
}

// InitGraphQLMetrics initializes GraphQL-specific metrics
func InitGraphQLMetrics() (*GraphQLMetrics, error) {
	meter := otel.Meter("blogql")

	requestDuration, err := meter.Float64Histogram(
		"graphql.request.duration",
		metric.WithDescription("Duration of GraphQL requests in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	requestCounter, err := meter.Int64Counter(
		"graphql.requests.total",
		metric.WithDescription("Total number of GraphQL requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"graphql.errors.total",
		metric.WithDescription("Total number of GraphQL errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"graphql.requests.active",
		metric.WithDescription("Number of active GraphQL requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active requests counter: %w", err)
	}

	includeParents, err := meter.Int64Histogram(
		"graphql.include.parent_count",
		metric.WithDescription("Number of parent records covered by a batched include query"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create include parent count histogram: %w", err)
	}

	includeRows, err := meter.Int64Histogram(
		"graphql.include.result_rows",
		metric.WithDescription("Number of rows returned by a batched include query"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create include result rows histogram: %w", err)
	}

	transformedBlobs, err := meter.Int64Counter(
		"graphql.transform.images_encoded",
		metric.WithDescription("Number of image blobs base64-encoded into responses"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create image encode counter: %w", err)
	}

	return &GraphQLMetrics{
		requestDuration:  requestDuration,
		requestCounter:   requestCounter,
		errorCounter:     errorCounter,
		activeRequests:   activeRequests,
		includeParents:   includeParents,
		includeRows:      includeRows,
		transformedBlobs: transformedBlobs,
	}, nil
}

// RecordRequest records a GraphQL request with its duration and outcome
func (m *GraphQLMetrics) RecordRequest(ctx context.Context, duration time.Duration, hasErrors bool, operationType string) {
	attrs := []attribute.KeyValue{
		attribute.String("operation_type", operationType),
		attribute.Bool("has_errors", hasErrors),
	}

	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if hasErrors {
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation_type", operationType),
		))
	}
}

// RecordIncludeBatch records the shape of one batched relation fetch.
func (m *GraphQLMetrics) RecordIncludeBatch(ctx context.Context, relation string, parents, rows int64) {
	attrs := metric.WithAttributes(attribute.String("relation", relation))
	m.includeParents.Record(ctx, parents, attrs)
	m.includeRows.Record(ctx, rows, attrs)
}

// RecordImagesEncoded counts image blobs that were base64-encoded for a response.
func (m *GraphQLMetrics) RecordImagesEncoded(ctx context.Context, count int64) {
	if count <= 0 {
		return
	}
	m.transformedBlobs.Add(ctx, count)
}

// IncrementActiveRequests increments the active requests counter
func (m *GraphQLMetrics) IncrementActiveRequests(ctx context.Context) {
	m.activeRequests.Add(ctx, 1)
}

// DecrementActiveRequests decrements the active requests counter
func (m *GraphQLMetrics) DecrementActiveRequests(ctx context.Context) {
	m.activeRequests.Add(ctx, -1)
}

// InitMetrics initializes all custom metrics and returns the GraphQLMetrics instance
func InitMetrics(logger *slog.Logger) (*GraphQLMetrics, error) {
	metrics, err := InitGraphQLMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GraphQL metrics: %w", err)
	}

	logger.Info("custom GraphQL metrics initialized")
	return metrics, nil
}

type graphQLMetricsContextKey struct{}

// ContextWithGraphQLMetrics stores GraphQL metrics in the provided context.
func ContextWithGraphQLMetrics(ctx context.Context, metrics *GraphQLMetrics) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, graphQLMetricsContextKey{}, metrics)
}

// GraphQLMetricsFromContext retrieves GraphQL metrics from the context.
func GraphQLMetricsFromContext(ctx context.Context) *GraphQLMetrics {
	if ctx == nil {
		return nil
	}
	metrics, _ := ctx.Value(graphQLMetricsContextKey{}).(*GraphQLMetrics)
	return metrics
}
