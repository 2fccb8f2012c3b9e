package utils

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceOperation traces an operation with timing and attributes
func TraceOperation(ctx context.Context, operationName string, attributes map[string]interface{}) (context.Context, trace.Span, func()) {
	start := time.Now()

	// Convert attributes to OpenTelemetry attributes
	otelAttrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			otelAttrs = append(otelAttrs, attribute.String(k, val))
		case int:
			otelAttrs = append(otelAttrs, attribute.Int(k, val))
		case int64:
			otelAttrs = append(otelAttrs, attribute.Int64(k, val))
		case bool:
			otelAttrs = append(otelAttrs, attribute.Bool(k, val))
		case float64:
			otelAttrs = append(otelAttrs, attribute.Float64(k, val))
		default:
			otelAttrs = append(otelAttrs, attribute.String(k, "unknown_type"))
		}
	}

	spanCtx, span := otel.Tracer("quote-api").Start(ctx, operationName, trace.WithAttributes(otelAttrs...))

	cleanup := func() {
		duration := time.Since(start)
		span.SetAttributes(
			attribute.Int64("duration_ms", duration.Milliseconds()),
			attribute.String("duration", duration.String()),
		)
		span.End()
	}

	return spanCtx, span, cleanup
}

// TraceDatabaseOperation traces a database operation
func TraceDatabaseOperation(ctx context.Context, operation, collection string, filter interface{}) (context.Context, trace.Span, func()) {
	attributes := map[string]interface{}{
		"db.operation":  operation,
		"db.collection": collection,
		"db.system":     "mongodb",
	}

	if filter != nil {
		attributes["db.filter"] = "present"
	}

	return TraceOperation(ctx, "db."+operation, attributes)
}

// TraceCacheOperation traces a cache operation
func TraceCacheOperation(ctx context.Context, operation, key string) (context.Context, trace.Span, func()) {
	attributes := map[string]interface{}{
		"cache.operation": operation,
		"cache.key":       key,
		"cache.system":    "redis",
	}

	return TraceOperation(ctx, "cache."+operation, attributes)
}

// TraceStorageOperation traces an object storage operation
func TraceStorageOperation(ctx context.Context, operation, bucket, key string) (context.Context, trace.Span, func()) {
	attributes := map[string]interface{}{
		"storage.operation": operation,
		"storage.bucket":    bucket,
		"storage.key":       key,
		"storage.system":    "s3",
	}

	return TraceOperation(ctx, "storage."+operation, attributes)
}

// TraceHTTPOperation traces an outbound HTTP operation
func TraceHTTPOperation(ctx context.Context, method, url, route string) (context.Context, trace.Span, func()) {
	attributes := map[string]interface{}{
		"http.method": method,
		"http.url":    url,
		"http.route":  route,
	}

	return TraceOperation(ctx, "http."+method, attributes)
}

// TraceEndpointStep traces a specific step within an endpoint
func TraceEndpointStep(ctx context.Context, stepName string, attributes map[string]interface{}) (context.Context, trace.Span) {
	stepAttributes := map[string]interface{}{
		"step.name": stepName,
		"step.type": "endpoint_operation",
	}

	for k, v := range attributes {
		stepAttributes[k] = v
	}

	spanCtx, span, _ := TraceOperation(ctx, "step."+stepName, stepAttributes)
	return spanCtx, span
}
