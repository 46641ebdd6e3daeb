package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrModelKind   = "model.kind"
	AttrModelName   = "model.name"
	AttrLoaderName  = "loader.name"
	AttrSourceKind  = "source.kind"
	AttrSourceOrig  = "source.origin"
	AttrCacheResult = "cache.result"
)

// Span names.
const (
	SpanLoadProject = "loader.load_project"
	SpanLoadTypekit = "loader.load_typekit"
	SpanSourceRead  = "source.read"
)

// StartModelSpan starts a span describing a model load.
func StartModelSpan(ctx context.Context, tracer trace.Tracer, span, kind, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String(AttrModelKind, kind),
		attribute.String(AttrModelName, name),
	)
	return tracer.Start(ctx, span, trace.WithAttributes(attrs...))
}

// EndSpan records err, if any, and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
