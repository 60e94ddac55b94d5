package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCorrelationID is the standardized structured logging key for query correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldSeries is the standardized structured logging key for series titles.
	FieldSeries = "series"
	// FieldSeason is the standardized structured logging key for season numbers.
	FieldSeason = "season"
	// FieldEpisode is the standardized structured logging key for episode numbers.
	FieldEpisode = "episode"
	// FieldMethod is the standardized structured logging key for the matching method that resolved a query.
	FieldMethod = "method"
	// FieldVariant is the standardized structured logging key for normalized text variant names.
	FieldVariant = "variant"
)

type correlationIDKey struct{}

// WithCorrelationID stores a query correlation identifier on the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the correlation identifier carried by ctx, if any.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(correlationIDKey{}).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 1)
	if id, ok := CorrelationIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
