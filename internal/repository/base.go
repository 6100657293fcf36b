// Package repository provides data access layer implementations for the blog.
//
// Read methods never fail: when the store is unconfigured or a statement
// errors they log, count a fallback and return an empty result. Writes
// surface their errors.
package repository

import (
	"context"
	"errors"
	"log/slog"

	"blog/internal/database"
	"blog/internal/middleware"
	"blog/internal/observability"
)

// fallback records a read that degraded to its empty result.
func fallback(ctx context.Context, operation string, err error) {
	reason := "error"
	if err == nil || errors.Is(err, database.ErrUnavailable) {
		reason = "unconfigured"
		middleware.Logger.WarnContext(ctx, "database not available, returning empty result",
			slog.String("operation", operation))
	} else {
		middleware.Logger.ErrorContext(ctx, "read failed, returning empty result",
			slog.String("operation", operation),
			slog.String("error", err.Error()))
	}
	observability.StoreFallbacks.WithLabelValues(operation, reason).Inc()
}

// nonNil keeps empty listings encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
