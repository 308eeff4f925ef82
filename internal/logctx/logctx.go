// Package logctx carries a request-scoped *slog.Logger through context.Context.
package logctx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into stores the logger in ctx.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the logger stored in ctx, or slog.Default().
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
