package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ToContext binds a logger to the context. Used by middlewares to propagate
// a request-scoped logger with base fields already attached.
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From extracts the logger bound to the context, falling back to the
// singleton, so From(ctx) is safe anywhere.
func From(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return L()
	}
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return L()
}
