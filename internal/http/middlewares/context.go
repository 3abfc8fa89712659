package middlewares

import (
	"context"

	"github.com/dropDatabas3/strongjohn/internal/session"
)

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxSessionKey   ctxKey = "session"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}

func setSession(ctx context.Context, st *session.State) context.Context {
	return context.WithValue(ctx, ctxSessionKey, st)
}

// GetSession obtiene el estado de sesión cargado por WithSession.
// Devuelve nil si el middleware no corrió.
func GetSession(ctx context.Context) *session.State {
	if v, ok := ctx.Value(ctxSessionKey).(*session.State); ok {
		return v
	}
	return nil
}
