package middlewares

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/strongjohn/internal/http/errors"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
	"github.com/dropDatabas3/strongjohn/internal/session"
)

// WithSession carga (o crea) el estado de sesión desde la cookie y lo inyecta
// en el contexto. Los controllers mutan el *State y persisten vía el Manager.
func WithSession(mgr *session.Manager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, err := mgr.Load(r.Context(), r)
			if err != nil {
				logger.From(r.Context()).Error("session load failed", logger.Err(err))
				errors.WriteError(w, errors.ErrInternal.WithCause(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(setSession(r.Context(), st)))
		})
	}
}

// RequireAuthenticated rechaza requests sin login completo.
// Una sesión en MfaPending NO cuenta como autenticada.
func RequireAuthenticated() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := GetSession(r.Context())
			if st == nil || !st.Authenticated() {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserTwoFactorChecker reporta si la cuenta tiene 2FA habilitado.
type UserTwoFactorChecker interface {
	IsTwoFactorEnabled(ctx context.Context, userID int64) (bool, error)
}

// RequireTwoFactorSatisfied es la barrera de segundo factor a nivel de ruta:
// un usuario autenticado cuya cuenta tiene 2FA habilitado pero cuya sesión no
// pasó el segundo factor queda afuera. Cubre sesiones emitidas antes de que la
// cuenta habilitara 2FA.
func RequireTwoFactorSatisfied(checker UserTwoFactorChecker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := GetSession(r.Context())
			if st == nil || !st.Authenticated() {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			if !st.TwoFactorPassed {
				enabled, err := checker.IsTwoFactorEnabled(r.Context(), st.UserID)
				if err != nil {
					errors.WriteError(w, errors.ErrInternal.WithCause(err))
					return
				}
				if enabled {
					errors.WriteError(w, errors.ErrTwoFactorRequired)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
