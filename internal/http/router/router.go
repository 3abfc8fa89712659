// Package router arma el árbol de rutas y las cadenas de middlewares.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminctrl "github.com/dropDatabas3/strongjohn/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/strongjohn/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/strongjohn/internal/http/controllers/health"
	mw "github.com/dropDatabas3/strongjohn/internal/http/middlewares"
	"github.com/dropDatabas3/strongjohn/internal/observability/metrics"
	"github.com/dropDatabas3/strongjohn/internal/rate"
	"github.com/dropDatabas3/strongjohn/internal/session"
)

// Deps contiene todo lo que el router necesita cableado.
type Deps struct {
	Sessions *session.Manager

	Auth   *authctrl.Controllers
	Health *healthctrl.Controller
	Admin  *adminctrl.UsersController

	// TwoFactorChecker alimenta la barrera de segundo factor de las rutas
	// autenticadas.
	TwoFactorChecker mw.UserTwoFactorChecker

	// Limiters por endpoint; nil = sin límite.
	LoginLimiter   rate.Limiter
	MFALimiter     rate.Limiter
	ConfirmLimiter rate.Limiter

	CORSAllowedOrigins []string
}

// New construye el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Cadena base: primero recover, después request id y logging.
	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(mw.WithSecurityHeaders())
	if len(deps.CORSAllowedOrigins) > 0 {
		r.Use(mw.WithCORS(deps.CORSAllowedOrigins))
	}

	// Observabilidad y salud, fuera de toda sesión.
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	rateLimit := func(lim rate.Limiter) func(http.Handler) http.Handler {
		if lim == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return mw.WithRateLimit(lim, nil)
	}

	// Sign-in: sesión cargada, sin requisito de autenticación, no-store.
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		r.Use(mw.WithSession(deps.Sessions))

		r.With(rateLimit(deps.LoginLimiter)).Post("/v1/auth/check-email", deps.Auth.Login.CheckEmail)
		r.With(rateLimit(deps.LoginLimiter)).Post("/v1/auth/login", deps.Auth.Login.Login)
		r.With(rateLimit(deps.MFALimiter)).Post("/v1/auth/2fa/verify", deps.Auth.Login.VerifyTwoFactor)
		r.With(rateLimit(deps.LoginLimiter)).Post("/v1/auth/passwordless/options", deps.Auth.WebAuthn.BeginPasswordless)
		r.With(rateLimit(deps.LoginLimiter)).Post("/v1/auth/passwordless/verify", deps.Auth.Login.FinishPasswordless)
		r.Post("/v1/auth/logout", deps.Auth.Login.Logout)
		r.Get("/v1/session", deps.Auth.Login.SessionInfo)
	})

	// Surface autenticado: login completo + segundo factor satisfecho.
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		r.Use(mw.WithSession(deps.Sessions))
		r.Use(mw.RequireAuthenticated())
		r.Use(mw.RequireTwoFactorSatisfied(deps.TwoFactorChecker))

		// Confirmación de seguridad
		r.With(rateLimit(deps.ConfirmLimiter)).Post("/v1/session/confirm-security", deps.Auth.Confirm.Confirm)
		r.Post("/v1/session/confirm-security/options", deps.Auth.Confirm.BeginWebAuthn)

		// TOTP y recovery codes (el guard de confirmación corre adentro)
		r.Post("/v1/mfa/totp/setup", deps.Auth.MFA.Setup)
		r.With(rateLimit(deps.MFALimiter)).Post("/v1/mfa/totp/enable", deps.Auth.MFA.Enable)
		r.Post("/v1/mfa/totp/disable", deps.Auth.MFA.Disable)
		r.Post("/v1/mfa/recovery/rotate", deps.Auth.MFA.RotateRecovery)

		// Passkeys
		r.Post("/v1/webauthn/register/options", deps.Auth.WebAuthn.BeginRegistration)
		r.Post("/v1/webauthn/register/verify", deps.Auth.WebAuthn.FinishRegistration)
		r.Get("/v1/webauthn/credentials", deps.Auth.WebAuthn.ListCredentials)
		r.Patch("/v1/webauthn/credentials/{id}", deps.Auth.WebAuthn.RenameCredential)
		r.Delete("/v1/webauthn/credentials/{id}", deps.Auth.WebAuthn.RemoveCredential)
	})

	// Admin: basic auth de operador, sin sesión de usuario.
	if deps.Admin != nil {
		r.Group(func(r chi.Router) {
			r.Use(mw.WithNoStore())
			r.Post("/v1/admin/users", deps.Admin.Create)
			r.Get("/v1/admin/users", deps.Admin.List)
			r.Get("/v1/admin/users/{id}/credentials", deps.Admin.Credentials)
		})
	}

	return r
}
