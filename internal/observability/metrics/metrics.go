// Package metrics expone contadores Prometheus del flujo de autenticación.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LoginAttempts cuenta intentos de login por resultado.
	// result: "success" | "mfa_pending" | "failed"
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "strongjohn",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Password login attempts by result.",
	}, []string{"result"})

	// MFAVerifications cuenta verificaciones de segundo factor.
	// method: "totp" | "recovery" | "webauthn"
	MFAVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "strongjohn",
		Subsystem: "auth",
		Name:      "mfa_verifications_total",
		Help:      "Second-factor verifications by method and result.",
	}, []string{"method", "result"})

	// WebAuthnCeremonies cuenta ceremonias por tipo y fase.
	// ceremony: "register" | "login" | "passwordless" | "confirm"
	// phase: "options" | "verify"
	WebAuthnCeremonies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "strongjohn",
		Subsystem: "webauthn",
		Name:      "ceremonies_total",
		Help:      "WebAuthn ceremonies by type, phase and result.",
	}, []string{"ceremony", "phase", "result"})

	// RecoveryCodesConsumed cuenta códigos de recuperación gastados.
	RecoveryCodesConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "strongjohn",
		Subsystem: "auth",
		Name:      "recovery_codes_consumed_total",
		Help:      "Recovery codes consumed during sign-in.",
	})

	// SecurityConfirmations cuenta reconfirmaciones de sesión.
	SecurityConfirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "strongjohn",
		Subsystem: "auth",
		Name:      "security_confirmations_total",
		Help:      "Security confirmation attempts by method and result.",
	}, []string{"method", "result"})

	// HTTPDuration mide latencia por ruta.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "strongjohn",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"route", "method", "status"})
)

// Handler devuelve el endpoint /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
