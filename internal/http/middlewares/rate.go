package middlewares

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dropDatabas3/strongjohn/internal/http/errors"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
	"github.com/dropDatabas3/strongjohn/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPRateKey agrupa por IP de cliente y path.
func IPRateKey(r *http.Request) string {
	return clientIP(r) + "|" + r.URL.Path
}

// WithRateLimit aplica un limitador con la clave dada.
// Fail-open: si el backend del limitador falla, el request pasa.
func WithRateLimit(lim rate.Limiter, keyFn RateKeyFunc) Middleware {
	if keyFn == nil {
		keyFn = IPRateKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := lim.Allow(r.Context(), keyFn(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter backend error", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter.Seconds())))
				w.Header().Set("X-RateLimit-Remaining", "0")
				errors.WriteError(w, errors.ErrRateLimited)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
