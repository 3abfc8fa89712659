package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dropDatabas3/strongjohn/internal/rate"
)

type brokenLimiter struct{}

func (brokenLimiter) Allow(ctx context.Context, key string) (rate.Result, error) {
	return rate.Result{}, errors.New("backend down")
}

func hit(h http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	r.RemoteAddr = "203.0.113.9:4321"
	h.ServeHTTP(rec, r)
	return rec
}

func TestWithRateLimit_BlocksOverLimit(t *testing.T) {
	t.Parallel()
	h := WithRateLimit(rate.NewMemoryLimiter(2, time.Hour), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	for i := 0; i < 2; i++ {
		if rec := hit(h); rec.Code != http.StatusNoContent {
			t.Fatalf("hit %d: status %d, want 204", i+1, rec.Code)
		}
	}
	rec := hit(h)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over limit: status %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("429 without Retry-After")
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("remaining header = %q, want 0", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestWithRateLimit_FailOpen(t *testing.T) {
	t.Parallel()
	h := WithRateLimit(brokenLimiter{}, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	// backend caído: el request pasa igual
	if rec := hit(h); rec.Code != http.StatusNoContent {
		t.Fatalf("fail-open: status %d, want 204", rec.Code)
	}
}
