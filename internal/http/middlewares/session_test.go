package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropDatabas3/strongjohn/internal/session"
)

type stubChecker struct {
	enabled bool
	err     error
	gotCtx  context.Context
}

func (c *stubChecker) IsTwoFactorEnabled(ctx context.Context, userID int64) (bool, error) {
	c.gotCtx = ctx
	return c.enabled, c.err
}

func serveWith(mw Middleware, st *session.State) *httptest.ResponseRecorder {
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	r := httptest.NewRequest(http.MethodGet, "/v1/mfa/totp/setup", nil)
	if st != nil {
		r = r.WithContext(setSession(r.Context(), st))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestRequireAuthenticated(t *testing.T) {
	t.Parallel()
	mw := RequireAuthenticated()

	if rec := serveWith(mw, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no session: status %d, want 401", rec.Code)
	}
	if rec := serveWith(mw, &session.State{}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status %d, want 401", rec.Code)
	}
	// MfaPending NO es autenticado
	pending := &session.State{}
	pending.BeginMFA(7)
	if rec := serveWith(mw, pending); rec.Code != http.StatusUnauthorized {
		t.Fatalf("mfa pending: status %d, want 401", rec.Code)
	}

	authed := &session.State{}
	authed.CompleteSignIn(7, false)
	if rec := serveWith(mw, authed); rec.Code != http.StatusNoContent {
		t.Fatalf("authenticated: status %d, want 204", rec.Code)
	}
}

func TestRequireTwoFactorSatisfied(t *testing.T) {
	t.Parallel()

	authedWithout := func() *session.State {
		st := &session.State{}
		st.CompleteSignIn(7, false)
		return st
	}

	// cuenta sin 2FA: pasa aunque la sesión no lo haya satisfecho
	checker := &stubChecker{enabled: false}
	mw := RequireTwoFactorSatisfied(checker)
	if rec := serveWith(mw, authedWithout()); rec.Code != http.StatusNoContent {
		t.Fatalf("2FA off: status %d, want 204", rec.Code)
	}
	// el checker recibe el contexto del request, no uno suelto
	if checker.gotCtx == nil || GetSession(checker.gotCtx) == nil {
		t.Fatalf("checker did not receive the request context")
	}

	// cuenta con 2FA y sesión vieja sin el flag: afuera
	mw = RequireTwoFactorSatisfied(&stubChecker{enabled: true})
	if rec := serveWith(mw, authedWithout()); rec.Code != http.StatusUnauthorized {
		t.Fatalf("2FA on, flag off: status %d, want 401", rec.Code)
	}

	// sesión que sí pasó el segundo factor
	satisfied := &session.State{}
	satisfied.CompleteSignIn(7, true)
	if rec := serveWith(mw, satisfied); rec.Code != http.StatusNoContent {
		t.Fatalf("2FA satisfied: status %d, want 204", rec.Code)
	}

	// checker roto: error interno, nunca bypass
	mw = RequireTwoFactorSatisfied(&stubChecker{err: errors.New("db down")})
	if rec := serveWith(mw, authedWithout()); rec.Code != http.StatusInternalServerError {
		t.Fatalf("checker error: status %d, want 500", rec.Code)
	}

	if rec := serveWith(mw, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no session: status %d, want 401", rec.Code)
	}
}
