// Package auth contiene los controllers del flujo de autenticación.
package auth

import (
	"encoding/json"
	"net/http"

	httperrors "github.com/dropDatabas3/strongjohn/internal/http/errors"
	"github.com/dropDatabas3/strongjohn/internal/http/middlewares"
	svc "github.com/dropDatabas3/strongjohn/internal/http/services/auth"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
	"github.com/dropDatabas3/strongjohn/internal/session"
)

const (
	maxBodySize     = 256 * 1024 // attestations con certificados pueden ser grandes
	contentTypeJSON = "application/json; charset=utf-8"
)

// Controllers agrupa los controllers del dominio auth para el router.
type Controllers struct {
	Login    *LoginController
	MFA      *MFAController
	WebAuthn *WebAuthnController
	Confirm  *ConfirmController
}

// decodeJSON parsea el body JSON con límite de tamaño.
func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return httperrors.ErrInvalidJSON
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// mapServiceError traduce sentinels de la capa de servicios al catálogo HTTP.
func mapServiceError(err error) error {
	switch err {
	case svc.ErrInvalidCredentials:
		return httperrors.ErrInvalidCredentials
	case svc.ErrMissingCeremonyPayload:
		return httperrors.ErrMissingCeremonyPayload
	case svc.ErrCredentialNotFound:
		return httperrors.ErrCredentialNotFound
	case svc.ErrVerificationFailed:
		return httperrors.ErrVerificationFailed
	case svc.ErrSecretNotConfigured:
		return httperrors.ErrSecretNotConfigured
	case svc.ErrCodeInvalid:
		return httperrors.ErrCodeInvalid
	case svc.ErrAlreadyEnabled:
		return httperrors.ErrAlreadyEnabled
	case svc.ErrNotEnabled:
		return httperrors.ErrNotEnabled
	case svc.ErrConfirmationRequired:
		return httperrors.ErrConfirmationRequired
	case svc.ErrTwoFactorRequired:
		return httperrors.ErrTwoFactorRequired
	case svc.ErrUserNotFound:
		return httperrors.ErrNotFound
	default:
		return httperrors.ErrInternal.WithCause(err)
	}
}

// sessionFrom saca la sesión del contexto; si no está, el middleware no
// corrió y es un bug de wiring.
func sessionFrom(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	st := middlewares.GetSession(r.Context())
	if st == nil {
		logger.From(r.Context()).Error("session middleware missing")
		httperrors.WriteError(w, httperrors.ErrInternal)
		return nil, false
	}
	return st, true
}

// saveSession persiste el estado mutado y refresca la cookie.
func saveSession(w http.ResponseWriter, r *http.Request, mgr *session.Manager, st *session.State) bool {
	if err := mgr.Save(r.Context(), st); err != nil {
		logger.From(r.Context()).Error("session save failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		return false
	}
	mgr.WriteCookie(w, st)
	return true
}
