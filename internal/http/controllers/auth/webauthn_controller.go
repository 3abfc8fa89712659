package auth

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/strongjohn/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/strongjohn/internal/http/errors"
	svc "github.com/dropDatabas3/strongjohn/internal/http/services/auth"
	"github.com/dropDatabas3/strongjohn/internal/session"
)

// WebAuthnController maneja registro de passkeys, sign-in passwordless y la
// administración de credenciales propias.
type WebAuthnController struct {
	webauthn *svc.WebAuthnService
	login    *svc.LoginService
	confirm  *svc.ConfirmService
	sessions *session.Manager
}

func NewWebAuthnController(webauthn *svc.WebAuthnService, login *svc.LoginService, confirm *svc.ConfirmService, sessions *session.Manager) *WebAuthnController {
	return &WebAuthnController{webauthn: webauthn, login: login, confirm: confirm, sessions: sessions}
}

// BeginRegistration maneja POST /v1/webauthn/register/options
func (c *WebAuthnController) BeginRegistration(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if err := c.confirm.EnsureConfirmed(st); err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}

	options, err := c.webauthn.BeginRegistration(r.Context(), st, st.UserID)
	if err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}
	if !saveSession(w, r, c.sessions, st) {
		return
	}
	writeJSON(w, http.StatusOK, dto.CeremonyOptionsResponse{Options: options})
}

// FinishRegistration maneja POST /v1/webauthn/register/verify
func (c *WebAuthnController) FinishRegistration(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if err := c.confirm.EnsureConfirmed(st); err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}

	var req dto.CeremonyVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	// Persistir la sesión incluso si la verificación falla: el challenge ya
	// fue consumido y no debe sobrevivir para un reintento.
	cred, svcErr := c.webauthn.FinishRegistration(r.Context(), st, st.UserID, req.Payload, req.FriendlyName)
	if !saveSession(w, r, c.sessions, st) {
		return
	}
	if svcErr != nil {
		httperrors.WriteError(w, mapServiceError(svcErr))
		return
	}
	writeJSON(w, http.StatusOK, dto.RegisterVerifyResponse{
		Registered:   true,
		CredentialID: cred.CredentialID,
	})
}

// BeginPasswordless maneja POST /v1/auth/passwordless/options
// Forma uniforme: options null cuando no hay passkeys utilizables, sin
// revelar si la cuenta existe.
func (c *WebAuthnController) BeginPasswordless(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req dto.PasswordlessBeginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Email == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email"))
		return
	}

	resp, err := c.login.CheckEmail(r.Context(), st, req.Email)
	if err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}
	if !saveSession(w, r, c.sessions, st) {
		return
	}
	writeJSON(w, http.StatusOK, dto.CeremonyOptionsResponse{Options: resp.WebAuthnOptions})
}

// ListCredentials maneja GET /v1/webauthn/credentials
func (c *WebAuthnController) ListCredentials(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	creds, err := c.webauthn.ListCredentials(r.Context(), st.UserID)
	if err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}

	out := dto.CredentialListResponse{Credentials: make([]dto.CredentialSummary, 0, len(creds))}
	for _, cred := range creds {
		out.Credentials = append(out.Credentials, dto.CredentialSummary{
			CredentialID: cred.CredentialID,
			FriendlyName: cred.FriendlyName,
			DeviceType:   cred.DeviceType,
			BackedUp:     cred.BackedUp,
			CreatedAt:    cred.CreatedAt.UTC().Format(time.RFC3339),
			LastUsedAt:   cred.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// RenameCredential maneja PATCH /v1/webauthn/credentials/{id}
func (c *WebAuthnController) RenameCredential(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("invalid credential id"))
		return
	}

	var req dto.CredentialRenameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.FriendlyName == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("friendly_name"))
		return
	}

	if err := c.webauthn.RenameCredential(r.Context(), st.UserID, id, req.FriendlyName); err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RemoveCredential maneja DELETE /v1/webauthn/credentials/{id}
func (c *WebAuthnController) RemoveCredential(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if err := c.confirm.EnsureConfirmed(st); err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("invalid credential id"))
		return
	}

	if err := c.webauthn.RemoveCredential(r.Context(), st.UserID, id); err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
