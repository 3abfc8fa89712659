package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/strongjohn/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/strongjohn/internal/http/errors"
	svc "github.com/dropDatabas3/strongjohn/internal/http/services/auth"
	"github.com/dropDatabas3/strongjohn/internal/session"
)

// ConfirmController maneja la reconfirmación de identidad de la sesión.
type ConfirmController struct {
	confirm  *svc.ConfirmService
	sessions *session.Manager
}

func NewConfirmController(confirm *svc.ConfirmService, sessions *session.Manager) *ConfirmController {
	return &ConfirmController{confirm: confirm, sessions: sessions}
}

// BeginWebAuthn maneja POST /v1/session/confirm-security/options
func (c *ConfirmController) BeginWebAuthn(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	options, err := c.confirm.BeginWebAuthn(r.Context(), st, st.UserID)
	if err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}
	if !saveSession(w, r, c.sessions, st) {
		return
	}
	writeJSON(w, http.StatusOK, dto.CeremonyOptionsResponse{Options: options})
}

// Confirm maneja POST /v1/session/confirm-security
func (c *ConfirmController) Confirm(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req dto.ConfirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	// Persistir la sesión incluso si la confirmación falla: si vino por
	// assertion el challenge ya fue consumido y no debe sobrevivir.
	svcErr := c.confirm.Confirm(r.Context(), st, st.UserID, req.Password, req.Payload)
	if !saveSession(w, r, c.sessions, st) {
		return
	}
	if svcErr != nil {
		httperrors.WriteError(w, mapServiceError(svcErr))
		return
	}
	writeJSON(w, http.StatusOK, dto.ConfirmResponse{
		Confirmed:        true,
		ExpiresInSeconds: int(session.ConfirmationWindow.Seconds()),
	})
}
