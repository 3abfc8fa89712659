package auth

import (
	"encoding/base64"
	"net/http"

	dto "github.com/dropDatabas3/strongjohn/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/strongjohn/internal/http/errors"
	svc "github.com/dropDatabas3/strongjohn/internal/http/services/auth"
	"github.com/dropDatabas3/strongjohn/internal/session"
)

// MFAController maneja el ciclo de vida TOTP y los recovery codes.
// Todas las mutaciones pasan por el guard de confirmación de seguridad.
type MFAController struct {
	totp     *svc.TOTPService
	confirm  *svc.ConfirmService
	sessions *session.Manager
}

func NewMFAController(totp *svc.TOTPService, confirm *svc.ConfirmService, sessions *session.Manager) *MFAController {
	return &MFAController{totp: totp, confirm: confirm, sessions: sessions}
}

// Setup maneja POST /v1/mfa/totp/setup
func (c *MFAController) Setup(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if err := c.confirm.EnsureConfirmed(st); err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}

	enr, err := c.totp.Setup(r.Context(), st.UserID)
	if err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}
	writeJSON(w, http.StatusOK, dto.TOTPSetupResponse{
		Secret:      enr.SecretBase32,
		URI:         enr.URI,
		QRPNGBase64: base64.StdEncoding.EncodeToString(enr.QRPNG),
	})
}

// Enable maneja POST /v1/mfa/totp/enable
func (c *MFAController) Enable(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if err := c.confirm.EnsureConfirmed(st); err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}

	var req dto.TOTPEnableRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Code == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("code"))
		return
	}

	codes, err := c.totp.Enable(r.Context(), st.UserID, req.Code)
	if err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}

	// la sesión que habilitó 2FA ya probó posesión del authenticator
	st.TwoFactorPassed = true
	if !saveSession(w, r, c.sessions, st) {
		return
	}
	writeJSON(w, http.StatusOK, dto.TOTPEnableResponse{Enabled: true, RecoveryCodes: codes})
}

// Disable maneja POST /v1/mfa/totp/disable
func (c *MFAController) Disable(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if err := c.confirm.EnsureConfirmed(st); err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}

	if err := c.totp.Disable(r.Context(), st.UserID); err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}

	st.TwoFactorPassed = false
	if !saveSession(w, r, c.sessions, st) {
		return
	}
	writeJSON(w, http.StatusOK, dto.TOTPDisableResponse{Enabled: false})
}

// RotateRecovery maneja POST /v1/mfa/recovery/rotate
func (c *MFAController) RotateRecovery(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if err := c.confirm.EnsureConfirmed(st); err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}

	codes, err := c.totp.RotateRecovery(r.Context(), st.UserID)
	if err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}
	writeJSON(w, http.StatusOK, dto.RecoveryRotateResponse{RecoveryCodes: codes})
}
