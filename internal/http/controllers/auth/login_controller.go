package auth

import (
	"net/http"
	"time"

	dto "github.com/dropDatabas3/strongjohn/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/strongjohn/internal/http/errors"
	svc "github.com/dropDatabas3/strongjohn/internal/http/services/auth"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
	"github.com/dropDatabas3/strongjohn/internal/session"
)

// LoginController maneja el flujo de sign-in completo.
type LoginController struct {
	service  *svc.LoginService
	devices  *svc.TrustedDeviceService
	sessions *session.Manager

	deviceCookieName string
	cookieDomain     string
	cookieSecure     bool
}

func NewLoginController(service *svc.LoginService, devices *svc.TrustedDeviceService, sessions *session.Manager, deviceCookieName, cookieDomain string, cookieSecure bool) *LoginController {
	return &LoginController{
		service:          service,
		devices:          devices,
		sessions:         sessions,
		deviceCookieName: deviceCookieName,
		cookieDomain:     cookieDomain,
		cookieSecure:     cookieSecure,
	}
}

// CheckEmail maneja POST /v1/auth/check-email
func (c *LoginController) CheckEmail(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req dto.CheckEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Email == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email"))
		return
	}

	resp, err := c.service.CheckEmail(r.Context(), st, req.Email)
	if err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}
	if !saveSession(w, r, c.sessions, st) {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Login maneja POST /v1/auth/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		// no distinguimos campos faltantes de credenciales malas
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		return
	}

	var deviceToken string
	if cookie, err := r.Cookie(c.deviceCookieName); err == nil {
		deviceToken = cookie.Value
	}

	resp, err := c.service.LoginPassword(r.Context(), st, req, deviceToken)
	if err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}
	if !saveSession(w, r, c.sessions, st) {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// VerifyTwoFactor maneja POST /v1/auth/2fa/verify
func (c *LoginController) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req dto.TwoFactorVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Code == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("code"))
		return
	}

	userID, deviceToken, err := c.service.VerifyTwoFactor(r.Context(), st, req.Code, req.RememberDevice)
	if err != nil {
		// el estado MfaPending queda intacto: el usuario sigue desafiado
		httperrors.WriteError(w, mapServiceError(err))
		return
	}
	if !saveSession(w, r, c.sessions, st) {
		return
	}
	if deviceToken != "" {
		c.writeDeviceCookie(w, deviceToken)
	}
	writeJSON(w, http.StatusOK, dto.TwoFactorVerifyResponse{Status: "authenticated", UserID: userID})
}

// FinishPasswordless maneja POST /v1/auth/passwordless/verify
func (c *LoginController) FinishPasswordless(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req dto.CeremonyVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	// Persistir la sesión incluso si la verificación falla: el challenge ya
	// fue consumido y no debe sobrevivir para un reintento.
	resp, svcErr := c.service.FinishPasswordless(r.Context(), st, req.Payload)
	if !saveSession(w, r, c.sessions, st) {
		return
	}
	if svcErr != nil {
		httperrors.WriteError(w, mapServiceError(svcErr))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout maneja POST /v1/auth/logout
func (c *LoginController) Logout(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	if err := c.sessions.Destroy(r.Context(), w, st); err != nil {
		logger.From(r.Context()).Warn("session destroy failed", logger.Err(err))
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SessionInfo maneja GET /v1/session
func (c *LoginController) SessionInfo(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	resp, err := c.service.SessionInfo(r.Context(), st)
	if err != nil {
		httperrors.WriteError(w, mapServiceError(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *LoginController) writeDeviceCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.deviceCookieName,
		Value:    token,
		Path:     "/",
		Domain:   c.cookieDomain,
		Expires:  time.Now().Add(c.devices.TTL()),
		HttpOnly: true,
		Secure:   c.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
