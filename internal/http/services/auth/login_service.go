package auth

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	dto "github.com/dropDatabas3/strongjohn/internal/http/dto/auth"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
	"github.com/dropDatabas3/strongjohn/internal/observability/metrics"
	"github.com/dropDatabas3/strongjohn/internal/session"
)

// LoginDeps contiene las dependencias del orquestador de sign-in.
type LoginDeps struct {
	Store     repository.Store
	Passwords *PasswordAuthenticator
	TOTP      *TOTPService
	WebAuthn  *WebAuthnService
	Devices   *TrustedDeviceService
}

// LoginService es la máquina de estados del sign-in:
// Anonymous -> PasswordOrPasskeyPending -> (MfaPending | Authenticated).
type LoginService struct {
	deps LoginDeps
}

func NewLoginService(deps LoginDeps) *LoginService {
	return &LoginService{deps: deps}
}

// CheckEmail es el primer paso del sign-in. La respuesta tiene forma
// uniforme exista o no la cuenta: siempre ofrece el campo password y
// adjunta opciones de assertion solo cuando hay passkeys utilizables.
// Cuenta inexistente y cuenta sin passkeys son indistinguibles.
func (s *LoginService) CheckEmail(ctx context.Context, st *session.State, emailAddr string) (*dto.CheckEmailResponse, error) {
	options, err := s.deps.WebAuthn.BeginLogin(ctx, st, session.PurposePasswordless, emailAddr)
	if err != nil {
		return nil, err
	}

	var requiresOtp bool
	user, err := s.deps.Store.Users().GetByEmail(ctx, strings.TrimSpace(strings.ToLower(emailAddr)))
	if err != nil {
		return nil, err
	}
	if user != nil {
		requiresOtp = user.IsTwoFactorEnabled
	}

	return &dto.CheckEmailResponse{
		PasswordField:   true,
		HasPasskeys:     options != nil,
		RequiresOtp:     requiresOtp,
		WebAuthnOptions: options,
	}, nil
}

// LoginPassword ejecuta el primer factor. Con 2FA habilitado la sesión
// queda en MfaPending salvo que el dispositivo sea de confianza; sin 2FA
// queda autenticada directo.
func (s *LoginService) LoginPassword(ctx context.Context, st *session.State, in dto.LoginRequest, deviceToken string) (*dto.LoginResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("LoginPassword"),
	)

	user, err := s.deps.Passwords.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		if err == ErrInvalidCredentials {
			metrics.LoginAttempts.WithLabelValues("failed").Inc()
		}
		return nil, err
	}

	log = log.With(logger.UserID(user.ID))

	if user.IsTwoFactorEnabled {
		if s.deps.Devices.Check(ctx, user.ID, deviceToken) {
			st.CompleteSignIn(user.ID, true)
			metrics.LoginAttempts.WithLabelValues("success").Inc()
			log.Info("login complete, mfa satisfied by trusted device")
			return &dto.LoginResponse{Status: "authenticated", UserID: user.ID}, nil
		}
		st.BeginMFA(user.ID)
		metrics.LoginAttempts.WithLabelValues("mfa_pending").Inc()
		log.Info("password accepted, second factor pending")
		return &dto.LoginResponse{Status: "mfa_required"}, nil
	}

	st.CompleteSignIn(user.ID, false)
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	log.Info("login complete")
	return &dto.LoginResponse{Status: "authenticated", UserID: user.ID}, nil
}

// VerifyTwoFactor resuelve el paso MfaPending con TOTP o recovery code.
// Un código incorrecto deja la sesión exactamente donde estaba: el flag no
// se toca y el usuario sigue desafiado.
// Devuelve el token de dispositivo si rememberDevice y la emisión salió bien.
func (s *LoginService) VerifyTwoFactor(ctx context.Context, st *session.State, code string, rememberDevice bool) (int64, string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("VerifyTwoFactor"),
	)

	if !st.MFAPending() {
		return 0, "", ErrTwoFactorRequired
	}
	pendingID := st.PendingUserID

	if err := s.deps.TOTP.VerifyCode(ctx, pendingID, code); err != nil {
		log.Debug("second factor rejected", logger.UserID(pendingID))
		return 0, "", err
	}

	st.CompleteSignIn(pendingID, true)
	log.Info("second factor accepted", logger.UserID(pendingID))

	var deviceToken string
	if rememberDevice {
		tok, err := s.deps.Devices.Issue(ctx, pendingID)
		if err != nil {
			// no vale la pena fallar el login por esto
			log.Warn("trusted device issue failed", logger.Err(err))
		} else {
			deviceToken = tok
		}
	}
	return pendingID, deviceToken, nil
}

// FinishPasswordless completa el sign-in sin password con la assertion del
// challenge emitido por CheckEmail. Una assertion válida satisface MFA
// directo: la passkey ya prueba posesión. Si falla, el cliente cae al campo
// password que CheckEmail siempre ofreció.
func (s *LoginService) FinishPasswordless(ctx context.Context, st *session.State, payload json.RawMessage) (*dto.AssertionVerifyResponse, error) {
	user, err := s.deps.WebAuthn.FinishLogin(ctx, st, session.PurposePasswordless, payload)
	if err != nil {
		return nil, err
	}
	st.CompleteSignIn(user.ID, true)
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	logger.From(ctx).Info("passwordless login complete",
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.UserID(user.ID),
	)
	return &dto.AssertionVerifyResponse{Status: "authenticated", UserID: user.ID}, nil
}

// SessionInfo arma la vista de la sesión actual.
func (s *LoginService) SessionInfo(ctx context.Context, st *session.State) (*dto.SessionInfoResponse, error) {
	out := &dto.SessionInfoResponse{
		Authenticated:   st.Authenticated(),
		MFAPending:      st.MFAPending(),
		TwoFactorPassed: st.TwoFactorPassed,
	}
	if st.Authenticated() {
		user, err := s.deps.Store.Users().GetByID(ctx, st.UserID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			out.UserID = user.ID
			out.Email = user.Email
		}
	}
	return out, nil
}

// IsTwoFactorEnabled implementa el checker del gate de segundo factor.
func (s *LoginService) IsTwoFactorEnabled(ctx context.Context, userID int64) (bool, error) {
	user, err := s.deps.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsTwoFactorEnabled, nil
}
