package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
	"github.com/dropDatabas3/strongjohn/internal/observability/metrics"
	"github.com/dropDatabas3/strongjohn/internal/security/password"
	"github.com/dropDatabas3/strongjohn/internal/session"
)

// ConfirmDeps contiene las dependencias del guard de confirmación.
type ConfirmDeps struct {
	Store    repository.Store
	WebAuthn *WebAuthnService
}

// ConfirmService implementa la reconfirmación de identidad que precede a
// toda operación sensible (mutar TOTP, rotar recovery codes, alta/baja de
// passkeys). La confirmación dura session.ConfirmationWindow.
type ConfirmService struct {
	deps ConfirmDeps
}

func NewConfirmService(deps ConfirmDeps) *ConfirmService {
	return &ConfirmService{deps: deps}
}

// BeginWebAuthn arma las opciones de assertion para confirmar con passkey.
func (s *ConfirmService) BeginWebAuthn(ctx context.Context, st *session.State, userID int64) (any, error) {
	user, err := s.deps.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	options, err := s.deps.WebAuthn.BeginLogin(ctx, st, session.PurposeSecurityConfirm, user.Email)
	if err != nil {
		return nil, err
	}
	if options == nil {
		// acá el usuario es conocido: sin passkeys no hay nada que ofrecer
		return nil, ErrCredentialNotFound
	}
	return options, nil
}

// Confirm reconfirma la identidad por password o por assertion WebAuthn y
// estampa el timestamp en la sesión. Ambos caminos corren contra el mismo
// timer de minConfirmLatency: "password incorrecto" y "assertion rechazada"
// no se distinguen por timing.
func (s *ConfirmService) Confirm(ctx context.Context, st *session.State, userID int64, plainPassword string, payload json.RawMessage) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.confirm"),
		logger.Op("Confirm"),
		logger.UserID(userID),
	)

	var method string
	err := withMinLatency(ctx, minConfirmLatency, func() error {
		switch {
		case plainPassword != "":
			method = "password"
			return s.confirmPassword(ctx, userID, plainPassword)
		case len(payload) > 0:
			method = "webauthn"
			return s.confirmAssertion(ctx, st, userID, payload)
		default:
			method = "none"
			return ErrMissingCeremonyPayload
		}
	})
	if err != nil {
		metrics.SecurityConfirmations.WithLabelValues(method, "failed").Inc()
		log.Debug("security confirmation failed", logger.Err(err))
		return err
	}

	st.ConfirmSecurity(time.Now())
	metrics.SecurityConfirmations.WithLabelValues(method, "success").Inc()
	log.Info("security confirmation established", logger.String("method", method))
	return nil
}

// EnsureConfirmed es el gate: rechaza si no hay confirmación vigente.
// La ventana es inclusiva en el borde exacto; un milisegundo más ya no vale.
func (s *ConfirmService) EnsureConfirmed(st *session.State) error {
	if st == nil || !st.SecurityConfirmed(time.Now()) {
		return ErrConfirmationRequired
	}
	return nil
}

func (s *ConfirmService) confirmPassword(ctx context.Context, userID int64, plain string) error {
	user, err := s.deps.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.PasswordHash == "" {
		password.VerifyDummy(plain)
		return ErrInvalidCredentials
	}
	if !password.Verify(plain, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *ConfirmService) confirmAssertion(ctx context.Context, st *session.State, userID int64, payload json.RawMessage) error {
	user, err := s.deps.WebAuthn.FinishLogin(ctx, st, session.PurposeSecurityConfirm, payload)
	if err != nil {
		return err
	}
	// la assertion tiene que ser del MISMO usuario de la sesión
	if user.ID != userID {
		return ErrVerificationFailed
	}
	return nil
}
