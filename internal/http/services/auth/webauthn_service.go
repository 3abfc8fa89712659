package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/dropDatabas3/strongjohn/internal/email"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
	"github.com/dropDatabas3/strongjohn/internal/observability/metrics"
	"github.com/dropDatabas3/strongjohn/internal/session"
)

// ceremonyVerifier es lo que usamos del stack WebAuthn. Interfaz propia
// para poder stubbearlo en tests; *webauthn.WebAuthn la satisface.
type ceremonyVerifier interface {
	BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	CreateCredential(user webauthn.User, sd webauthn.SessionData, parsed *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)
	BeginLogin(user webauthn.User, opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	ValidateLogin(user webauthn.User, sd webauthn.SessionData, parsed *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error)
}

// WebAuthnDeps contiene las dependencias del servicio de passkeys.
type WebAuthnDeps struct {
	Store    repository.Store
	Verifier ceremonyVerifier
	Notifier *email.Notifier
}

// WebAuthnService maneja las ceremonias de registro y autenticación.
// El challenge de cada ceremonia vive ligado a la sesión y se consume una
// sola vez; el verify sin challenge previo falla con payload faltante.
type WebAuthnService struct {
	deps WebAuthnDeps
}

func NewWebAuthnService(deps WebAuthnDeps) *WebAuthnService {
	return &WebAuthnService{deps: deps}
}

// BeginRegistration genera las opciones de creación para el usuario
// autenticado y liga el challenge a la sesión.
func (s *WebAuthnService) BeginRegistration(ctx context.Context, st *session.State, userID int64) (any, error) {
	_, wuser, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	options, sd, err := s.deps.Verifier.BeginRegistration(
		wuser,
		webauthn.WithExclusions(credentialExclusions(wuser.creds)),
	)
	if err != nil {
		metrics.WebAuthnCeremonies.WithLabelValues("register", "options", "failed").Inc()
		return nil, err
	}

	if err := bindSessionData(st, session.PurposeRegistration, sd, ""); err != nil {
		return nil, err
	}
	metrics.WebAuthnCeremonies.WithLabelValues("register", "options", "success").Inc()
	return options, nil
}

// FinishRegistration valida la attestation y persiste la credencial.
// Reintentar con el mismo authenticator es idempotente: el duplicado por
// credential_id no inserta ni falla.
// Un registro exitoso satisface MFA para la sesión actual.
func (s *WebAuthnService) FinishRegistration(ctx context.Context, st *session.State, userID int64, payload json.RawMessage, friendlyName string) (*repository.WebAuthnCredential, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.webauthn"),
		logger.Op("FinishRegistration"),
		logger.UserID(userID),
	)

	sd, ok := consumeSessionData(st, session.PurposeRegistration)
	if !ok || len(payload) == 0 {
		return nil, ErrMissingCeremonyPayload
	}

	parsed, err := protocol.ParseCredentialCreationResponseBody(bytes.NewReader(payload))
	if err != nil {
		metrics.WebAuthnCeremonies.WithLabelValues("register", "verify", "failed").Inc()
		return nil, ErrVerificationFailed
	}

	user, wuser, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	wc, err := s.deps.Verifier.CreateCredential(wuser, *sd, parsed)
	if err != nil {
		log.Debug("attestation verification rejected", logger.Err(err))
		metrics.WebAuthnCeremonies.WithLabelValues("register", "verify", "failed").Inc()
		return nil, ErrVerificationFailed
	}

	row := fromLibraryCredential(userID, wc, friendlyName)
	created, err := s.deps.Store.Credentials().Create(ctx, row)
	switch {
	case err == repository.ErrDuplicate:
		// mismo authenticator re-registrado: no-op
		log.Info("duplicate credential registration, skipping insert",
			logger.CredentialID(row.CredentialID))
		created = &row
	case err != nil:
		return nil, err
	default:
		s.deps.Notifier.PasskeyAdded(user.Email, friendlyName)
	}

	st.TwoFactorPassed = true
	metrics.WebAuthnCeremonies.WithLabelValues("register", "verify", "success").Inc()
	log.Info("passkey registered", logger.CredentialID(created.CredentialID))
	return created, nil
}

// BeginLogin genera opciones de assertion para el email dado y liga el
// challenge a la sesión. Si la cuenta no existe o no tiene passkeys
// devuelve (nil, nil): el caller arma la respuesta uniforme sin revelar
// cuál de los dos casos fue.
func (s *WebAuthnService) BeginLogin(ctx context.Context, st *session.State, purpose session.Purpose, emailAddr string) (any, error) {
	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
	user, err := s.deps.Store.Users().GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	creds, err := s.deps.Store.Credentials().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, nil
	}

	wuser := &webauthnUser{user: user, creds: creds}
	options, sd, err := s.deps.Verifier.BeginLogin(wuser)
	if err != nil {
		metrics.WebAuthnCeremonies.WithLabelValues(string(purpose), "options", "failed").Inc()
		return nil, err
	}
	if err := bindSessionData(st, purpose, sd, emailAddr); err != nil {
		return nil, err
	}
	metrics.WebAuthnCeremonies.WithLabelValues(string(purpose), "options", "success").Inc()
	return options, nil
}

// FinishLogin valida la assertion contra el challenge de la sesión.
// El signature counter se compara y persiste bajo lock de fila: un counter
// que no avanzó (salvo el caso 0/0 de authenticators sin counter) es señal
// de clonado y se rechaza como fallo de verificación.
func (s *WebAuthnService) FinishLogin(ctx context.Context, st *session.State, purpose session.Purpose, payload json.RawMessage) (*repository.User, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.webauthn"),
		logger.Op("FinishLogin"),
		logger.Purpose(string(purpose)),
	)

	ch, ok := st.ConsumeChallenge(purpose, time.Now())
	if !ok || len(payload) == 0 {
		return nil, ErrMissingCeremonyPayload
	}
	var sd webauthn.SessionData
	if err := json.Unmarshal(ch.Data, &sd); err != nil {
		return nil, ErrMissingCeremonyPayload
	}

	parsed, err := protocol.ParseCredentialRequestResponseBody(bytes.NewReader(payload))
	if err != nil {
		metrics.WebAuthnCeremonies.WithLabelValues(string(purpose), "verify", "failed").Inc()
		return nil, ErrVerificationFailed
	}

	credentialID := base64.RawURLEncoding.EncodeToString(parsed.RawID)

	var user *repository.User
	err = s.deps.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		stored, err := tx.Credentials().GetByCredentialIDForUpdate(ctx, credentialID)
		if err != nil {
			return err
		}
		if stored == nil {
			return ErrCredentialNotFound
		}

		u, err := tx.Users().GetByID(ctx, stored.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrCredentialNotFound
		}
		creds, err := tx.Credentials().ListByUser(ctx, u.ID)
		if err != nil {
			return err
		}

		wuser := &webauthnUser{user: u, creds: creds}
		wc, err := s.deps.Verifier.ValidateLogin(wuser, sd, parsed)
		if err != nil {
			log.Debug("assertion verification rejected", logger.Err(err))
			return ErrVerificationFailed
		}
		if wc.Authenticator.CloneWarning {
			log.Warn("authenticator clone warning", logger.CredentialID(credentialID))
			return ErrVerificationFailed
		}

		// Counter: debe avanzar estrictamente. 0/0 permitido para
		// authenticators que no implementan counter.
		newCount := wc.Authenticator.SignCount
		if !(newCount == 0 && stored.Counter == 0) && newCount <= stored.Counter {
			log.Warn("signature counter did not advance",
				logger.CredentialID(credentialID),
				logger.Int("stored", int(stored.Counter)),
				logger.Int("received", int(newCount)),
			)
			return ErrVerificationFailed
		}
		if err := tx.Credentials().UpdateCounter(ctx, credentialID, newCount); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		metrics.WebAuthnCeremonies.WithLabelValues(string(purpose), "verify", "failed").Inc()
		return nil, err
	}

	metrics.WebAuthnCeremonies.WithLabelValues(string(purpose), "verify", "success").Inc()
	log.Info("assertion verified", logger.UserID(user.ID), logger.CredentialID(credentialID))
	return user, nil
}

// ListCredentials devuelve las passkeys del usuario.
func (s *WebAuthnService) ListCredentials(ctx context.Context, userID int64) ([]repository.WebAuthnCredential, error) {
	return s.deps.Store.Credentials().ListByUser(ctx, userID)
}

// RenameCredential cambia el nombre amistoso de una passkey propia.
func (s *WebAuthnService) RenameCredential(ctx context.Context, userID, id int64, friendlyName string) error {
	return s.deps.Store.Credentials().Rename(ctx, userID, id, friendlyName)
}

// RemoveCredential borra una passkey propia y avisa por email.
func (s *WebAuthnService) RemoveCredential(ctx context.Context, userID, id int64) error {
	user, err := s.deps.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	var name string
	creds, err := s.deps.Store.Credentials().ListByUser(ctx, userID)
	if err == nil {
		for _, c := range creds {
			if c.ID == id && c.FriendlyName != nil {
				name = *c.FriendlyName
			}
		}
	}

	rows, err := s.deps.Store.Credentials().Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCredentialNotFound
	}
	s.deps.Notifier.PasskeyRemoved(user.Email, name)
	return nil
}

func (s *WebAuthnService) loadUser(ctx context.Context, userID int64) (*repository.User, *webauthnUser, error) {
	user, err := s.deps.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}
	creds, err := s.deps.Store.Credentials().ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, &webauthnUser{user: user, creds: creds}, nil
}

// bindSessionData serializa el SessionData de la ceremonia dentro del
// challenge de la sesión.
func bindSessionData(st *session.State, purpose session.Purpose, sd *webauthn.SessionData, emailAddr string) error {
	raw, err := json.Marshal(sd)
	if err != nil {
		return err
	}
	st.BindChallenge(purpose, raw, emailAddr, time.Now())
	return nil
}

// consumeSessionData lee y borra el challenge; un challenge se valida a lo
// sumo una vez.
func consumeSessionData(st *session.State, purpose session.Purpose) (*webauthn.SessionData, bool) {
	ch, ok := st.ConsumeChallenge(purpose, time.Now())
	if !ok {
		return nil, false
	}
	var sd webauthn.SessionData
	if err := json.Unmarshal(ch.Data, &sd); err != nil {
		return nil, false
	}
	return &sd, true
}
