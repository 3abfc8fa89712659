// Package session holds the typed, server-side session state for the
// authentication flows: sign-in progress, the two-factor flag, pending
// WebAuthn challenges and the security-confirmation timestamp.
//
// The state is a struct with named fields, validated at the boundary; no
// ad-hoc string keys scattered across handlers.
package session

import (
	"encoding/json"
	"time"
)

// Purpose identifica la ceremonia a la que un challenge pertenece.
// Un challenge emitido para un propósito nunca valida otro.
type Purpose string

const (
	PurposeRegistration    Purpose = "webauthn.register"
	PurposeAuthentication  Purpose = "webauthn.authenticate"
	PurposePasswordless    Purpose = "webauthn.passwordless"
	PurposeSecurityConfirm Purpose = "webauthn.confirm"
)

// ChallengeTTL limita la vida de un challenge emitido y no consumido.
const ChallengeTTL = 5 * time.Minute

// ConfirmationWindow es la validez de una confirmación de seguridad.
const ConfirmationWindow = 5 * time.Minute

// Challenge es un challenge pendiente ligado a la sesión.
type Challenge struct {
	// Data es el webauthn.SessionData serializado de la ceremonia.
	Data json.RawMessage `json:"data"`
	// Email es el target opcional (passwordless por email).
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// State es el estado de sesión completo.
type State struct {
	ID string `json:"id"`

	// UserID de la sesión autenticada. 0 = anónimo.
	UserID int64 `json:"user_id,omitempty"`

	// PendingUserID registra al usuario que pasó password pero debe MFA.
	// Mientras esté seteado la sesión NO está autenticada.
	PendingUserID int64 `json:"pending_user_id,omitempty"`

	// TwoFactorPassed se setea cuando el login satisfizo MFA; se limpia en
	// logout y cuando cambia el estado MFA de la cuenta.
	TwoFactorPassed bool `json:"two_factor_passed,omitempty"`

	// SecurityConfirmedAt es el timestamp de la última confirmación de
	// seguridad (re-autenticación).
	SecurityConfirmedAt *time.Time `json:"security_confirmed_at,omitempty"`

	Challenges map[Purpose]Challenge `json:"challenges,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Authenticated reporta si la sesión tiene login completo.
func (s *State) Authenticated() bool { return s.UserID != 0 }

// MFAPending reporta si hay un login a medio camino esperando segundo factor.
func (s *State) MFAPending() bool { return s.PendingUserID != 0 }

// BindChallenge guarda un challenge bajo su propósito, pisando cualquier
// challenge previo del mismo propósito.
func (s *State) BindChallenge(purpose Purpose, data json.RawMessage, email string, now time.Time) {
	if s.Challenges == nil {
		s.Challenges = make(map[Purpose]Challenge)
	}
	s.Challenges[purpose] = Challenge{
		Data:      data,
		Email:     email,
		ExpiresAt: now.Add(ChallengeTTL),
	}
}

// ConsumeChallenge lee y borra el challenge del propósito dado. Un challenge
// se valida a lo sumo una vez; expirado cuenta como ausente.
func (s *State) ConsumeChallenge(purpose Purpose, now time.Time) (*Challenge, bool) {
	ch, ok := s.Challenges[purpose]
	if !ok {
		return nil, false
	}
	delete(s.Challenges, purpose)
	if now.After(ch.ExpiresAt) {
		return nil, false
	}
	return &ch, true
}

// ConfirmSecurity estampa la confirmación de seguridad.
func (s *State) ConfirmSecurity(now time.Time) {
	t := now
	s.SecurityConfirmedAt = &t
}

// SecurityConfirmed reporta si hay una confirmación vigente.
// Un timestamp en el futuro no cuenta (protección contra clock skew spoofing);
// la ventana es inclusiva: exactamente ConfirmationWindow todavía vale.
func (s *State) SecurityConfirmed(now time.Time) bool {
	if s.SecurityConfirmedAt == nil {
		return false
	}
	at := *s.SecurityConfirmedAt
	if at.After(now) {
		return false
	}
	return now.Sub(at) <= ConfirmationWindow
}

// BeginMFA deja la sesión en estado MfaPending para userID.
func (s *State) BeginMFA(userID int64) {
	s.PendingUserID = userID
	s.UserID = 0
	s.TwoFactorPassed = false
}

// CompleteSignIn promueve la sesión a autenticada.
func (s *State) CompleteSignIn(userID int64, mfaSatisfied bool) {
	s.UserID = userID
	s.PendingUserID = 0
	s.TwoFactorPassed = mfaSatisfied
}

// Clear borra todo el estado de autenticación: login, flag MFA, confirmación
// de seguridad y challenges pendientes.
func (s *State) Clear() {
	s.UserID = 0
	s.PendingUserID = 0
	s.TwoFactorPassed = false
	s.SecurityConfirmedAt = nil
	s.Challenges = nil
}
