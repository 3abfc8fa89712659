package auth

import "errors"

// Errores sentinel de la capa de servicios. Los controllers los mapean al
// catálogo HTTP; acá no hay status codes.
var (
	// ErrInvalidCredentials es deliberadamente genérico: cubre email
	// inexistente y password incorrecto sin distinguirlos.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingCeremonyPayload: no hay challenge ligado a la sesión o el
	// cliente no mandó attestation/assertion.
	ErrMissingCeremonyPayload = errors.New("missing ceremony payload")

	// ErrCredentialNotFound: la assertion referencia un credentialId desconocido.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrVerificationFailed: la verificación criptográfica rechazó o lanzó.
	// Incluye counter que no avanzó (señal de authenticator clonado).
	ErrVerificationFailed = errors.New("verification failed")

	// ErrSecretNotConfigured: la cuenta no tiene TOTP configurado.
	ErrSecretNotConfigured = errors.New("totp secret not configured")

	// ErrCodeInvalid: el código no coincide con TOTP ni con recovery codes.
	ErrCodeInvalid = errors.New("code invalid")

	ErrAlreadyEnabled = errors.New("two-factor already enabled")
	ErrNotEnabled     = errors.New("two-factor not enabled")

	// ErrConfirmationRequired: falta la confirmación de seguridad vigente.
	ErrConfirmationRequired = errors.New("security confirmation required")

	// ErrTwoFactorRequired: la sesión no completó el segundo factor.
	ErrTwoFactorRequired = errors.New("two-factor verification required")

	ErrUserNotFound = errors.New("user not found")
)
