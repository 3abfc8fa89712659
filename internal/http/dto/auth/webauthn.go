package auth

import "encoding/json"

// CeremonyOptionsResponse envuelve las opciones crudas del stack WebAuthn.
// El cliente las pasa tal cual a navigator.credentials.{create,get}.
type CeremonyOptionsResponse struct {
	Options any `json:"options"`
}

// CeremonyVerifyRequest lleva la respuesta del authenticator sin interpretar.
type CeremonyVerifyRequest struct {
	// Payload es el PublicKeyCredential serializado por el cliente.
	Payload json.RawMessage `json:"payload"`
	// FriendlyName es el nombre opcional para la credencial nueva (registro).
	FriendlyName string `json:"friendly_name,omitempty"`
}

type RegisterVerifyResponse struct {
	Registered   bool   `json:"registered"`
	CredentialID string `json:"credential_id"`
}

type AssertionVerifyResponse struct {
	Status string `json:"status"` // "authenticated"
	UserID int64  `json:"user_id"`
}

// PasswordlessBeginRequest inicia sign-in sin password para un email.
type PasswordlessBeginRequest struct {
	Email string `json:"email"`
}

// CredentialSummary es la vista de una passkey para el dueño de la cuenta.
type CredentialSummary struct {
	CredentialID string  `json:"credential_id"`
	FriendlyName *string `json:"friendly_name,omitempty"`
	DeviceType   string  `json:"device_type,omitempty"`
	BackedUp     bool    `json:"backed_up"`
	CreatedAt    string  `json:"created_at"`
	LastUsedAt   string  `json:"last_used_at,omitempty"`
}

type CredentialListResponse struct {
	Credentials []CredentialSummary `json:"credentials"`
}

type CredentialRenameRequest struct {
	FriendlyName string `json:"friendly_name"`
}
