package auth

import "encoding/json"

// ConfirmRequest reconfirma la identidad del usuario para operaciones
// sensibles. Exactamente uno de Password o Payload debe venir.
type ConfirmRequest struct {
	Password string `json:"password,omitempty"`
	// Payload es la assertion WebAuthn cuando se confirma con passkey.
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ConfirmResponse struct {
	Confirmed bool `json:"confirmed"`
	// ExpiresInSeconds es cuánto dura la confirmación.
	ExpiresInSeconds int `json:"expires_in_seconds"`
}
