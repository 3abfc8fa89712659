// Package auth define los contratos JSON del flujo de autenticación.
package auth

// CheckEmailRequest es el primer paso del sign-in: averiguar cómo continuar.
type CheckEmailRequest struct {
	Email string `json:"email"`
}

// CheckEmailResponse tiene forma uniforme exista o no la cuenta:
// nunca revela si el email está registrado. Una cuenta inexistente responde
// igual que una existente sin passkeys ni OTP.
type CheckEmailResponse struct {
	// PasswordField indica si el cliente debe mostrar el campo de password.
	PasswordField bool `json:"password_field"`
	// HasPasskeys indica si hay passkeys utilizables para esta cuenta.
	HasPasskeys bool `json:"has_passkeys"`
	// RequiresOtp indica si tras el password se espera un paso TOTP.
	RequiresOtp bool `json:"requires_otp"`
	// WebAuthnOptions son las opciones de assertion cuando hay passkeys
	// utilizables; null en caso contrario.
	WebAuthnOptions any `json:"webauthn_options,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse describe el resultado del primer factor.
type LoginResponse struct {
	// Status: "authenticated" | "mfa_required"
	Status string `json:"status"`
	UserID int64  `json:"user_id,omitempty"`
}

// TwoFactorVerifyRequest lleva el TOTP o un recovery code.
type TwoFactorVerifyRequest struct {
	Code string `json:"code"`
	// RememberDevice pide marcar este dispositivo como de confianza.
	RememberDevice bool `json:"remember_device,omitempty"`
}

type TwoFactorVerifyResponse struct {
	Status string `json:"status"` // "authenticated"
	UserID int64  `json:"user_id"`
}

type SessionInfoResponse struct {
	Authenticated   bool   `json:"authenticated"`
	UserID          int64  `json:"user_id,omitempty"`
	Email           string `json:"email,omitempty"`
	MFAPending      bool   `json:"mfa_pending,omitempty"`
	TwoFactorPassed bool   `json:"two_factor_passed,omitempty"`
}
