package auth

// TOTPSetupResponse devuelve el material de enrolamiento.
// El secret todavía no está habilitado: falta confirmar con un código.
type TOTPSetupResponse struct {
	Secret      string `json:"secret"`
	URI         string `json:"uri"`
	QRPNGBase64 string `json:"qr_png_base64,omitempty"`
}

// TOTPEnableRequest confirma el enrolamiento con un código válido.
type TOTPEnableRequest struct {
	Code string `json:"code"`
}

// TOTPEnableResponse incluye los recovery codes recién generados.
// Es la única vez que se muestran completos.
type TOTPEnableResponse struct {
	Enabled       bool     `json:"enabled"`
	RecoveryCodes []string `json:"recovery_codes"`
}

type TOTPDisableResponse struct {
	Enabled bool `json:"enabled"`
}

// RecoveryRotateResponse devuelve el set nuevo; el anterior queda inválido.
type RecoveryRotateResponse struct {
	RecoveryCodes []string `json:"recovery_codes"`
}
