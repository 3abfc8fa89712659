package errors

import (
	"fmt"
	"net/http"
)

// AppError es el error que cruza la frontera HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa original, útil para logs, nunca se expone al cliente
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// FromError convierte un error genérico en AppError.
// Si no lo es, devuelve un error interno conservando la causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

// WithDetail devuelve una COPIA con detalle adicional (no muta los globales).
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause devuelve una COPIA con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "La solicitud contiene sintaxis inválida o parámetros faltantes.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Faltan campos requeridos en la solicitud.",
		HTTPStatus: http.StatusBadRequest,
	}

	// Genérico a propósito: nunca revela si el email existe.
	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Las credenciales proporcionadas son inválidas.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "No autorizado. Se requiere autenticación.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrSessionExpired = &AppError{
		Code:       "SESSION_EXPIRED",
		Message:    "La sesión ha expirado, por favor inicie sesión nuevamente.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTwoFactorRequired = &AppError{
		Code:       "TWO_FACTOR_REQUIRED",
		Message:    "Se requiere completar la verificación en dos pasos.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrConfirmationRequired = &AppError{
		Code:       "CONFIRMATION_REQUIRED",
		Message:    "Se requiere reconfirmar la identidad para esta operación.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrMissingCeremonyPayload = &AppError{
		Code:       "MISSING_CEREMONY_PAYLOAD",
		Message:    "Falta el payload de la ceremonia o el challenge asociado.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrCredentialNotFound = &AppError{
		Code:       "CREDENTIAL_NOT_FOUND",
		Message:    "La credencial referenciada no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrVerificationFailed = &AppError{
		Code:       "VERIFICATION_FAILED",
		Message:    "La verificación criptográfica fue rechazada.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrSecretNotConfigured = &AppError{
		Code:       "SECRET_NOT_CONFIGURED",
		Message:    "La verificación en dos pasos no está configurada.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrCodeInvalid = &AppError{
		Code:       "CODE_INVALID",
		Message:    "El código ingresado es inválido.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrAlreadyEnabled = &AppError{
		Code:       "ALREADY_ENABLED",
		Message:    "La verificación en dos pasos ya está habilitada.",
		HTTPStatus: http.StatusConflict,
	}

	ErrNotEnabled = &AppError{
		Code:       "NOT_ENABLED",
		Message:    "La verificación en dos pasos no está habilitada.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrRateLimited = &AppError{
		Code:       "RATE_LIMITED",
		Message:    "Demasiadas solicitudes. Intente nuevamente más tarde.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "Ocurrió un error interno. Intente nuevamente.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
