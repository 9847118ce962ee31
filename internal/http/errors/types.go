// Package errors define el modelo de error de la API y el envelope de
// respuesta. Los códigos son numéricos de 6 dígitos: los primeros 3
// son el HTTP status (400001 -> 400). Eso permite al cliente mobile
// rutear por código sin mirar el header.
package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la aplicación.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Err     error  `json:"-"` // causa, solo para logs
}

// Error implementa la interfaz error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original.
func (e *AppError) Unwrap() error { return e.Err }

// HTTPStatus deriva el status de los primeros 3 dígitos del código.
func (e *AppError) HTTPStatus() int {
	status := e.Code / 1000
	if status < 100 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// New crea un nuevo AppError.
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// FromError convierte un error genérico en AppError. Si no lo es,
// devuelve un error interno conservando la causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

// WithDetail devuelve una COPIA con detail, sin mutar las globales.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithMessage devuelve una COPIA con otro mensaje (mismo código).
func (e *AppError) WithMessage(msg string) *AppError {
	newErr := *e
	newErr.Message = msg
	return &newErr
}

// WithCause devuelve una COPIA con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================

// 400 — validación / sintaxis
var (
	ErrBadRequest    = New(400001, "La solicitud contiene sintaxis inválida o parámetros faltantes.")
	ErrInvalidJSON   = New(400002, "El cuerpo de la solicitud no es un JSON válido.")
	ErrMissingFields = New(400003, "Faltan campos requeridos en la solicitud.")
	ErrInvalidFormat = New(400004, "El formato de uno o más campos es inválido.")
	// Conflictos (email/teléfono duplicado) van en la clase 400.
	ErrEmailAlreadyInUse = New(400005, "El correo electrónico ya está registrado.")
)

// 401 — autenticación
var (
	ErrInvalidCredentials = New(401001, "Las credenciales proporcionadas son inválidas.")
	ErrInvalidSignature   = New(401002, "La firma proporcionada es inválida.")
	ErrInvalidOTP         = New(401003, "El código de verificación es inválido.")
	ErrOTPExpired         = New(401004, "El código de verificación expiró. Solicitá uno nuevo.")
	ErrTokenMissing       = New(401005, "No se proporcionó token de autenticación.")
	// Un solo error para firma rota, issuer ajeno, expiración o sesión
	// inexistente: no se le cuenta al cliente cuál chequeo falló.
	ErrTokenInvalid = New(401006, "El token es inválido o expiró. Iniciá sesión nuevamente.")
)

// 403 — estado de cuenta
var (
	ErrAccountSuspended   = New(403001, "La cuenta está suspendida.")
	ErrAccountNotVerified = New(403002, "La cuenta debe ser verificada antes de continuar.")
	ErrAccountDeactivated = New(403003, "La cuenta fue dada de baja.")
)

// 404
var (
	ErrNotFound     = New(404001, "El recurso solicitado no fue encontrado.")
	ErrUserNotFound = New(404002, "El usuario especificado no existe.")
)

// 429
var (
	ErrRateLimitExceeded = New(429001, "Demasiadas solicitudes. Intentá más tarde.")
	ErrResendTooSoon     = New(429002, "Ya enviamos un código recientemente.")
)

// 500+
var (
	ErrInternal           = New(500001, "Ocurrió un error interno en el servidor.")
	ErrServiceUnavailable = New(503001, "El servicio no está disponible temporalmente.")
)
