package errors

import (
	"encoding/json"
	"net/http"
)

// Envelope es la forma única de toda respuesta de la API.
type Envelope struct {
	Status  string `json:"status"` // "Success" | "Failed"
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Códigos de éxito. Misma convención: primeros 3 dígitos = HTTP status.
const (
	CodeOK               = 200001
	CodeCreated          = 201001
	CodeAcceptedPINSetup = 202001 // credenciales OK pero falta configurar PIN
)

// WriteSuccess escribe el envelope de éxito con el código dado.
func WriteSuccess(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code / 1000)
	_ = json.NewEncoder(w).Encode(Envelope{
		Status:  "Success",
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// WriteError escribe el envelope de falla a partir de cualquier error.
// La causa (Err) nunca se serializa.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus())
	_ = json.NewEncoder(w).Encode(Envelope{
		Status:  "Failed",
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}
