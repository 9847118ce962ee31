package repository

import (
	"context"
	"time"
)

// Propósitos de OTP.
const (
	OTPPurposeDefault       = ""
	OTPPurposeResetPassword = "reset-password"
)

// OTPRecord representa un código de un solo uso ligado a un challenge.
// Data es el payload firmado completo ("email|timestamp|code"); es la
// clave lógica del registro: a lo sumo un registro vivo por Data.
type OTPRecord struct {
	ID        string
	UserID    string
	Data      string
	Code      int
	Purpose   string
	CreatedAt time.Time
}

// CreateOTPInput contiene los datos para registrar un OTP.
type CreateOTPInput struct {
	UserID  string
	Data    string
	Code    int
	Purpose string
}

// OTPRepository define operaciones sobre códigos OTP.
type OTPRepository interface {
	// Upsert registra el OTP. Si ya existe un registro con el mismo Data
	// (mismo identity+timestamp, en la práctica solo reintentos dentro
	// del mismo segundo) sobrescribe code y created_at en vez de duplicar.
	Upsert(ctx context.Context, input CreateOTPInput) (*OTPRecord, error)

	// GetByData busca el OTP por su challenge data. Si code no es nil
	// también debe coincidir exactamente. Retorna ErrNotFound si no hay match.
	GetByData(ctx context.Context, data string, code *int) (*OTPRecord, error)

	// Consume marca al usuario como verificado (si estaba pendiente) y
	// elimina el registro OTP, ambos dentro de UNA transacción: o pasan
	// los dos efectos o ninguno. Un segundo Consume sobre el mismo
	// registro retorna ErrNotFound (el DELETE es el árbitro de la carrera).
	Consume(ctx context.Context, record *OTPRecord) error

	// DeleteExpired elimina OTPs más viejos que ttl (cleanup job).
	// Retorna la cantidad eliminada.
	DeleteExpired(ctx context.Context, ttl time.Duration) (int, error)
}
