// Package email envía los correos transaccionales del servicio:
// códigos OTP de verificación y de recuperación de contraseña.
package email

import "context"

// OTPMessage es lo que necesita el template de un correo con código.
type OTPMessage struct {
	To      string
	Name    string
	Code    int
	TTLMins int
	Reset   bool // true: recuperación de contraseña; false: verificación
}

// Sender envía correos transaccionales. El envío es parte del flujo:
// si falla, el flujo que lo pidió falla (no hay fire-and-forget).
type Sender interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}
