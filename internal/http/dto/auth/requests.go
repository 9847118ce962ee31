// Package auth contiene DTOs para endpoints de autenticación.
package auth

// SignUpRequest representa la solicitud de registro.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Type     int    `json:"type"` // 0 password, 1 google, 2 facebook
}

// SignInRequest representa la solicitud de login.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Type     int    `json:"type"`
}

// VerifyOTPRequest verifica el código contra la firma recibida.
type VerifyOTPRequest struct {
	Signature string `json:"signature"`
	Code      int    `json:"code"`
}

// ResendOTPRequest pide un código nuevo usando la firma anterior.
type ResendOTPRequest struct {
	Signature string `json:"signature"`
}

// ForgotPasswordRequest inicia la recuperación de contraseña.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest establece la nueva contraseña con la firma
// fresca que devolvió verify-otp.
type ResetPasswordRequest struct {
	Signature string `json:"signature"`
	Password  string `json:"password"`
}

// SetupPINRequest configura el PIN de la cuenta.
type SetupPINRequest struct {
	Signature string `json:"signature"`
	PIN       int    `json:"pin"`
}

// RefreshTokenRequest rota el access token o cierra sesión.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}
