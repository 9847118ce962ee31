package auth

// SignatureResponse devuelve el sobre cifrado que el cliente debe
// presentar en el siguiente paso del flujo.
type SignatureResponse struct {
	Signature string `json:"signature"`
}

// UserSummary son los datos básicos que acompañan a los tokens.
type UserSummary struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// TokenResponse representa el par de tokens emitido.
type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	Data         UserSummary `json:"data"`
	ExpiredIn    int64       `json:"expired_in"` // segundos del access token
}

// VerifyOTPResponse es la respuesta de verify-otp: el único camino que
// convierte un OTP en credenciales de larga vida, así que siempre trae
// el par de tokens. En el flujo de reset-password viaja además la firma
// que habilita el paso siguiente.
type VerifyOTPResponse struct {
	*TokenResponse
	Signature string `json:"signature,omitempty"`
}

// AccessTokenResponse es la respuesta de refresh-token.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// SignInResult es el resultado interno del service de login: o bien
// tokens, o bien la señal de que falta configurar PIN.
type SignInResult struct {
	PINRequired bool
	Signature   string
	Tokens      *TokenResponse
}
