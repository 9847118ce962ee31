// Package auth implementa los flujos de autenticación del servicio de
// cuentas: registro, login, verificación OTP, PIN, recuperación de
// contraseña y rotación de tokens.
package auth

import (
	"context"
	"time"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
	"github.com/dropDatabas3/cuentas/internal/email"
	dto "github.com/dropDatabas3/cuentas/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/cuentas/internal/jwt"
	"github.com/dropDatabas3/cuentas/internal/security/signature"
)

// Service expone todas las operaciones de autenticación.
type Service interface {
	SignUp(ctx context.Context, in dto.SignUpRequest) (*dto.SignatureResponse, error)
	SignIn(ctx context.Context, in dto.SignInRequest, ip string) (*dto.SignInResult, error)
	SetupPIN(ctx context.Context, in dto.SetupPINRequest, ip string) (*dto.TokenResponse, bool, error)
	VerifyOTP(ctx context.Context, in dto.VerifyOTPRequest, ip string) (*dto.VerifyOTPResponse, error)
	ResendOTP(ctx context.Context, in dto.ResendOTPRequest) (*dto.SignatureResponse, error)
	ForgotPassword(ctx context.Context, in dto.ForgotPasswordRequest) (*dto.SignatureResponse, error)
	ResetPassword(ctx context.Context, in dto.ResetPasswordRequest, ip string) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, in dto.RefreshTokenRequest, ip string) (*dto.AccessTokenResponse, error)
	Logout(ctx context.Context, in dto.RefreshTokenRequest, ip string) error
}

// Deps contiene las dependencias del service.
type Deps struct {
	Users    repository.UserRepository
	Roles    repository.RoleRepository
	OTPs     repository.OTPRepository
	Sessions repository.RefreshSessionRepository
	Signer   *signature.Signer
	Issuer   *jwtx.Issuer
	Mailer   email.Sender
	OTPTTL   time.Duration

	// Now es inyectable para tests. nil = time.Now.
	Now func() time.Time
}

type service struct {
	deps Deps
}

// NewService crea el servicio de autenticación.
func NewService(deps Deps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.OTPTTL <= 0 {
		deps.OTPTTL = 3 * time.Minute
	}
	return &service{deps: deps}
}

func (s *service) now() time.Time { return s.deps.Now().UTC() }
