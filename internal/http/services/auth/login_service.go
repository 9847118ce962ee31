package auth

import (
	"context"
	"errors"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
	dto "github.com/dropDatabas3/cuentas/internal/http/dto/auth"
	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	"github.com/dropDatabas3/cuentas/internal/observability/logger"
	"github.com/dropDatabas3/cuentas/internal/observability/metrics"
	"github.com/dropDatabas3/cuentas/internal/security/otp"
	"github.com/dropDatabas3/cuentas/internal/security/password"
)

// Límites del PIN: entre 4 y 8 dígitos.
const (
	pinMin = 1000
	pinMax = 99999999
)

func (s *service) SignIn(ctx context.Context, in dto.SignInRequest, ip string) (*dto.SignInResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("SignIn"),
	)

	// Paso 0: normalización
	in.Email = normalizeEmail(in.Email)
	if in.Email == "" {
		return nil, apierr.ErrMissingFields.WithDetail("email es requerido")
	}

	log = log.With(logger.Email(in.Email))

	// Paso 1: buscar usuario
	user, err := s.deps.Users.FindByParams(ctx,
		repository.FindUserParams{Email: in.Email}, repository.MatchAll)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("email not registered")
			return nil, apierr.ErrInvalidCredentials.WithDetail("el correo no está registrado")
		}
		return nil, apierr.ErrInternal.WithCause(err)
	}

	log = log.With(logger.UserID(user.ID))

	// Paso 2: estado de la cuenta
	if err := checkAccountStatus(user); err != nil {
		log.Info("sign in blocked by account status", logger.Int("status", user.Status))
		return nil, err
	}

	// Paso 3: password solo para login tipo 0
	if in.Type == repository.LoginTypePassword {
		if in.Password == "" {
			return nil, apierr.ErrMissingFields.WithDetail("password es requerido para login con contraseña")
		}
		if user.PasswordHash == "" || !password.Verify(in.Password, user.PasswordHash) {
			log.Debug("password check failed")
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, apierr.ErrInvalidCredentials
		}
	}

	// Paso 4: sin PIN no hay tokens; el cliente recibe una firma para
	// completar setup-pin.
	if user.PIN == nil {
		sig, err := s.deps.Signer.Encrypt(otp.Build(user.Email, s.now()))
		if err != nil {
			return nil, apierr.ErrInternal.WithCause(err)
		}
		log.Info("sign in ok, pin setup pending")
		metrics.LoginsTotal.WithLabelValues("pin_required").Inc()
		return &dto.SignInResult{PINRequired: true, Signature: sig}, nil
	}

	// Paso 5: emitir tokens y persistir la sesión de refresh
	tokens, err := s.issueTokens(ctx, user, ip)
	if err != nil {
		return nil, err
	}
	log.Info("sign in successful")
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return &dto.SignInResult{Tokens: tokens}, nil
}

// SetupPIN configura el PIN usando la firma emitida por sign-in.
// El segundo retorno indica si el PIN ya estaba configurado.
func (s *service) SetupPIN(ctx context.Context, in dto.SetupPINRequest, ip string) (*dto.TokenResponse, bool, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("SetupPIN"),
	)

	if in.PIN < pinMin || in.PIN > pinMax {
		return nil, false, apierr.ErrInvalidFormat.WithDetail("el PIN debe tener entre 4 y 8 dígitos")
	}

	// Paso 1: abrir la firma
	ch, err := s.openSignature(in.Signature)
	if err != nil {
		log.Debug("invalid signature", logger.Err(err))
		return nil, false, err
	}

	log = log.With(logger.Email(ch.Email))

	// Paso 2: el dueño de la firma
	user, err := s.deps.Users.FindByParams(ctx,
		repository.FindUserParams{Email: ch.Email}, repository.MatchAll)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, false, apierr.ErrInvalidSignature
		}
		return nil, false, apierr.ErrInternal.WithCause(err)
	}

	// Paso 3: si ya tenía PIN, no se pisa; se devuelven tokens igual
	if user.PIN != nil {
		tokens, err := s.issueTokens(ctx, user, ip)
		if err != nil {
			return nil, false, err
		}
		log.Info("pin already configured")
		return tokens, true, nil
	}

	// Paso 4: guardar el PIN
	if err := s.deps.Users.Patch(ctx, user.ID, repository.PatchUserInput{
		UserFields: repository.UserPatch{PIN: &in.PIN},
	}); err != nil {
		log.Error("pin patch failed", logger.Err(err))
		return nil, false, apierr.ErrInternal.WithCause(err)
	}

	tokens, err := s.issueTokens(ctx, user, ip)
	if err != nil {
		return nil, false, err
	}
	log.Info("pin configured")
	return tokens, false, nil
}

// openSignature descifra y parsea una firma entrante.
func (s *service) openSignature(sig string) (*otp.Challenge, error) {
	if sig == "" {
		return nil, apierr.ErrMissingFields.WithDetail("signature es requerida")
	}
	plain, err := s.deps.Signer.Decrypt(sig)
	if err != nil {
		return nil, apierr.ErrInvalidSignature
	}
	ch, err := otp.Parse(plain)
	if err != nil {
		if errors.Is(err, otp.ErrMalformedChallenge) {
			return nil, apierr.ErrInvalidSignature
		}
		return nil, apierr.ErrInternal.WithCause(err)
	}
	return ch, nil
}

// checkAccountStatus mapea estados de cuenta a errores de API.
func checkAccountStatus(user *repository.User) error {
	switch user.Status {
	case repository.StatusActive:
		return nil
	case repository.StatusPending:
		return apierr.ErrAccountNotVerified
	case repository.StatusSuspended:
		return apierr.ErrAccountSuspended
	default:
		return apierr.ErrAccountDeactivated
	}
}
