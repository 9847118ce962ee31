package auth

import (
	"context"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
	dto "github.com/dropDatabas3/cuentas/internal/http/dto/auth"
	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	"github.com/dropDatabas3/cuentas/internal/observability/logger"
	"github.com/dropDatabas3/cuentas/internal/security/password"
)

const passwordMinLen = 8

func (s *service) ForgotPassword(ctx context.Context, in dto.ForgotPasswordRequest) (*dto.SignatureResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("ForgotPassword"),
	)

	in.Email = normalizeEmail(in.Email)
	if in.Email == "" {
		return nil, apierr.ErrMissingFields.WithDetail("email es requerido")
	}

	log = log.With(logger.Email(in.Email))

	// Paso 1: el email tiene que estar registrado
	user, err := s.deps.Users.FindByParams(ctx,
		repository.FindUserParams{Email: in.Email}, repository.MatchAll)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("email not registered")
			return nil, apierr.ErrInvalidCredentials.WithDetail("el correo no está registrado")
		}
		return nil, apierr.ErrInternal.WithCause(err)
	}

	// Paso 2: challenge de recuperación + correo. La firma lleva el
	// challenge completo (con código embebido).
	sig, err := s.generateAndSendOTP(ctx, user, repository.OTPPurposeResetPassword)
	if err != nil {
		return nil, err
	}

	log.Info("password reset otp sent", logger.UserID(user.ID))
	return &dto.SignatureResponse{Signature: sig}, nil
}

func (s *service) ResetPassword(ctx context.Context, in dto.ResetPasswordRequest, ip string) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("ResetPassword"),
	)

	if len(in.Password) < passwordMinLen {
		return nil, apierr.ErrInvalidFormat.WithDetail("la contraseña debe tener al menos 8 caracteres")
	}

	// Paso 1: la firma fresca que emitió verify-otp
	ch, err := s.openSignature(in.Signature)
	if err != nil {
		return nil, err
	}

	log = log.With(logger.Email(ch.Email))

	user, err := s.deps.Users.FindByParams(ctx,
		repository.FindUserParams{Email: ch.Email}, repository.MatchAll)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierr.ErrInvalidSignature
		}
		return nil, apierr.ErrInternal.WithCause(err)
	}

	// Paso 2: nueva contraseña
	hash, err := password.Hash(password.Default, in.Password)
	if err != nil {
		return nil, apierr.ErrInternal.WithCause(err)
	}
	if err := s.deps.Users.Patch(ctx, user.ID, repository.PatchUserInput{
		UserFields: repository.UserPatch{PasswordHash: &hash},
	}); err != nil {
		log.Error("password patch failed", logger.Err(err))
		return nil, apierr.ErrInternal.WithCause(err)
	}

	// Paso 3: sesión nueva directa, sin pasar otra vez por sign-in
	tokens, err := s.issueTokens(ctx, user, ip)
	if err != nil {
		return nil, err
	}

	log.Info("password reset", logger.UserID(user.ID))
	return tokens, nil
}
