package auth

import (
	"context"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
	"github.com/dropDatabas3/cuentas/internal/email"
	dto "github.com/dropDatabas3/cuentas/internal/http/dto/auth"
	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	"github.com/dropDatabas3/cuentas/internal/observability/logger"
	"github.com/dropDatabas3/cuentas/internal/observability/metrics"
	"github.com/dropDatabas3/cuentas/internal/security/otp"
	"github.com/dropDatabas3/cuentas/internal/security/password"
)

func (s *service) SignUp(ctx context.Context, in dto.SignUpRequest) (*dto.SignatureResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("SignUp"),
	)

	// Paso 0: normalización y validación mínima
	in.Email = normalizeEmail(in.Email)
	if in.Email == "" || !validEmail(in.Email) {
		return nil, apierr.ErrInvalidFormat.WithDetail("email inválido")
	}
	if in.Type == repository.LoginTypePassword && in.Password == "" {
		return nil, apierr.ErrMissingFields.WithDetail("password es requerido para login con contraseña")
	}

	log = log.With(logger.Email(in.Email))

	// Paso 1: ¿email o teléfono ya registrados? Solo una cuenta ACTIVA
	// bloquea; las pendientes se reutilizan (el Create las pisa) y un
	// teléfono de una cuenta nunca verificada tampoco reserva nada.
	existing, err := s.deps.Users.FindByParams(ctx,
		repository.FindUserParams{Email: in.Email, Phone: in.Phone},
		repository.MatchAny)
	switch {
	case err == nil && existing.Status == repository.StatusActive:
		field := "email"
		if existing.Email != in.Email {
			field = "teléfono"
		}
		log.Debug("sign up rejected, field taken", logger.String("field", field))
		return nil, apierr.ErrEmailAlreadyInUse.WithDetail(field + " ya registrado")
	case err != nil && !repository.IsNotFound(err):
		log.Error("user lookup failed", logger.Err(err))
		return nil, apierr.ErrInternal.WithCause(err)
	}

	// Paso 2: rol default (cacheado)
	role, err := s.deps.Roles.GetDefault(ctx)
	if err != nil {
		log.Error("default role missing", logger.Err(err))
		return nil, apierr.ErrInternal.WithCause(err)
	}

	// Paso 3: hash de contraseña
	var hash string
	if in.Type == repository.LoginTypePassword {
		if hash, err = password.Hash(password.Default, in.Password); err != nil {
			return nil, apierr.ErrInternal.WithCause(err)
		}
	}

	// Paso 4: username y referral code generados
	username, err := newUsername(in.Email)
	if err != nil {
		return nil, apierr.ErrInternal.WithCause(err)
	}
	referral, err := newReferralCode(username)
	if err != nil {
		return nil, apierr.ErrInternal.WithCause(err)
	}

	user, err := s.deps.Users.Create(ctx, repository.CreateUserInput{
		Email:        in.Email,
		PasswordHash: hash,
		Username:     username,
		ReferralCode: referral,
		RoleID:       role.ID,
		Type:         in.Type,
		Phone:        in.Phone,
		ProfileName:  nameFromEmail(in.Email),
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, apierr.ErrEmailAlreadyInUse
		}
		log.Error("user create failed", logger.Err(err))
		return nil, apierr.ErrInternal.WithCause(err)
	}

	log = log.With(logger.UserID(user.ID))

	// Paso 5: challenge OTP. El registro guarda el challenge completo;
	// la firma que viaja al cliente va sin el código.
	code, err := otp.GenerateCode()
	if err != nil {
		return nil, apierr.ErrInternal.WithCause(err)
	}
	ts := s.now()
	if _, err := s.deps.OTPs.Upsert(ctx, repository.CreateOTPInput{
		UserID:  user.ID,
		Data:    otp.BuildWithCode(in.Email, ts, code),
		Code:    code,
		Purpose: repository.OTPPurposeDefault,
	}); err != nil {
		log.Error("otp persist failed", logger.Err(err))
		return nil, apierr.ErrInternal.WithCause(err)
	}
	metrics.OTPIssued.WithLabelValues("verification").Inc()

	// Paso 6: envío del código. Si el correo no sale, el registro falla:
	// no dejamos cuentas pendientes sin forma de verificarse.
	if err := s.deps.Mailer.SendOTP(ctx, email.OTPMessage{
		To:      in.Email,
		Name:    nameFromEmail(in.Email),
		Code:    code,
		TTLMins: int(s.deps.OTPTTL.Minutes()),
	}); err != nil {
		log.Error("otp email failed", logger.Err(err))
		return nil, apierr.ErrServiceUnavailable.WithCause(err)
	}

	// Paso 7: firma para el paso de verificación
	sig, err := s.deps.Signer.Encrypt(otp.Build(in.Email, ts))
	if err != nil {
		return nil, apierr.ErrInternal.WithCause(err)
	}

	log.Info("user registered")
	return &dto.SignatureResponse{Signature: sig}, nil
}
