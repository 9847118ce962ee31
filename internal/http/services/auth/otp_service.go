package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
	"github.com/dropDatabas3/cuentas/internal/email"
	dto "github.com/dropDatabas3/cuentas/internal/http/dto/auth"
	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	"github.com/dropDatabas3/cuentas/internal/observability/logger"
	"github.com/dropDatabas3/cuentas/internal/observability/metrics"
	"github.com/dropDatabas3/cuentas/internal/security/otp"
)

func (s *service) VerifyOTP(ctx context.Context, in dto.VerifyOTPRequest, ip string) (*dto.VerifyOTPResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.otp"),
		logger.Op("VerifyOTP"),
	)

	// Paso 1: abrir la firma
	ch, err := s.openSignature(in.Signature)
	if err != nil {
		return nil, err
	}

	log = log.With(logger.Email(ch.Email))

	// Paso 2: el dueño del challenge debe existir
	user, err := s.deps.Users.FindByParams(ctx,
		repository.FindUserParams{Email: ch.Email}, repository.MatchAll)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierr.ErrInvalidSignature
		}
		return nil, apierr.ErrInternal.WithCause(err)
	}

	// Paso 3: reconstruir el challenge completo. La firma de sign-up
	// viaja sin código; la de forgot-password lo trae embebido y debe
	// coincidir con el que tipeó el usuario.
	if ch.HasCode && ch.Code != in.Code {
		log.Debug("embedded code mismatch")
		return nil, apierr.ErrInvalidOTP
	}
	data := otp.BuildWithCode(ch.Email, ch.Timestamp, in.Code)

	// Paso 4: buscar el registro exacto
	rec, err := s.deps.OTPs.GetByData(ctx, data, &in.Code)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("otp not found")
			return nil, apierr.ErrInvalidOTP
		}
		return nil, apierr.ErrInternal.WithCause(err)
	}

	// Paso 5: vigencia contra created_at del registro (no contra el
	// timestamp del challenge: un resend refresca created_at)
	if s.now().Sub(rec.CreatedAt) > s.deps.OTPTTL {
		log.Debug("otp expired")
		return nil, apierr.ErrOTPExpired
	}

	// Paso 6: consumir. Activa la cuenta pendiente y borra el registro
	// en una sola transacción; un doble submit pierde la carrera acá.
	if err := s.deps.OTPs.Consume(ctx, rec); err != nil {
		if repository.IsNotFound(err) {
			log.Debug("otp already consumed")
			return nil, apierr.ErrInvalidOTP
		}
		return nil, apierr.ErrInternal.WithCause(err)
	}

	// Paso 7: único camino que convierte un OTP en credenciales:
	// par de tokens + sesión de refresh para este origen.
	tokens, err := s.issueTokens(ctx, user, ip)
	if err != nil {
		return nil, err
	}
	resp := &dto.VerifyOTPResponse{TokenResponse: tokens}

	// Paso 8: para reset-password, la firma que habilita el cambio de
	// contraseña viaja junto a los tokens.
	if rec.Purpose == repository.OTPPurposeResetPassword {
		sig, err := s.deps.Signer.Encrypt(otp.Build(user.Email, s.now()))
		if err != nil {
			return nil, apierr.ErrInternal.WithCause(err)
		}
		resp.Signature = sig
	}

	log.Info("otp verified", logger.UserID(user.ID))
	return resp, nil
}

func (s *service) ResendOTP(ctx context.Context, in dto.ResendOTPRequest) (*dto.SignatureResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.otp"),
		logger.Op("ResendOTP"),
	)

	// Paso 1: abrir la firma anterior
	ch, err := s.openSignature(in.Signature)
	if err != nil {
		return nil, err
	}

	log = log.With(logger.Email(ch.Email))

	// Paso 2: cooldown. Mientras el challenge anterior siga vigente no
	// se emite otro; el timestamp de la propia firma es el reloj.
	now := s.now()
	if !ch.Expired(now, s.deps.OTPTTL) {
		remaining := ch.Remaining(now, s.deps.OTPTTL)
		log.Debug("resend within cooldown", logger.Duration(remaining))
		return nil, apierr.ErrResendTooSoon.WithDetail(
			"podés pedir otro código " + formatRemaining(remaining))
	}

	// Paso 3: usuario
	user, err := s.deps.Users.FindByParams(ctx,
		repository.FindUserParams{Email: ch.Email}, repository.MatchAll)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierr.ErrUserNotFound
		}
		return nil, apierr.ErrInternal.WithCause(err)
	}

	// Paso 4: conservar el propósito del challenge anterior si su
	// registro sigue vivo (reset-password vs verificación)
	purpose := repository.OTPPurposeDefault
	if ch.HasCode {
		if prev, err := s.deps.OTPs.GetByData(ctx, otp.BuildWithCode(ch.Email, ch.Timestamp, ch.Code), nil); err == nil {
			purpose = prev.Purpose
		}
	}

	// Paso 5: nuevo challenge + envío
	sig, err := s.generateAndSendOTP(ctx, user, purpose)
	if err != nil {
		return nil, err
	}

	log.Info("otp resent", logger.UserID(user.ID))
	return &dto.SignatureResponse{Signature: sig}, nil
}

// generateAndSendOTP genera un challenge nuevo, lo persiste, envía el
// código por correo y retorna la firma (challenge completo cifrado).
func (s *service) generateAndSendOTP(ctx context.Context, user *repository.User, purpose string) (string, error) {
	code, err := otp.GenerateCode()
	if err != nil {
		return "", apierr.ErrInternal.WithCause(err)
	}
	data := otp.BuildWithCode(user.Email, s.now(), code)

	if _, err := s.deps.OTPs.Upsert(ctx, repository.CreateOTPInput{
		UserID:  user.ID,
		Data:    data,
		Code:    code,
		Purpose: purpose,
	}); err != nil {
		return "", apierr.ErrInternal.WithCause(err)
	}
	metrics.OTPIssued.WithLabelValues(purposeLabel(purpose)).Inc()

	name := user.Username
	if user.Profile != nil && user.Profile.Name != "" {
		name = user.Profile.Name
	}
	if err := s.deps.Mailer.SendOTP(ctx, email.OTPMessage{
		To:      user.Email,
		Name:    name,
		Code:    code,
		TTLMins: int(s.deps.OTPTTL.Minutes()),
		Reset:   purpose == repository.OTPPurposeResetPassword,
	}); err != nil {
		return "", apierr.ErrServiceUnavailable.WithCause(err)
	}

	sig, err := s.deps.Signer.Encrypt(data)
	if err != nil {
		return "", apierr.ErrInternal.WithCause(err)
	}
	return sig, nil
}

func purposeLabel(purpose string) string {
	if purpose == repository.OTPPurposeResetPassword {
		return "reset-password"
	}
	return "verification"
}

// formatRemaining: "en 2 minutos 15 segundos" / "en 40 segundos".
func formatRemaining(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	if secs < 60 {
		return fmt.Sprintf("en %d segundos", secs)
	}
	return fmt.Sprintf("en %d minutos %d segundos", secs/60, secs%60)
}
