package auth

import (
	"context"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
	dto "github.com/dropDatabas3/cuentas/internal/http/dto/auth"
	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	jwtx "github.com/dropDatabas3/cuentas/internal/jwt"
	"github.com/dropDatabas3/cuentas/internal/observability/logger"
)

func (s *service) Refresh(ctx context.Context, in dto.RefreshTokenRequest, ip string) (*dto.AccessTokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("Refresh"),
	)

	if in.RefreshToken == "" {
		return nil, apierr.ErrMissingFields.WithDetail("refresh_token es requerido")
	}

	// Paso 1: la sesión tiene que existir para este token y origen.
	// Un token ausente del store se trata igual que uno forjado: el
	// cliente recibe el mismo error opaco.
	sess, err := s.deps.Sessions.GetByToken(ctx, in.RefreshToken, ip)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("refresh session not found", logger.ClientIP(ip))
			return nil, apierr.ErrTokenInvalid
		}
		return nil, apierr.ErrInternal.WithCause(err)
	}

	// Paso 2: el token en sí. Firma rota y expiración colapsan en el
	// mismo error del paso anterior.
	claims, err := s.deps.Issuer.Verify(jwtx.KindRefresh, sess.Token)
	if err != nil {
		log.Debug("refresh token rejected")
		return nil, apierr.ErrTokenInvalid
	}

	// Paso 3: access nuevo con el snapshot de identidad del refresh.
	// El refresh NO rota: sigue siendo el mismo hasta logout o expiry.
	access, err := s.deps.Issuer.Issue(jwtx.KindAccess, jwtx.Identity{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Name:        claims.Name,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	})
	if err != nil {
		log.Error("access token issue failed", logger.Err(err))
		return nil, apierr.ErrInternal.WithCause(err)
	}

	log.Info("access token refreshed", logger.UserID(claims.UserID))
	return &dto.AccessTokenResponse{AccessToken: access}, nil
}

func (s *service) Logout(ctx context.Context, in dto.RefreshTokenRequest, ip string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("Logout"),
	)

	if in.RefreshToken == "" {
		return apierr.ErrMissingFields.WithDetail("refresh_token es requerido")
	}

	// El token identifica al dueño; con eso alcanza para borrar la
	// sesión. Un token vencido no sirve ni para cerrarla.
	claims, err := s.deps.Issuer.Verify(jwtx.KindRefresh, in.RefreshToken)
	if err != nil {
		return apierr.ErrTokenInvalid
	}

	// Idempotente: si la sesión ya no estaba, logout igual responde OK
	deleted, err := s.deps.Sessions.DeleteByUser(ctx, claims.UserID, ip)
	if err != nil {
		return apierr.ErrInternal.WithCause(err)
	}

	log.Info("logout", logger.UserID(claims.UserID), logger.Count(deleted))
	return nil
}
