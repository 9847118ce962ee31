package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/mail"
	"strings"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
	dto "github.com/dropDatabas3/cuentas/internal/http/dto/auth"
	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	jwtx "github.com/dropDatabas3/cuentas/internal/jwt"
	"github.com/dropDatabas3/cuentas/internal/observability/logger"
)

func normalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func validEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}

// nameFromEmail deriva un nombre de display del local-part:
// "juan.perez@x.com" -> "Juan Perez".
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	words := strings.Fields(local)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return email
	}
	return strings.Join(words, " ")
}

// slugify normaliza a minúsculas con guiones, solo [a-z0-9-].
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// randomDigits genera un número aleatorio de exactamente n dígitos.
func randomDigits(n int) (int, error) {
	low := 1
	for i := 1; i < n; i++ {
		low *= 10
	}
	span := int64(low*10 - low)
	v, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()) + low, nil
}

// newUsername genera "juan-perez-4821" a partir del email.
func newUsername(email string) (string, error) {
	suffix, err := randomDigits(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", slugify(nameFromEmail(email)), suffix), nil
}

// newReferralCode: 4 primeras letras del username + 2 dígitos ("MAHN14").
func newReferralCode(username string) (string, error) {
	base := strings.ToUpper(strings.ReplaceAll(username, "-", ""))
	if len(base) > 4 {
		base = base[:4]
	}
	suffix, err := randomDigits(2)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", base, suffix), nil
}

// transformPermissions colapsa el JSON de permisos del rol
// ({"mobile": {"wallet": {"read": true, "write": false}}}) en la forma
// plana que viaja en el token: access = AND de todos los flags.
func transformPermissions(raw string) jwtx.PermissionSet {
	var parsed map[string]map[string]map[string]bool
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return jwtx.PermissionSet{}
	}
	out := make(jwtx.PermissionSet, len(parsed))
	for surface, entries := range parsed {
		grants := make([]jwtx.PermissionGrant, 0, len(entries))
		for key, flags := range entries {
			access := true
			for _, v := range flags {
				access = access && v
			}
			grants = append(grants, jwtx.PermissionGrant{Key: key, Access: access})
		}
		out[surface] = grants
	}
	return out
}

// identityOf arma el snapshot que viaja dentro de los tokens.
func identityOf(user *repository.User) jwtx.Identity {
	name := user.Username
	if user.Profile != nil && user.Profile.Name != "" {
		name = user.Profile.Name
	}
	id := jwtx.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   name,
	}
	if user.Role != nil {
		id.Role = user.Role.Name
		id.Permissions = transformPermissions(user.Role.Permissions)
	}
	return id
}

// issueTokens emite el par access/refresh y persiste la sesión de
// refresh para (user, ip). Un login nuevo pisa la sesión anterior.
func (s *service) issueTokens(ctx context.Context, user *repository.User, ip string) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.tokens"),
		logger.UserID(user.ID),
	)

	access, refresh, err := s.deps.Issuer.IssuePair(identityOf(user))
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, apierr.ErrInternal.WithCause(err)
	}

	if err := s.deps.Sessions.Upsert(ctx, user.ID, refresh, ip); err != nil {
		log.Error("refresh session persist failed", logger.Err(err))
		return nil, apierr.ErrInternal.WithCause(err)
	}

	summary := dto.UserSummary{Email: user.Email, Username: user.Username}
	if user.Profile != nil {
		summary.Name = user.Profile.Name
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Data:         summary,
		ExpiredIn:    int64(s.deps.Issuer.AccessTTL.Seconds()),
	}, nil
}
