package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Kind distingue qué secreto firma/valida el token.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

// ErrInvalidToken es el único error de validación: firma inválida,
// método no permitido, issuer equivocado, claims malformados o token
// vencido. No se distingue cuál chequeo falló.
var ErrInvalidToken = errors.New("jwt: invalid token")

// displayLayout es el formato de los strings de display date/expired.
const displayLayout = "Monday, January 2 2006, 3:04:05 PM"

// Issuer firma y valida tokens con el par de secretos HS256.
type Issuer struct {
	Iss           string
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// now es inyectable para tests.
	now func() time.Time
}

func NewIssuer(iss string, accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		Iss:           iss,
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (i *Issuer) secretAndTTL(kind Kind) ([]byte, time.Duration) {
	if kind == KindRefresh {
		return i.RefreshSecret, i.RefreshTTL
	}
	return i.AccessSecret, i.AccessTTL
}

// Issue emite un token del tipo pedido para la identidad dada.
func (i *Issuer) Issue(kind Kind, id Identity) (string, error) {
	secret, ttl := i.secretAndTTL(kind)
	now := i.now().UTC()
	exp := now.Add(ttl)

	claims := Claims{
		UserID:      id.UserID,
		Email:       id.Email,
		Name:        id.Name,
		Role:        id.Role,
		Permissions: id.Permissions,
		Date:        now.Format(displayLayout),
		Expired:     exp.Format(displayLayout),
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.Iss,
			Subject:   id.UserID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return tk.SignedString(secret)
}

// IssuePair emite access y refresh para la misma identidad.
func (i *Issuer) IssuePair(id Identity) (access, refresh string, err error) {
	if access, err = i.Issue(KindAccess, id); err != nil {
		return "", "", err
	}
	if refresh, err = i.Issue(KindRefresh, id); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Verify valida firma (HS256 con el secreto del kind), issuer y exp,
// y retorna las claims. Cualquier falla, incluida la expiración,
// colapsa en ErrInvalidToken.
func (i *Issuer) Verify(kind Kind, token string) (*Claims, error) {
	secret, _ := i.secretAndTTL(kind)
	claims := &Claims{}
	tok, err := jwtv5.ParseWithClaims(token, claims,
		func(t *jwtv5.Token) (any, error) { return secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
