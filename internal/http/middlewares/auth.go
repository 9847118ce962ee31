package middlewares

import (
	"context"
	"net/http"
	"strings"

	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	jwtx "github.com/dropDatabas3/cuentas/internal/jwt"
)

// Auth exige un access token válido (Authorization: Bearer <jwt>) y
// deja las claims en el contexto.
func Auth(issuer *jwtx.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				apierr.WriteError(w, apierr.ErrTokenMissing)
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				apierr.WriteError(w, apierr.ErrTokenInvalid)
				return
			}

			claims, err := issuer.Verify(jwtx.KindAccess, token)
			if err != nil {
				apierr.WriteError(w, apierr.ErrTokenInvalid)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
