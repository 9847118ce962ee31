// Package middlewares contiene los middlewares HTTP del servicio.
package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"

	jwtx "github.com/dropDatabas3/cuentas/internal/jwt"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyClientIP
	ctxKeyClaims
)

// RequestIDFrom retorna el request ID inyectado por RequestID.
func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

// ClientIPFrom retorna la IP del cliente resuelta por RealIP.
func ClientIPFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyClientIP).(string)
	return v
}

// ClaimsFrom retorna las claims del access token (middleware Auth).
func ClaimsFrom(ctx context.Context) *jwtx.Claims {
	v, _ := ctx.Value(ctxKeyClaims).(*jwtx.Claims)
	return v
}

// RealIP resuelve la IP del cliente (X-Forwarded-For > X-Real-IP >
// RemoteAddr) y la deja en el contexto. La sesión de refresh se liga a
// este valor.
func RealIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ctx := context.WithValue(r.Context(), ctxKeyClientIP, ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// primer hop de la cadena
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
