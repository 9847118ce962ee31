package middlewares

import (
	"fmt"
	"net/http"

	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	"github.com/dropDatabas3/cuentas/internal/observability/logger"
	"github.com/dropDatabas3/cuentas/internal/rate"
)

// RateLimit aplica un limiter por IP de cliente a la ruta que envuelve.
// Si el limiter falla (Redis caído) el request pasa: preferimos seguir
// operativos sin límite a tirar login para todo el mundo.
func RateLimit(limiter rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), ClientIPFrom(r.Context()))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter.Seconds())+1))
				apierr.WriteError(w, apierr.ErrRateLimitExceeded)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
