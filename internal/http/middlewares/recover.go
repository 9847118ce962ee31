package middlewares

import (
	"net/http"

	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	"github.com/dropDatabas3/cuentas/internal/observability/logger"
)

// Recover atrapa panics de los handlers y responde 500 con el envelope
// estándar en vez de cortar la conexión.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic recovered",
					logger.Path(r.URL.Path),
					logger.Any("panic", rec),
				)
				apierr.WriteError(w, apierr.ErrInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
