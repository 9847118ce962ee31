package middlewares

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/cuentas/internal/observability/logger"
)

// statusWriter captura el status code para el log de acceso.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Logging inyecta un logger scoped (request_id, ip) en el contexto y
// emite una línea de acceso por request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		scoped := logger.L().With(
			logger.RequestID(RequestIDFrom(r.Context())),
			logger.ClientIP(ClientIPFrom(r.Context())),
		)
		ctx := logger.ToContext(r.Context(), scoped)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		scoped.Info("http request",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(sw.status),
			logger.Duration(time.Since(start)),
		)
	})
}
