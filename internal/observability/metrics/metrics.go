// Package metrics expone las métricas Prometheus del servicio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cuentas",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Requests HTTP por ruta, método y status.",
	}, []string{"route", "method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cuentas",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latencia de requests HTTP.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// OTPIssued cuenta códigos emitidos por propósito.
	OTPIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cuentas",
		Subsystem: "auth",
		Name:      "otp_issued_total",
		Help:      "Códigos OTP emitidos.",
	}, []string{"purpose"})

	// LoginsTotal cuenta intentos de login por resultado.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cuentas",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Intentos de sign-in por resultado.",
	}, []string{"result"})
)

// Handler expone /metrics.
func Handler() http.Handler { return promhttp.Handler() }

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware instrumenta los requests con counter + histograma. Usa el
// patrón de ruta de chi ("/v1/auth/sign-in"), no el path crudo, para
// no explotar la cardinalidad.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
