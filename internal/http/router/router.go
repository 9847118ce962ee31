// Package router arma el árbol de rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/dropDatabas3/cuentas/internal/http/controllers/auth"
	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	"github.com/dropDatabas3/cuentas/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/cuentas/internal/jwt"
	"github.com/dropDatabas3/cuentas/internal/observability/metrics"
	"github.com/dropDatabas3/cuentas/internal/rate"
)

// Limiters agrupa los rate limiters por acción. Cualquiera puede ser
// rate.NoopLimiter si Redis no está configurado.
type Limiters struct {
	SignIn    rate.Limiter
	SignUp    rate.Limiter
	VerifyOTP rate.Limiter
	ResendOTP rate.Limiter
	General   rate.Limiter
}

// Deps son las dependencias del router.
type Deps struct {
	Auth     *authctrl.Controller
	Issuer   *jwtx.Issuer
	Limiters Limiters
	Health   http.HandlerFunc
}

// New construye el router chi con el stack completo de middlewares.
func New(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middlewares.RealIP)
	r.Use(middlewares.RequestID)
	r.Use(middlewares.Logging)
	r.Use(middlewares.Recover)
	r.Use(metrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.ErrBadRequest.WithDetail("método no permitido"))
	})

	r.Get("/healthz", deps.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1/auth", func(r chi.Router) {
		r.With(middlewares.RateLimit(deps.Limiters.SignUp)).
			Post("/sign-up", deps.Auth.SignUp)
		r.With(middlewares.RateLimit(deps.Limiters.SignIn)).
			Post("/sign-in", deps.Auth.SignIn)
		r.With(middlewares.RateLimit(deps.Limiters.General)).
			Patch("/setup-pin", deps.Auth.SetupPIN)
		r.With(middlewares.RateLimit(deps.Limiters.General)).
			Post("/forgot-password", deps.Auth.ForgotPassword)
		r.With(middlewares.RateLimit(deps.Limiters.VerifyOTP)).
			Post("/verify-otp", deps.Auth.VerifyOTP)
		r.With(middlewares.RateLimit(deps.Limiters.ResendOTP)).
			Post("/resend-otp", deps.Auth.ResendOTP)
		r.With(middlewares.RateLimit(deps.Limiters.General)).
			Post("/reset-password", deps.Auth.ResetPassword)
		r.Post("/refresh-token", deps.Auth.Refresh)
		r.With(middlewares.RateLimit(deps.Limiters.General)).
			Post("/logout", deps.Auth.Logout)

		r.With(middlewares.Auth(deps.Issuer)).
			Get("/me", deps.Auth.Me)
	})

	return r
}
