// Package auth contiene los controllers HTTP de autenticación: decodean
// el request, delegan en el service y escriben el envelope.
package auth

import (
	"encoding/json"
	"net/http"

	dto "github.com/dropDatabas3/cuentas/internal/http/dto/auth"
	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	"github.com/dropDatabas3/cuentas/internal/http/middlewares"
	authsvc "github.com/dropDatabas3/cuentas/internal/http/services/auth"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Controller agrupa los handlers de /v1/auth.
type Controller struct {
	svc authsvc.Service
}

func New(svc authsvc.Service) *Controller {
	return &Controller{svc: svc}
}

// decodeJSON decodea el body en dst con límite de tamaño.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierr.WriteError(w, apierr.ErrInvalidJSON)
		return false
	}
	return true
}

func (c *Controller) SignUp(w http.ResponseWriter, r *http.Request) {
	var in dto.SignUpRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	resp, err := c.svc.SignUp(r.Context(), in)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteSuccess(w, apierr.CodeCreated, "Registro exitoso, verificá tu correo", resp)
}

func (c *Controller) SignIn(w http.ResponseWriter, r *http.Request) {
	var in dto.SignInRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := c.svc.SignIn(r.Context(), in, middlewares.ClientIPFrom(r.Context()))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	if res.PINRequired {
		apierr.WriteSuccess(w, apierr.CodeAcceptedPINSetup,
			"Necesitás configurar un PIN antes de usar tu cuenta",
			dto.SignatureResponse{Signature: res.Signature})
		return
	}
	apierr.WriteSuccess(w, apierr.CodeOK, "Success", res.Tokens)
}

func (c *Controller) SetupPIN(w http.ResponseWriter, r *http.Request) {
	var in dto.SetupPINRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	tokens, already, err := c.svc.SetupPIN(r.Context(), in, middlewares.ClientIPFrom(r.Context()))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	msg := "PIN configurado"
	if already {
		msg = "Tu cuenta ya tiene un PIN configurado"
	}
	apierr.WriteSuccess(w, apierr.CodeOK, msg, tokens)
}

func (c *Controller) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var in dto.VerifyOTPRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	resp, err := c.svc.VerifyOTP(r.Context(), in, middlewares.ClientIPFrom(r.Context()))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteSuccess(w, apierr.CodeOK, "Código verificado", resp)
}

func (c *Controller) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var in dto.ResendOTPRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	resp, err := c.svc.ResendOTP(r.Context(), in)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteSuccess(w, apierr.CodeOK, "Código reenviado", resp)
}

func (c *Controller) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in dto.ForgotPasswordRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	resp, err := c.svc.ForgotPassword(r.Context(), in)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteSuccess(w, apierr.CodeOK, "Código enviado a tu correo", resp)
}

func (c *Controller) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in dto.ResetPasswordRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	tokens, err := c.svc.ResetPassword(r.Context(), in, middlewares.ClientIPFrom(r.Context()))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteSuccess(w, apierr.CodeOK, "Contraseña actualizada", tokens)
}

func (c *Controller) Refresh(w http.ResponseWriter, r *http.Request) {
	var in dto.RefreshTokenRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	resp, err := c.svc.Refresh(r.Context(), in, middlewares.ClientIPFrom(r.Context()))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteSuccess(w, apierr.CodeOK, "Success", resp)
}

func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	var in dto.RefreshTokenRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := c.svc.Logout(r.Context(), in, middlewares.ClientIPFrom(r.Context())); err != nil {
		apierr.WriteError(w, err)
		return
	}
	apierr.WriteSuccess(w, apierr.CodeOK, "Sesión cerrada", nil)
}

// Me devuelve el snapshot de identidad del access token presentado.
// Requiere el middleware Auth.
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	claims := middlewares.ClaimsFrom(r.Context())
	if claims == nil {
		apierr.WriteError(w, apierr.ErrTokenMissing)
		return
	}
	apierr.WriteSuccess(w, apierr.CodeOK, "Success", map[string]any{
		"id":          claims.UserID,
		"email":       claims.Email,
		"name":        claims.Name,
		"role":        claims.Role,
		"permissions": claims.Permissions,
	})
}
