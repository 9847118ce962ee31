// Package jwt emite y valida los tokens de acceso y refresh del
// servicio de cuentas. Ambos son HS256 con secretos independientes:
// un refresh token jamás valida como access token ni viceversa.
package jwt

import (
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// PermissionGrant es un permiso puntual dentro de una superficie.
type PermissionGrant struct {
	Key    string `json:"key"`
	Access bool   `json:"access"`
}

// PermissionSet agrupa permisos por superficie ("mobile", "app", ...).
type PermissionSet map[string][]PermissionGrant

// Claims son los claims embebidos en cada token emitido.
// date/expired son strings de display para el cliente; la validación
// real usa iat/exp.
type Claims struct {
	UserID      string        `json:"id"`
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	Role        string        `json:"role"`
	Permissions PermissionSet `json:"permissions"`
	Date        string        `json:"date"`
	Expired     string        `json:"expired"`
	jwtv5.RegisteredClaims
}

// Identity es el snapshot de usuario que viaja dentro del token.
type Identity struct {
	UserID      string
	Email       string
	Name        string
	Role        string
	Permissions PermissionSet
}
