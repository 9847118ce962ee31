// Package otp genera códigos de un solo uso y arma/parsea el challenge
// que viaja cifrado dentro del sobre de firma.
//
// Formatos de challenge:
//
//	sin código:  "email|timestamp"
//	con código:  "email|timestamp|code"
//
// El timestamp es compacto, segundos en UTC: YYYYMMDDHHmmss.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout es el layout del timestamp embebido en el challenge.
const TimestampLayout = "20060102150405"

// CodeDigits es el largo fijo del código.
const CodeDigits = 6

// ErrMalformedChallenge indica que el payload descifrado no tiene la
// forma "email|timestamp[|code]".
var ErrMalformedChallenge = errors.New("otp: malformed challenge")

// Challenge es el payload parseado de un sobre de autenticación.
type Challenge struct {
	Email     string
	Timestamp time.Time
	Code      int  // válido solo si HasCode
	HasCode   bool
}

// GenerateCode genera un código de 6 dígitos (100000..999999) con
// crypto/rand.
func GenerateCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return 0, fmt.Errorf("otp: generate: %w", err)
	}
	return int(n.Int64()) + 100000, nil
}

// Timestamp formatea t como timestamp de challenge (UTC).
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Build arma el challenge sin código: "email|timestamp".
func Build(email string, at time.Time) string {
	return email + "|" + Timestamp(at)
}

// BuildWithCode arma el challenge completo: "email|timestamp|code".
func BuildWithCode(email string, at time.Time, code int) string {
	return fmt.Sprintf("%s|%s|%d", email, Timestamp(at), code)
}

// Parse descompone un challenge. Acepta 2 o 3 campos; valida que el
// timestamp parsee y que el código (si está) sea numérico.
func Parse(payload string) (*Challenge, error) {
	parts := strings.Split(payload, "|")
	if len(parts) != 2 && len(parts) != 3 {
		return nil, ErrMalformedChallenge
	}
	email := parts[0]
	if email == "" {
		return nil, ErrMalformedChallenge
	}
	ts, err := time.ParseInLocation(TimestampLayout, parts[1], time.UTC)
	if err != nil {
		return nil, ErrMalformedChallenge
	}
	ch := &Challenge{Email: email, Timestamp: ts}
	if len(parts) == 3 {
		code, err := strconv.Atoi(parts[2])
		if err != nil || code < 0 {
			return nil, ErrMalformedChallenge
		}
		ch.Code = code
		ch.HasCode = true
	}
	return ch, nil
}

// Expired indica si el challenge ya venció: la edad supera el ttl.
// Edad exactamente igual al ttl todavía es válida.
func (c *Challenge) Expired(now time.Time, ttl time.Duration) bool {
	return now.UTC().Sub(c.Timestamp) > ttl
}

// Remaining retorna cuánto falta para que el challenge venza
// (cooldown de reenvío). Negativo o cero significa que ya venció.
func (c *Challenge) Remaining(now time.Time, ttl time.Duration) time.Duration {
	return ttl - now.UTC().Sub(c.Timestamp)
}
