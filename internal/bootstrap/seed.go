// Package bootstrap contiene los pasos de arranque que preparan la
// base de datos para operar: el seed del rol default, principalmente.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultPermissions es el set mínimo con el que nace un usuario:
// acceso a su propio perfil en mobile, nada más.
const defaultPermissions = `{
  "mobile": {
    "profile":  {"read": true, "write": true},
    "wallet":   {"read": true, "write": false},
    "referral": {"read": true, "write": false}
  }
}`

// SeedDefaultRole crea el rol "user" como default si todavía no hay un
// rol default. Es idempotente: correrlo de nuevo no hace nada.
func SeedDefaultRole(ctx context.Context, pool *pgxpool.Pool) (created bool, err error) {
	var exists bool
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE is_default)`,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("bootstrap: check default role: %w", err)
	}
	if exists {
		return false, nil
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO roles (id, name, permissions, access, is_default)
		VALUES ($1, 'user', $2::jsonb, 0, TRUE)
		ON CONFLICT (name) DO UPDATE SET is_default = TRUE`,
		uuid.NewString(), defaultPermissions)
	if err != nil {
		return false, fmt.Errorf("bootstrap: seed default role: %w", err)
	}
	return true, nil
}
