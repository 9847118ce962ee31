// Package pg implementa los repositorios del dominio sobre PostgreSQL.
// Usa pgxpool directamente.
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
)

// Store agrupa los repositorios concretos sobre un pool compartido.
type Store struct {
	pool *pgxpool.Pool

	Users    repository.UserRepository
	Roles    repository.RoleRepository
	OTPs     repository.OTPRepository
	Sessions repository.RefreshSessionRepository
}

// Connect abre el pool, hace ping y construye los repositorios.
func Connect(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	} else {
		poolCfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}

	return &Store{
		pool:     pool,
		Users:    newUserRepo(pool),
		Roles:    newRoleRepo(pool),
		OTPs:     newOTPRepo(pool),
		Sessions: newSessionRepo(pool),
	}, nil
}

// Pool expone el pool subyacente (migraciones, health checks).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Close cierra el pool.
func (s *Store) Close() { s.pool.Close() }

// nullIfEmpty retorna nil si el string está vacío. Útil para columnas
// opcionales.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
