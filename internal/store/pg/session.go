package pg

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
)

type sessionRepo struct {
	pool *pgxpool.Pool
}

func newSessionRepo(pool *pgxpool.Pool) *sessionRepo {
	return &sessionRepo{pool: pool}
}

func (r *sessionRepo) Upsert(ctx context.Context, userID, token, ip string) error {
	// user_id es UNIQUE: un login nuevo pisa token e IP (last-write-wins)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_session (id, user_id, token, ip_address, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token, ip_address = EXCLUDED.ip_address, created_at = NOW()`,
		uuid.NewString(), userID, token, ip)
	if err != nil {
		return fmt.Errorf("pg: upsert session: %w", err)
	}
	return nil
}

func (r *sessionRepo) GetByToken(ctx context.Context, token, ip string) (*repository.RefreshSession, error) {
	var s repository.RefreshSession
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token, ip_address, created_at
		FROM refresh_session WHERE token = $1 AND ip_address = $2`,
		token, ip,
	).Scan(&s.ID, &s.UserID, &s.Token, &s.IPAddress, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) DeleteByUser(ctx context.Context, userID, ip string) (int, error) {
	query := `DELETE FROM refresh_session WHERE user_id = $1`
	args := []any{userID}
	if ip != "" {
		query += ` AND ip_address = $2`
		args = append(args, ip)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("pg: delete session: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
