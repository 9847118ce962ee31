package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
)

type otpRepo struct {
	pool *pgxpool.Pool
}

func newOTPRepo(pool *pgxpool.Pool) *otpRepo {
	return &otpRepo{pool: pool}
}

func (r *otpRepo) Upsert(ctx context.Context, input repository.CreateOTPInput) (*repository.OTPRecord, error) {
	rec := &repository.OTPRecord{
		UserID:  input.UserID,
		Data:    input.Data,
		Code:    input.Code,
		Purpose: input.Purpose,
	}
	// data es UNIQUE: dos solicitudes con el mismo identity+timestamp
	// (mismo segundo) colapsan en una fila, gana la última.
	err := r.pool.QueryRow(ctx, `
		INSERT INTO otp_code (id, user_id, data, code, purpose, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (data) DO UPDATE
		SET code = EXCLUDED.code, purpose = EXCLUDED.purpose, created_at = NOW()
		RETURNING id, created_at`,
		uuid.NewString(), input.UserID, input.Data, input.Code, input.Purpose,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("pg: upsert otp: %w", err)
	}
	return rec, nil
}

func (r *otpRepo) GetByData(ctx context.Context, data string, code *int) (*repository.OTPRecord, error) {
	query := `
		SELECT id, user_id, data, code, purpose, created_at
		FROM otp_code WHERE data = $1`
	args := []any{data}
	if code != nil {
		query += ` AND code = $2`
		args = append(args, *code)
	}

	var rec repository.OTPRecord
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&rec.ID, &rec.UserID, &rec.Data, &rec.Code, &rec.Purpose, &rec.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get otp: %w", err)
	}
	return &rec, nil
}

func (r *otpRepo) Consume(ctx context.Context, record *repository.OTPRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1. Activar la cuenta si seguía pendiente (no toca otros estados)
	_, err = tx.Exec(ctx,
		`UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		record.UserID, repository.StatusActive, repository.StatusPending)
	if err != nil {
		return fmt.Errorf("pg: consume otp: activate: %w", err)
	}

	// 2. El DELETE es el árbitro: dos Consume concurrentes sobre el
	// mismo registro, solo uno borra la fila; el otro ve 0 filas.
	tag, err := tx.Exec(ctx, `DELETE FROM otp_code WHERE id = $1`, record.ID)
	if err != nil {
		return fmt.Errorf("pg: consume otp: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: consume otp: commit: %w", err)
	}
	return nil
}

func (r *otpRepo) DeleteExpired(ctx context.Context, ttl time.Duration) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM otp_code WHERE created_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int(ttl.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("pg: delete expired otps: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
