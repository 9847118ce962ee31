package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
)

type roleRepo struct {
	pool *pgxpool.Pool
}

func newRoleRepo(pool *pgxpool.Pool) *roleRepo {
	return &roleRepo{pool: pool}
}

const roleSelect = `
	SELECT id, name, permissions, access, is_default, parent_id, created_at, updated_at
	FROM roles
`

func scanRole(row pgx.Row) (*repository.Role, error) {
	var role repository.Role
	err := row.Scan(&role.ID, &role.Name, &role.Permissions, &role.Access,
		&role.IsDefault, &role.ParentID, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) GetDefault(ctx context.Context) (*repository.Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, roleSelect+` WHERE is_default LIMIT 1`))
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: default role: %w", err)
	}
	return role, nil
}

func (r *roleRepo) GetByID(ctx context.Context, roleID string) (*repository.Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, roleSelect+` WHERE id = $1`, roleID))
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: role by id: %w", err)
	}
	return role, nil
}
