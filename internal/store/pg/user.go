package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
)

type userRepo struct {
	pool *pgxpool.Pool
}

func newUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

const userSelect = `
	SELECT u.id, u.email, u.username, COALESCE(u.password_hash, ''), u.pin,
	       u.role_id, u.referral_code, u.type, u.status, u.created_at, u.updated_at,
	       r.id, r.name, r.permissions, r.access, r.is_default, r.parent_id, r.created_at, r.updated_at,
	       p.id, COALESCE(p.picture, ''), COALESCE(p.phone, ''), COALESCE(p.name, ''),
	       COALESCE(p.province, ''), COALESCE(p.city, ''), COALESCE(p.district, '')
	FROM users u
	JOIN roles r ON r.id = u.role_id
	LEFT JOIN user_profile p ON p.user_id = u.id
`

func scanUser(row pgx.Row) (*repository.User, error) {
	var (
		u         repository.User
		role      repository.Role
		profileID *string
		profile   repository.Profile
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.PIN,
		&u.RoleID, &u.ReferralCode, &u.Type, &u.Status, &u.CreatedAt, &u.UpdatedAt,
		&role.ID, &role.Name, &role.Permissions, &role.Access, &role.IsDefault,
		&role.ParentID, &role.CreatedAt, &role.UpdatedAt,
		&profileID, &profile.Picture, &profile.Phone, &profile.Name,
		&profile.Province, &profile.City, &profile.District,
	)
	if err != nil {
		return nil, err
	}
	u.Role = &role
	if profileID != nil {
		profile.ID = *profileID
		profile.UserID = u.ID
		u.Profile = &profile
	}
	return &u, nil
}

func (r *userRepo) FindByParams(ctx context.Context, params repository.FindUserParams, mode repository.MatchMode) (*repository.User, error) {
	var (
		conds []string
		args  []any
	)
	add := func(expr, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}
	add("u.id = $%d", params.ID)
	add("u.email = $%d", params.Email)
	add("p.phone = $%d", params.Phone)
	if len(conds) == 0 {
		return nil, repository.ErrInvalidInput
	}

	join := " AND "
	if mode == repository.MatchAny {
		join = " OR "
	}
	query := userSelect + " WHERE " + strings.Join(conds, join) + " LIMIT 1"

	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: find user: %w", err)
	}
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1. ¿Existe ya una cuenta con este email?
	var existingID string
	var existingStatus int
	err = tx.QueryRow(ctx,
		`SELECT id, status FROM users WHERE email = $1 FOR UPDATE`,
		input.Email,
	).Scan(&existingID, &existingStatus)
	switch {
	case err == pgx.ErrNoRows:
		existingID = ""
	case err != nil:
		return nil, fmt.Errorf("pg: create user: lookup: %w", err)
	case existingStatus == repository.StatusActive:
		return nil, repository.ErrConflict
	}

	userID := existingID
	if userID == "" {
		// 2a. Alta nueva
		userID = uuid.NewString()
		_, err = tx.Exec(ctx, `
			INSERT INTO users (id, email, username, password_hash, role_id, referral_code, type, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
			userID, input.Email, input.Username, nullIfEmpty(input.PasswordHash),
			input.RoleID, input.ReferralCode, input.Type, repository.StatusPending,
		)
		if err != nil {
			return nil, fmt.Errorf("pg: create user: insert: %w", err)
		}
	} else {
		// 2b. Cuenta no activa con el mismo email: se reutiliza la fila
		// en vez de duplicar. Pisa credenciales y vuelve a pendiente.
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET username = $2, password_hash = $3, role_id = $4,
			    referral_code = $5, type = $6, status = $7, updated_at = NOW()
			WHERE id = $1`,
			userID, input.Username, nullIfEmpty(input.PasswordHash),
			input.RoleID, input.ReferralCode, input.Type, repository.StatusPending,
		)
		if err != nil {
			return nil, fmt.Errorf("pg: create user: reuse: %w", err)
		}
	}

	// 3. Profile en la misma transacción
	_, err = tx.Exec(ctx, `
		INSERT INTO user_profile (id, user_id, name, phone, picture)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name, phone = EXCLUDED.phone, picture = EXCLUDED.picture`,
		uuid.NewString(), userID, input.ProfileName, nullIfEmpty(input.Phone), nullIfEmpty(input.Picture),
	)
	if err != nil {
		return nil, fmt.Errorf("pg: create user: profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("pg: create user: commit: %w", err)
	}
	return r.FindByParams(ctx, repository.FindUserParams{ID: userID}, repository.MatchAll)
}

func (r *userRepo) Patch(ctx context.Context, userID string, input repository.PatchUserInput) error {
	if input.UserFields.IsZero() && input.ProfileFields.IsZero() {
		return repository.ErrInvalidInput
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if !input.UserFields.IsZero() {
		var (
			sets []string
			args []any
		)
		set := func(col string, val any) {
			args = append(args, val)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
		f := input.UserFields
		if f.PIN != nil {
			set("pin", *f.PIN)
		}
		if f.PasswordHash != nil {
			set("password_hash", *f.PasswordHash)
		}
		if f.Status != nil {
			set("status", *f.Status)
		}
		if f.Username != nil {
			set("username", *f.Username)
		}
		sets = append(sets, "updated_at = NOW()")
		args = append(args, userID)
		query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d",
			strings.Join(sets, ", "), len(args))

		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("pg: patch user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
	}

	if !input.ProfileFields.IsZero() {
		var (
			sets []string
			args []any
		)
		set := func(col string, val any) {
			args = append(args, val)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
		f := input.ProfileFields
		if f.Name != nil {
			set("name", *f.Name)
		}
		if f.Phone != nil {
			set("phone", *f.Phone)
		}
		if f.Picture != nil {
			set("picture", *f.Picture)
		}
		if f.Province != nil {
			set("province", *f.Province)
		}
		if f.City != nil {
			set("city", *f.City)
		}
		if f.District != nil {
			set("district", *f.District)
		}
		args = append(args, userID)
		query := fmt.Sprintf("UPDATE user_profile SET %s WHERE user_id = $%d",
			strings.Join(sets, ", "), len(args))

		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("pg: patch profile: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: patch user: commit: %w", err)
	}
	return nil
}

func (r *userRepo) SetStatus(ctx context.Context, userID string, status int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`,
		userID, status)
	if err != nil {
		return fmt.Errorf("pg: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
