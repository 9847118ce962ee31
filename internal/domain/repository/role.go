package repository

import (
	"context"
	"time"
)

// Role representa un rol con su set de permisos serializado.
type Role struct {
	ID          string
	Name        string
	Permissions string // JSON crudo: {"mobile": {...}, "app": {...}}
	Access      int    // 0: all, 1: mobile, 2: admin, 3: website
	IsDefault   bool
	ParentID    *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// RoleRepository define operaciones de lectura sobre roles.
type RoleRepository interface {
	// GetDefault retorna el rol marcado como default.
	// Retorna ErrNotFound si no hay ninguno.
	GetDefault(ctx context.Context) (*Role, error)

	// GetByID busca un rol por ID.
	GetByID(ctx context.Context, roleID string) (*Role, error)
}
