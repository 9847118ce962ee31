// Package cache agrega una capa de caching in-memory sobre lecturas
// calientes del dominio. El rol default se consulta en cada sign-up;
// no tiene sentido ir a Postgres cada vez.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
)

const defaultRoleKey = "role:default"

// RoleCache envuelve un RoleRepository cacheando el rol default.
type RoleCache struct {
	inner repository.RoleRepository
	c     *gocache.Cache
}

// NewRoleCache crea el wrapper. ttl típico: 5 minutos.
func NewRoleCache(inner repository.RoleRepository, ttl time.Duration) *RoleCache {
	return &RoleCache{
		inner: inner,
		c:     gocache.New(ttl, 2*ttl),
	}
}

func (r *RoleCache) GetDefault(ctx context.Context) (*repository.Role, error) {
	if v, ok := r.c.Get(defaultRoleKey); ok {
		return v.(*repository.Role), nil
	}
	role, err := r.inner.GetDefault(ctx)
	if err != nil {
		return nil, err
	}
	r.c.SetDefault(defaultRoleKey, role)
	return role, nil
}

func (r *RoleCache) GetByID(ctx context.Context, roleID string) (*repository.Role, error) {
	if v, ok := r.c.Get("role:" + roleID); ok {
		return v.(*repository.Role), nil
	}
	role, err := r.inner.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	r.c.SetDefault("role:"+roleID, role)
	return role, nil
}

// Invalidate limpia el cache (tras seeds o cambios de roles).
func (r *RoleCache) Invalidate() { r.c.Flush() }
