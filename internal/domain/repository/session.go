package repository

import (
	"context"
	"time"
)

// RefreshSession representa el refresh token vigente de un usuario.
// A lo sumo una fila por user_id: un nuevo login reemplaza token e IP
// (last-write-wins, sin lock optimista).
type RefreshSession struct {
	ID        string
	UserID    string
	Token     string
	IPAddress string
	CreatedAt time.Time
}

// RefreshSessionRepository define operaciones sobre sesiones de refresh.
type RefreshSessionRepository interface {
	// Upsert inserta la sesión, o si ya existe una fila para user_id
	// actualiza token e ip_address in place.
	Upsert(ctx context.Context, userID, token, ip string) error

	// GetByToken busca la sesión por token e IP de origen.
	// Retorna ErrNotFound si no existe.
	GetByToken(ctx context.Context, token, ip string) (*RefreshSession, error)

	// DeleteByUser elimina la sesión del usuario (y opcionalmente la IP,
	// si ip no es vacía). Retorna la cantidad de filas eliminadas.
	DeleteByUser(ctx context.Context, userID, ip string) (int, error)
}
