// Package repository define interfaces de acceso a datos.
package repository

import (
	"context"
	"time"
)

// Estados de cuenta.
const (
	StatusPending     = 0 // registrado, OTP no verificado
	StatusActive      = 1
	StatusSuspended   = 2
	StatusDeactivated = 3
)

// Tipos de login.
const (
	LoginTypePassword = 0
	LoginTypeGoogle   = 1
	LoginTypeFacebook = 2
)

// User representa un usuario del sistema.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	PIN          *int
	RoleID       string
	Role         *Role
	ReferralCode string
	Type         int // LoginType*
	Status       int // Status*
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	Profile      *Profile
}

// Profile representa los datos extendidos del usuario (tabla user_profile).
type Profile struct {
	ID       string
	UserID   string
	Picture  string
	Phone    string
	Name     string
	Province string
	City     string
	District string
}

// MatchMode indica cómo combinar los criterios de búsqueda.
type MatchMode string

const (
	MatchAll MatchMode = "AND"
	MatchAny MatchMode = "OR"
)

// FindUserParams son los criterios soportados para buscar un usuario.
// Lista explícita: cada campo vacío se ignora. No hay búsqueda por
// campos arbitrarios.
type FindUserParams struct {
	ID    string
	Email string
	Phone string
}

// CreateUserInput contiene los datos para crear un usuario con su profile.
type CreateUserInput struct {
	Email        string
	PasswordHash string // vacío para cuentas sociales
	Username     string
	ReferralCode string
	RoleID       string
	Type         int
	Phone        string
	ProfileName  string
	Picture      string
}

// PatchUserInput es un patch parcial con allow-list explícita por tabla.
// Los campos nil no se tocan. UserFields va a la tabla users,
// ProfileFields a user_profile; ambas en la misma transacción.
type PatchUserInput struct {
	UserFields    UserPatch
	ProfileFields ProfilePatch
}

// UserPatch son los campos parcheables de la tabla users.
type UserPatch struct {
	PIN          *int
	PasswordHash *string
	Status       *int
	Username     *string
}

// ProfilePatch son los campos parcheables de la tabla user_profile.
type ProfilePatch struct {
	Name     *string
	Phone    *string
	Picture  *string
	Province *string
	City     *string
	District *string
}

// IsZero indica si el patch no toca ningún campo.
func (p UserPatch) IsZero() bool {
	return p.PIN == nil && p.PasswordHash == nil && p.Status == nil && p.Username == nil
}

// IsZero indica si el patch no toca ningún campo.
func (p ProfilePatch) IsZero() bool {
	return p.Name == nil && p.Phone == nil && p.Picture == nil &&
		p.Province == nil && p.City == nil && p.District == nil
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// FindByParams busca un usuario combinando los criterios con AND u OR.
	// Incluye rol y profile. Retorna ErrNotFound si no existe.
	FindByParams(ctx context.Context, params FindUserParams, mode MatchMode) (*User, error)

	// Create crea el usuario y su profile en una sola transacción.
	// Si ya existe una cuenta NO activa con el mismo email, la reutiliza
	// (sobrescribe) en lugar de duplicar. Retorna ErrConflict si el email
	// pertenece a una cuenta activa.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// Patch aplica un patch parcial a users y/o user_profile en una
	// transacción. Retorna ErrNotFound si el usuario no existe.
	Patch(ctx context.Context, userID string, input PatchUserInput) error

	// SetStatus cambia el estado de la cuenta.
	SetStatus(ctx context.Context, userID string, status int) error
}
