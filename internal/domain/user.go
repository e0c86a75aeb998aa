package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role carried by an actor
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is reference data owned by the external identity system
type User struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      *string    `json:"name,omitempty" db:"name"`
	Email     string     `json:"email" db:"email"`
	Role      Role       `json:"role" db:"role"`
	Avatar    *string    `json:"avatar,omitempty" db:"avatar"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// Actor is the identity on whose behalf an operation runs.
// A nil *Actor means an anonymous caller.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the actor holds the admin role
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Owns reports whether the actor is the given owner
func (a *Actor) Owns(ownerID uuid.UUID) bool {
	return a != nil && a.UserID == ownerID
}

// RequireActor returns ErrUnauthenticated for anonymous callers
func RequireActor(a *Actor) error {
	if a == nil || a.UserID == uuid.Nil {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAdmin returns ErrUnauthenticated or ErrPermissionDenied unless the actor is an admin
func RequireAdmin(a *Actor) error {
	if err := RequireActor(a); err != nil {
		return err
	}
	if !a.IsAdmin() {
		return Denied("admin access required")
	}
	return nil
}

type actorKey struct{}

// WithActor stores the actor in the context
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor stored in the context, or nil
func ActorFromContext(ctx context.Context) *Actor {
	a, _ := ctx.Value(actorKey{}).(*Actor)
	return a
}

// UserRepository reads user reference data (excludes soft-deleted)
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Count(ctx context.Context) (int, error)
}
