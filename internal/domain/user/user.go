package user

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for account lookup and registration.
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("user with this email already exists")
)

// Roles. Every account carries RoleUser; RoleAdmin additionally unlocks
// administrative routes and visibility into other users' orders.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. PasswordHash is a bcrypt hash and never
// leaves the service boundary.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return slices.Contains(u.Roles, RoleAdmin)
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
