package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	// Create inserts the user, returning ErrEmailTaken when the email is
	// already registered.
	Create(ctx context.Context, user User) (User, error)
	// CreateIfAbsent inserts the user unless one with the same email
	// already exists, in which case the existing user is returned. Two
	// concurrent calls with the same unseen email must produce exactly one
	// row, with both callers observing it.
	CreateIfAbsent(ctx context.Context, user User) (User, error)
}

// Role enumerates user roles.
type Role string

const (
	// RoleUser is an ordinary patron.
	RoleUser Role = "user"
	// RoleLibrarian can administer the catalog.
	RoleLibrarian Role = "librarian"
)

// User represents a registered or lazily provisioned patron.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
