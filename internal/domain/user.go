package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the role carried by an authenticated session.
type Role string

const (
	RoleEngineer Role = "engineer"
	RoleClient   Role = "client"
	RoleAdmin    Role = "admin"
)

// UserID is a value object for user identity.
type UserID struct{ uuid.UUID }

// NewUserID creates a new UserID from uuid.
func NewUserID(id uuid.UUID) UserID { return UserID{UUID: id} }

// String returns the canonical string form.
func (u UserID) String() string { return u.UUID.String() }

// User is an account whose identity was established by the login system.
type User struct {
	ID           UserID
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
