package models

import "github.com/google/uuid"

type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RolePlayer UserRole = "PLAYER"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RolePlayer
}

// Actor is the authenticated caller of an operation. Identity is issued elsewhere;
// the services only authorize against it.
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Role   UserRole  `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
