package domain

import "time"

// Role is the privilege level of a directory entry.
type Role string

const (
	RoleStandard Role = "user"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a wire value onto a known role.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleStandard:
		return RoleStandard, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// User is a directory entry. PinHash never leaves the service boundary.
type User struct {
	ID         string
	NationalID string
	FullName   string
	PinHash    string
	Role       Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsStandard reports whether the user is subject to attendance tracking.
func (u User) IsStandard() bool {
	return u.Role == RoleStandard
}
