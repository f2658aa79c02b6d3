package models

import (
	"fmt"
	"strings"
)

// Role is the single role a user holds. The zero value is not a valid role.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
)

// ParseRole converts s into a Role, rejecting anything outside the three known values.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// IsStaff reports whether the role may create and manage tasks.
func (r Role) IsStaff() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// User represents an account in the system.
// It maps to the `users` table in SQLite.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         Role   `db:"role" json:"role"`
}
