package models

import (
	"time"
)

// Role is a user's privilege level
type Role string

const (
	RoleNone       Role = "none"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// User represents a Discord user with a balance
type User struct {
	DiscordID int64     `db:"discord_id"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	Role      Role      `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsAdmin returns true for admins and super admins
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// IsSuperAdmin returns true only for super admins
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}
