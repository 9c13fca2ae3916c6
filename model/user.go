package model

import "time"

// Role names as stored on users and referenced by policies. Policies match
// them exactly and case-sensitively.
const (
	RoleAdmin    = "Admin"
	RoleHR       = "HR"
	RoleManager  = "Manager"
	RoleEmployee = "Employee"
	RoleIntern   = "Intern"
	RoleAuditor  = "Auditor"
)

// KnownRoles lists the roles the portal ships with.
var KnownRoles = []string{RoleAdmin, RoleHR, RoleManager, RoleEmployee, RoleIntern, RoleAuditor}

// User is a stored credential record. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username" validate:"required,max=64"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role" validate:"required"`
	Department   string    `json:"department,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated subject a policy is evaluated against.
type Identity struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
}

func (u *User) Identity() Identity {
	return Identity{
		ID:         u.ID,
		Username:   u.Username,
		Role:       u.Role,
		Department: u.Department,
	}
}

// HasRole reports whether the identity holds one of the given roles.
func (i Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// RegisterRequest is the payload for creating a user account.
type RegisterRequest struct {
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Role       string `json:"role" binding:"required"`
	Department string `json:"department"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
