// Package identity holds the registry of platform users and answers
// identity queries: lookup by email or id, registration and the demo
// password check.
package identity

import (
	"fmt"

	"github.com/aavaaz-civic/platform/internal/shared/types"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleCitizen Role = "citizen" // files complaints and rates their resolution
	RoleAgent   Role = "agent"   // works assigned complaints to resolution
	RoleAdmin   Role = "admin"   // global read access and reporting
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleCitizen, RoleAgent, RoleAdmin}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleAgent, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User is a registered identity. Users are immutable once created.
type User struct {
	ID    types.ID `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  Role     `json:"role"`
}

func (u *User) IsCitizen() bool { return u != nil && u.Role == RoleCitizen }
func (u *User) IsAgent() bool   { return u != nil && u.Role == RoleAgent }
func (u *User) IsAdmin() bool   { return u != nil && u.Role == RoleAdmin }

// DemoUsers returns the seeded accounts of the demo environment.
func DemoUsers() []User {
	return []User{
		{ID: "1", Name: "Citizen User", Email: "citizen@example.com", Role: RoleCitizen},
		{ID: "2", Name: "Field Agent User", Email: "agent@example.com", Role: RoleAgent},
		{ID: "3", Name: "Admin User", Email: "admin@example.com", Role: RoleAdmin},
	}
}
