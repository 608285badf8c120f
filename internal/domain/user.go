package domain

import (
	"strings"
	"time"
)

// Role enumerates portal roles. Roles carry no inheritance; permission sets
// are looked up by exact tag.
type Role string

const (
	RoleOwner      Role = "Owner"
	RoleAdmin      Role = "Admin"
	RoleHead       Role = "Head"
	RoleManager    Role = "Manager"
	RoleSupervisor Role = "Supervisor"
	RoleAgent      Role = "Agent"
	RoleViewer     Role = "Viewer"
)

// Roles lists every known role in display order.
var Roles = []Role{RoleOwner, RoleAdmin, RoleHead, RoleManager, RoleSupervisor, RoleAgent, RoleViewer}

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User is a staff member of the portal.
type User struct {
	ID                string
	Email             string
	Name              string
	PasswordHash      string
	Role              Role
	AdditionalRoles   []Role
	CustomPermissions []string
	Department        string
	SubDepartment     string
	ManagerID         *string
	SlackUserID       string
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NormalizeEmail lowercases and trims an address for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
