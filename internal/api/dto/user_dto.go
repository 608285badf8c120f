package dto

import (
	"time"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID                string        `json:"id"`
	Email             string        `json:"email"`
	Name              string        `json:"name"`
	Role              domain.Role   `json:"role"`
	AdditionalRoles   []domain.Role `json:"additional_roles"`
	CustomPermissions []string      `json:"custom_permissions"`
	Permissions       []string      `json:"permissions,omitempty"`
	Department        string        `json:"department"`
	SubDepartment     string        `json:"sub_department,omitempty"`
	ManagerID         *string       `json:"manager_id"`
	SlackUserID       string        `json:"slack_user_id,omitempty"`
	Active            bool          `json:"active"`
	CreatedAt         time.Time     `json:"created_at"`
}

// CreateUserRequest payload for admin-created accounts.
type CreateUserRequest struct {
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	Password      string      `json:"password"`
	Role          domain.Role `json:"role"`
	Department    string      `json:"department"`
	SubDepartment string      `json:"sub_department"`
	ManagerID     *string     `json:"manager_id"`
	SlackUserID   string      `json:"slack_user_id"`
}

// SetManagerRequest payload. A null manager clears the link.
type SetManagerRequest struct {
	ManagerID *string `json:"manager_id"`
}

// SetPermissionsRequest payload. An empty list restores role permissions.
type SetPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}
