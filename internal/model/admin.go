package model

import "time"

// Admin roles recognized by the backend.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleSupport    = "SUPPORT"
)

// AdminUser is an administrative account on the platform.
type AdminUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is the signed-in user's authentication context. It is
// passed explicitly to the realtime session and the API client rather
// than read from ambient global state.
type Identity struct {
	// UserID is the admin account id.
	UserID string

	// Role is the admin role string.
	Role string

	// Credential is the bearer token issued at login.
	Credential string
}

// LoginResponse is the wire shape of a successful login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  AdminUser `json:"user"`
}
