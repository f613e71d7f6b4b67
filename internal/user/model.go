package user

import (
	"time"

	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// User represents an account in the system. Deactivated accounts keep
// their row so complaint history stays attributable.
type User struct {
	ID           types.ID `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email,omitempty"`
	PasswordHash string   `json:"-"`
	FullName     string   `json:"full_name"`
	Phone        string   `json:"phone,omitempty"`

	RoleID   types.ID `json:"role_id"`
	RoleName string   `json:"role,omitempty"`

	ZilaID            *types.ID `json:"zila_id,omitempty"`
	TehsilID          *types.ID `json:"tehsil_id,omitempty"`
	MCID              *types.ID `json:"mc_id,omitempty"`
	DistrictCouncilID *types.ID `json:"district_council_id,omitempty"`

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilter restricts user listings
type ListFilter struct {
	RoleIDs           []types.ID
	ZilaID            *types.ID
	TehsilID          *types.ID
	MCID              *types.ID
	DistrictCouncilID *types.ID
	ExcludeUserID     *types.ID
	ActiveOnly        bool
	Search            string
	Limit             int
	Offset            int
}

// CreateUserRequest is the payload officers use to create accounts
type CreateUserRequest struct {
	Username          string    `json:"username"`
	Password          string    `json:"password"`
	Email             string    `json:"email"`
	FullName          string    `json:"full_name"`
	Phone             string    `json:"phone"`
	Role              string    `json:"role"`
	ZilaID            *types.ID `json:"zila_id"`
	TehsilID          *types.ID `json:"tehsil_id"`
	MCID              *types.ID `json:"mc_id"`
	DistrictCouncilID *types.ID `json:"district_council_id"`
}

// UpdateUserRequest is the payload for updating an account
type UpdateUserRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

// RegisterRequest is the citizen self-registration payload
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// LoginRequest is the credential payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
