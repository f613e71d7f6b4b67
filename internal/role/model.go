package role

import (
	"time"

	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Canonical role names. Stored uppercase, compared case-sensitively.
const (
	DC                      = "DC"
	AC                      = "AC"
	MCCO                    = "MC_CO"
	MCEmployee              = "MC_EMPLOYEE"
	DistrictCouncilOfficer  = "DISTRICT_COUNCIL_OFFICER"
	DistrictCouncilEmployee = "DISTRICT_COUNCIL_EMPLOYEE"
	Citizen                 = "USER"
)

// Role represents a role definition. Roles are deactivated rather than
// removed so historical references stay resolvable.
type Role struct {
	ID        types.ID  `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRoleRequest is the payload for creating a role
type CreateRoleRequest struct {
	Name string `json:"name"`
}

// UpdateRoleRequest is the payload for renaming a role
type UpdateRoleRequest struct {
	Name string `json:"name"`
}
