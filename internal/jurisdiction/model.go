package jurisdiction

import (
	"time"

	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Zila is a district, the top of the jurisdiction hierarchy
type Zila struct {
	ID        types.ID  `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Tehsil is a sub-district belonging to a zila
type Tehsil struct {
	ID        types.ID  `json:"id"`
	Name      string    `json:"name"`
	ZilaID    types.ID  `json:"zila_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MunicipalCommittee is an urban body inside a tehsil
type MunicipalCommittee struct {
	ID        types.ID  `json:"id"`
	Name      string    `json:"name"`
	ZilaID    types.ID  `json:"zila_id"`
	TehsilID  types.ID  `json:"tehsil_id"`
	CreatedAt time.Time `json:"created_at"`
}

// DistrictCouncil is the rural body of a zila. Each zila has at most one.
type DistrictCouncil struct {
	ID        types.ID  `json:"id"`
	Name      string    `json:"name"`
	ZilaID    types.ID  `json:"zila_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateZilaRequest is the payload for creating a zila
type CreateZilaRequest struct {
	Name string `json:"name"`
}

// CreateTehsilRequest is the payload for creating a tehsil
type CreateTehsilRequest struct {
	Name   string   `json:"name"`
	ZilaID types.ID `json:"zila_id"`
}

// CreateCommitteeRequest is the payload for creating a municipal committee
type CreateCommitteeRequest struct {
	Name     string   `json:"name"`
	ZilaID   types.ID `json:"zila_id"`
	TehsilID types.ID `json:"tehsil_id"`
}

// CreateCouncilRequest is the payload for creating a district council
type CreateCouncilRequest struct {
	Name   string   `json:"name"`
	ZilaID types.ID `json:"zila_id"`
}
