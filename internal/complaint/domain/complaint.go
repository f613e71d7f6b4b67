package domain

import (
	"fmt"
	"time"

	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Status defines the lifecycle status of a complaint
type Status string

const (
	StatusPending           Status = "pending"
	StatusProgress          Status = "progress"
	StatusResolveByEmployee Status = "resolveByEmployee"
	StatusResolved          Status = "resolved"
	StatusRejected          Status = "rejected"
	StatusCompleted         Status = "completed"
	StatusClosed            Status = "closed"
	StatusDelayed           Status = "delayed"
)

// AreaType distinguishes urban and rural complaints. It decides which
// officer chain handles the complaint.
type AreaType string

const (
	AreaCity    AreaType = "City"
	AreaVillage AreaType = "Village"
)

// Complaint is the aggregate root of the complaint lifecycle
type Complaint struct {
	ID          types.ID  `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  *types.ID `json:"category_id,omitempty"`
	Image       string    `json:"image,omitempty"`

	// Location
	Location     *types.Point `json:"location,omitempty"`
	LocationName string       `json:"location_name,omitempty"`

	// Jurisdiction
	AreaType          AreaType  `json:"area_type"`
	ZilaID            types.ID  `json:"zila_id"`
	TehsilID          types.ID  `json:"tehsil_id"`
	MCID              *types.ID `json:"mc_id,omitempty"`
	DistrictCouncilID *types.ID `json:"district_council_id,omitempty"`

	// Lifecycle
	CreatedBy        types.ID   `json:"created_by"`
	AssignedToUserID *types.ID  `json:"assigned_to_user_id,omitempty"`
	AssignedToRole   string     `json:"assigned_to_role,omitempty"`
	AssignedAt       *time.Time `json:"assigned_at,omitempty"`
	Status           Status     `json:"status"`
	Seen             bool       `json:"seen"`

	// Resolution evidence
	ResolutionImage    string       `json:"resolution_image,omitempty"`
	ResolutionNote     string       `json:"resolution_note,omitempty"`
	ResolutionLocation *types.Point `json:"resolution_location,omitempty"`

	// Review outcome
	RemarkByDC  string     `json:"remark_by_dc,omitempty"`
	RejectedBy  *types.ID  `json:"rejected_by,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	CompletedBy *types.ID  `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewComplaint creates a pending complaint with validation. The title
// is optional, the description is what the complaint stands on.
func NewComplaint(
	title, description string,
	areaType AreaType,
	zilaID, tehsilID types.ID,
	createdBy types.ID,
) (*Complaint, error) {
	if description == "" {
		return nil, fmt.Errorf("description is required")
	}
	if areaType != AreaCity && areaType != AreaVillage {
		return nil, fmt.Errorf("area type must be %s or %s", AreaCity, AreaVillage)
	}
	if zilaID.IsZero() {
		return nil, fmt.Errorf("zila is required")
	}
	if tehsilID.IsZero() {
		return nil, fmt.Errorf("tehsil is required")
	}
	if createdBy.IsZero() {
		return nil, fmt.Errorf("creator is required")
	}

	now := time.Now()
	return &Complaint{
		ID:          types.NewID(),
		Title:       title,
		Description: description,
		AreaType:    areaType,
		ZilaID:      zilaID,
		TehsilID:    tehsilID,
		CreatedBy:   createdBy,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// validSources maps each target status to the statuses it may be
// reached from. Assignment (pending -> progress) is handled separately
// because it also requires an empty assignee slot.
var validSources = map[Status][]Status{
	StatusProgress:          {StatusPending},
	StatusResolveByEmployee: {StatusProgress},
	StatusResolved:          {StatusResolveByEmployee},
	StatusRejected:          {StatusResolveByEmployee, StatusResolved},
	StatusCompleted:         {StatusResolved},
	StatusClosed:            {StatusResolved},
	StatusDelayed:           {StatusPending, StatusProgress},
}

// ValidStatus reports whether s is a known lifecycle status
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProgress, StatusResolveByEmployee,
		StatusResolved, StatusRejected, StatusCompleted,
		StatusClosed, StatusDelayed:
		return true
	}
	return false
}

// ValidSources returns the statuses a complaint may hold before moving
// to the target status
func ValidSources(target Status) []Status {
	return validSources[target]
}

// CanTransition reports whether a complaint in from may move to target
func CanTransition(from, target Status) bool {
	for _, s := range validSources[target] {
		if s == from {
			return true
		}
	}
	return false
}

// AssignableFrom returns the source statuses assignment accepts.
// Reassignment after rejection is a deployment policy switch.
func AssignableFrom(allowReassignAfterReject bool) []Status {
	if allowReassignAfterReject {
		return []Status{StatusPending, StatusRejected}
	}
	return []Status{StatusPending}
}
