package domain

import (
	"context"
	"time"

	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// ScopeFilter restricts queries to the caller's jurisdiction. Nil
// fields are unconstrained. A scope with CreatedBy set restricts to the
// caller's own complaints; AssignedTo restricts to their work queue.
type ScopeFilter struct {
	ZilaID            *types.ID
	TehsilID          *types.ID
	MCID              *types.ID
	DistrictCouncilID *types.ID
	AreaType          *AreaType
	CreatedBy         *types.ID
	AssignedTo        *types.ID
}

// Matches reports whether a complaint falls inside the scope
func (s ScopeFilter) Matches(c *Complaint) bool {
	if s.ZilaID != nil && c.ZilaID != *s.ZilaID {
		return false
	}
	if s.TehsilID != nil && c.TehsilID != *s.TehsilID {
		return false
	}
	if s.MCID != nil && (c.MCID == nil || *c.MCID != *s.MCID) {
		return false
	}
	if s.DistrictCouncilID != nil && (c.DistrictCouncilID == nil || *c.DistrictCouncilID != *s.DistrictCouncilID) {
		return false
	}
	if s.AreaType != nil && c.AreaType != *s.AreaType {
		return false
	}
	if s.CreatedBy != nil && c.CreatedBy != *s.CreatedBy {
		return false
	}
	if s.AssignedTo != nil && (c.AssignedToUserID == nil || *c.AssignedToUserID != *s.AssignedTo) {
		return false
	}
	return true
}

// ListFilter holds caller-supplied list options applied inside the scope
type ListFilter struct {
	Status     *Status
	CategoryID *types.ID
	Search     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// TransitionFields carries the columns a status transition writes in the
// same statement that flips the status
type TransitionFields struct {
	AssignedToUserID   *types.ID
	AssignedToRole     *string
	AssignedAt         *time.Time
	ClearAssignment    bool
	ResolutionNote     *string
	ResolutionImage    *string
	ResolutionLocation *types.Point
	RemarkByDC         *string
	RejectedBy         *types.ID
	RejectedAt         *time.Time
	CompletedBy        *types.ID
	CompletedAt        *time.Time
}

// Repository defines persistence for complaints. Transitions are
// compare-and-set: the status check and the update happen in one
// conditional statement and the matched-row count is returned, so two
// racing writers cannot both succeed.
type Repository interface {
	// Save persists a new complaint
	Save(ctx context.Context, c *Complaint) error

	// Find retrieves a complaint without scope checks
	Find(ctx context.Context, id types.ID) (*Complaint, error)

	// FindScoped retrieves a complaint visible inside the scope
	FindScoped(ctx context.Context, id types.ID, scope ScopeFilter) (*Complaint, error)

	// List returns complaints inside the scope with the total count
	List(ctx context.Context, scope ScopeFilter, filter ListFilter) ([]Complaint, int, error)

	// MarkSeen flags every unseen complaint inside the scope and
	// returns how many rows changed
	MarkSeen(ctx context.Context, scope ScopeFilter) (int64, error)

	// Assign sets the assignee and moves the complaint to progress,
	// only when its status is in from and no assignee is set. Returns
	// the matched-row count.
	Assign(ctx context.Context, id types.ID, scope ScopeFilter, from []Status, assigneeID types.ID, assigneeRole string, at time.Time) (int64, error)

	// Transition moves the complaint to target when its status is in
	// from, writing fields in the same statement. Returns the
	// matched-row count.
	Transition(ctx context.Context, id types.ID, scope ScopeFilter, from []Status, target Status, fields TransitionFields) (int64, error)

	// Delete removes a complaint inside the scope and returns the
	// matched-row count
	Delete(ctx context.Context, id types.ID, scope ScopeFilter) (int64, error)
}
