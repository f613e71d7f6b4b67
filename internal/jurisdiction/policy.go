package jurisdiction

import (
	"github.com/lodhran-gov/complaints/internal/complaint/domain"
	"github.com/lodhran-gov/complaints/internal/role"
	"github.com/lodhran-gov/complaints/internal/shared/auth"
	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Policy describes what one role may see and do with complaints. Every
// request path resolves the caller's policy from the lookup table, so
// role behavior lives here instead of being scattered across handlers.
type Policy interface {
	// RoleName is the canonical role this policy serves
	RoleName() string

	// RequiredAttribute names the jurisdiction field the role scopes
	// by, empty when the role carries none
	RequiredAttribute() string

	// Scope builds the complaint visibility filter for the caller.
	// Fails with a jurisdiction error when the required attribute is
	// missing from the identity.
	Scope(caller *auth.Identity) (domain.ScopeFilter, error)

	// MarksSeen reports whether listing complaints marks them seen
	MarksSeen() bool

	// EmployeeRole returns the role this officer assigns work to,
	// empty when the role cannot assign
	EmployeeRole() string

	// EmployeeInScope checks an employee's jurisdiction against the
	// assigning officer's
	EmployeeInScope(caller *auth.Identity, empZila, empTehsil, empMC, empCouncil *types.ID) bool

	// CanCreate reports whether the role files new complaints
	CanCreate() bool

	// CanResolve reports whether the role submits field resolutions
	CanResolve() bool

	// CanReview reports whether the role approves and rejects field
	// resolutions
	CanReview() bool

	// CanClose reports whether the role completes or closes resolved
	// complaints
	CanClose() bool

	// CanOverrideStatus reports whether the role may set an arbitrary
	// valid status
	CanOverrideStatus() bool

	// CanDelete reports whether the role may delete complaints inside
	// its scope
	CanDelete() bool

	// ManagedRoles lists the subordinate roles visible to this role in
	// user management
	ManagedRoles() []string
}

// Policies is the role name to policy lookup table
type Policies struct {
	byRole map[string]Policy
}

// NewPolicies builds the policy table for the fixed role set
func NewPolicies() *Policies {
	all := []Policy{
		dcPolicy{},
		acPolicy{},
		mcOfficerPolicy{},
		councilOfficerPolicy{},
		employeePolicy{name: role.MCEmployee},
		employeePolicy{name: role.DistrictCouncilEmployee},
		citizenPolicy{},
	}

	byRole := make(map[string]Policy, len(all))
	for _, p := range all {
		byRole[p.RoleName()] = p
	}
	return &Policies{byRole: byRole}
}

// For returns the policy for a role name
func (p *Policies) For(roleName string) (Policy, bool) {
	policy, ok := p.byRole[roleName]
	return policy, ok
}

// basePolicy supplies the defaults most roles share
type basePolicy struct{}

func (basePolicy) MarksSeen() bool         { return false }
func (basePolicy) EmployeeRole() string    { return "" }
func (basePolicy) CanCreate() bool         { return false }
func (basePolicy) CanResolve() bool        { return false }
func (basePolicy) CanReview() bool         { return false }
func (basePolicy) CanClose() bool          { return false }
func (basePolicy) CanOverrideStatus() bool { return false }
func (basePolicy) CanDelete() bool         { return false }
func (basePolicy) ManagedRoles() []string  { return nil }

func (basePolicy) EmployeeInScope(caller *auth.Identity, empZila, empTehsil, empMC, empCouncil *types.ID) bool {
	return false
}

// --- DC: district-wide oversight ---

type dcPolicy struct{ basePolicy }

func (dcPolicy) RoleName() string          { return role.DC }
func (dcPolicy) RequiredAttribute() string { return "zila" }
func (dcPolicy) MarksSeen() bool           { return true }
func (dcPolicy) CanReview() bool           { return true }
func (dcPolicy) CanClose() bool            { return true }
func (dcPolicy) CanOverrideStatus() bool   { return true }
func (dcPolicy) CanDelete() bool           { return true }

func (dcPolicy) Scope(caller *auth.Identity) (domain.ScopeFilter, error) {
	if caller.ZilaID == nil {
		return domain.ScopeFilter{}, errors.JurisdictionNotAssigned("zila")
	}
	return domain.ScopeFilter{ZilaID: caller.ZilaID}, nil
}

func (dcPolicy) ManagedRoles() []string {
	return []string{role.AC, role.MCCO, role.MCEmployee, role.DistrictCouncilOfficer, role.DistrictCouncilEmployee}
}

// --- AC: tehsil-wide oversight ---

type acPolicy struct{ basePolicy }

func (acPolicy) RoleName() string          { return role.AC }
func (acPolicy) RequiredAttribute() string { return "tehsil" }
func (acPolicy) MarksSeen() bool           { return true }
func (acPolicy) CanReview() bool           { return true }

func (acPolicy) Scope(caller *auth.Identity) (domain.ScopeFilter, error) {
	if caller.TehsilID == nil {
		return domain.ScopeFilter{}, errors.JurisdictionNotAssigned("tehsil")
	}
	return domain.ScopeFilter{TehsilID: caller.TehsilID}, nil
}

func (acPolicy) ManagedRoles() []string {
	return []string{role.MCCO, role.MCEmployee}
}

// --- MC chief officer: urban complaints in the tehsil ---

type mcOfficerPolicy struct{ basePolicy }

func (mcOfficerPolicy) RoleName() string          { return role.MCCO }
func (mcOfficerPolicy) RequiredAttribute() string { return "tehsil" }
func (mcOfficerPolicy) EmployeeRole() string      { return role.MCEmployee }
func (mcOfficerPolicy) CanReview() bool           { return true }
func (mcOfficerPolicy) CanDelete() bool           { return false }

func (mcOfficerPolicy) Scope(caller *auth.Identity) (domain.ScopeFilter, error) {
	if caller.TehsilID == nil {
		return domain.ScopeFilter{}, errors.JurisdictionNotAssigned("tehsil")
	}
	city := domain.AreaCity
	scope := domain.ScopeFilter{TehsilID: caller.TehsilID, AreaType: &city}
	if caller.MCID != nil {
		scope.MCID = caller.MCID
	}
	return scope, nil
}

func (mcOfficerPolicy) EmployeeInScope(caller *auth.Identity, empZila, empTehsil, empMC, empCouncil *types.ID) bool {
	if caller.TehsilID == nil || empTehsil == nil {
		return false
	}
	if *caller.TehsilID != *empTehsil {
		return false
	}
	// An officer tied to one committee only assigns its own employees.
	if caller.MCID != nil {
		return empMC != nil && *caller.MCID == *empMC
	}
	return true
}

func (mcOfficerPolicy) ManagedRoles() []string {
	return []string{role.MCEmployee}
}

// --- District council officer: rural complaints in the zila ---

type councilOfficerPolicy struct{ basePolicy }

func (councilOfficerPolicy) RoleName() string          { return role.DistrictCouncilOfficer }
func (councilOfficerPolicy) RequiredAttribute() string { return "zila" }
func (councilOfficerPolicy) EmployeeRole() string      { return role.DistrictCouncilEmployee }
func (councilOfficerPolicy) CanReview() bool           { return true }
func (councilOfficerPolicy) CanOverrideStatus() bool   { return true }

func (councilOfficerPolicy) Scope(caller *auth.Identity) (domain.ScopeFilter, error) {
	if caller.ZilaID == nil {
		return domain.ScopeFilter{}, errors.JurisdictionNotAssigned("zila")
	}
	village := domain.AreaVillage
	scope := domain.ScopeFilter{ZilaID: caller.ZilaID, AreaType: &village}
	if caller.DistrictCouncilID != nil {
		scope.DistrictCouncilID = caller.DistrictCouncilID
	}
	return scope, nil
}

func (councilOfficerPolicy) EmployeeInScope(caller *auth.Identity, empZila, empTehsil, empMC, empCouncil *types.ID) bool {
	if caller.ZilaID == nil || empZila == nil {
		return false
	}
	return *caller.ZilaID == *empZila
}

func (councilOfficerPolicy) ManagedRoles() []string {
	return []string{role.DistrictCouncilEmployee}
}

// --- Field employees: only their own work queue ---

type employeePolicy struct {
	basePolicy
	name string
}

func (p employeePolicy) RoleName() string          { return p.name }
func (p employeePolicy) RequiredAttribute() string { return "" }
func (p employeePolicy) CanResolve() bool          { return true }

func (p employeePolicy) Scope(caller *auth.Identity) (domain.ScopeFilter, error) {
	return domain.ScopeFilter{AssignedTo: &caller.UserID}, nil
}

// --- Citizens: only their own complaints ---

type citizenPolicy struct{ basePolicy }

func (citizenPolicy) RoleName() string          { return role.Citizen }
func (citizenPolicy) RequiredAttribute() string { return "" }
func (citizenPolicy) CanCreate() bool           { return true }
func (citizenPolicy) CanDelete() bool           { return true }

func (citizenPolicy) Scope(caller *auth.Identity) (domain.ScopeFilter, error) {
	return domain.ScopeFilter{CreatedBy: &caller.UserID}, nil
}
