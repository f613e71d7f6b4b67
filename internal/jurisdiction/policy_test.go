package jurisdiction

import (
	"testing"

	"github.com/lodhran-gov/complaints/internal/complaint/domain"
	"github.com/lodhran-gov/complaints/internal/role"
	"github.com/lodhran-gov/complaints/internal/shared/auth"
	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

func identityWith(roleName string, zila, tehsil, mc, council *types.ID) *auth.Identity {
	return &auth.Identity{
		UserID:            types.NewID(),
		RoleName:          roleName,
		ZilaID:            zila,
		TehsilID:          tehsil,
		MCID:              mc,
		DistrictCouncilID: council,
	}
}

func TestPoliciesCoverAllRoles(t *testing.T) {
	policies := NewPolicies()
	for _, name := range []string{
		role.DC, role.AC, role.MCCO, role.MCEmployee,
		role.DistrictCouncilOfficer, role.DistrictCouncilEmployee, role.Citizen,
	} {
		p, ok := policies.For(name)
		if !ok {
			t.Fatalf("no policy for %s", name)
		}
		if p.RoleName() != name {
			t.Errorf("policy for %s reports role %s", name, p.RoleName())
		}
	}

	if _, ok := policies.For("NO_SUCH_ROLE"); ok {
		t.Error("unknown role must have no policy")
	}
}

func TestDCScope(t *testing.T) {
	policies := NewPolicies()
	dc, _ := policies.For(role.DC)
	zila := types.NewID()

	scope, err := dc.Scope(identityWith(role.DC, &zila, nil, nil, nil))
	if err != nil {
		t.Fatalf("Scope: %v", err)
	}
	if scope.ZilaID == nil || *scope.ZilaID != zila {
		t.Error("DC scope must pin the zila")
	}
	if scope.AreaType != nil {
		t.Error("DC scope must not restrict area type")
	}
	if !dc.MarksSeen() {
		t.Error("DC listing must mark complaints seen")
	}
}

func TestScopeRequiresJurisdiction(t *testing.T) {
	policies := NewPolicies()

	tests := []struct {
		roleName  string
		attribute string
	}{
		{role.DC, "zila"},
		{role.AC, "tehsil"},
		{role.MCCO, "tehsil"},
		{role.DistrictCouncilOfficer, "zila"},
	}

	for _, tt := range tests {
		t.Run(tt.roleName, func(t *testing.T) {
			p, _ := policies.For(tt.roleName)
			if p.RequiredAttribute() != tt.attribute {
				t.Errorf("required attribute = %s, want %s", p.RequiredAttribute(), tt.attribute)
			}

			_, err := p.Scope(identityWith(tt.roleName, nil, nil, nil, nil))
			appErr, ok := err.(*errors.AppError)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != "JURISDICTION_NOT_ASSIGNED" {
				t.Errorf("expected JURISDICTION_NOT_ASSIGNED, got %s", appErr.Code)
			}
		})
	}
}

func TestMCOfficerScopeIsUrban(t *testing.T) {
	policies := NewPolicies()
	p, _ := policies.For(role.MCCO)
	tehsil := types.NewID()
	mc := types.NewID()

	scope, err := p.Scope(identityWith(role.MCCO, nil, &tehsil, &mc, nil))
	if err != nil {
		t.Fatalf("Scope: %v", err)
	}
	if scope.AreaType == nil || *scope.AreaType != domain.AreaCity {
		t.Error("MC officer scope must restrict to city complaints")
	}
	if scope.MCID == nil || *scope.MCID != mc {
		t.Error("MC officer scope must pin the committee when assigned")
	}
	if p.EmployeeRole() != role.MCEmployee {
		t.Errorf("MC officer must assign to %s", role.MCEmployee)
	}
}

func TestCouncilOfficerScopeIsRural(t *testing.T) {
	policies := NewPolicies()
	p, _ := policies.For(role.DistrictCouncilOfficer)
	zila := types.NewID()

	scope, err := p.Scope(identityWith(role.DistrictCouncilOfficer, &zila, nil, nil, nil))
	if err != nil {
		t.Fatalf("Scope: %v", err)
	}
	if scope.AreaType == nil || *scope.AreaType != domain.AreaVillage {
		t.Error("council officer scope must restrict to village complaints")
	}
	if !p.CanOverrideStatus() {
		t.Error("council officer must be able to override status")
	}
}

func TestEmployeeScopeIsOwnQueue(t *testing.T) {
	policies := NewPolicies()
	for _, name := range []string{role.MCEmployee, role.DistrictCouncilEmployee} {
		p, _ := policies.For(name)
		caller := identityWith(name, nil, nil, nil, nil)

		scope, err := p.Scope(caller)
		if err != nil {
			t.Fatalf("Scope(%s): %v", name, err)
		}
		if scope.AssignedTo == nil || *scope.AssignedTo != caller.UserID {
			t.Errorf("%s scope must pin the assignee", name)
		}
		if !p.CanResolve() {
			t.Errorf("%s must be able to resolve", name)
		}
		if p.MarksSeen() {
			t.Errorf("%s listing must not mark seen", name)
		}
	}
}

func TestCitizenScopeIsOwnComplaints(t *testing.T) {
	policies := NewPolicies()
	p, _ := policies.For(role.Citizen)
	caller := identityWith(role.Citizen, nil, nil, nil, nil)

	scope, err := p.Scope(caller)
	if err != nil {
		t.Fatalf("Scope: %v", err)
	}
	if scope.CreatedBy == nil || *scope.CreatedBy != caller.UserID {
		t.Error("citizen scope must pin the creator")
	}
}

func TestEmployeeInScope(t *testing.T) {
	policies := NewPolicies()
	tehsil := types.NewID()
	otherTehsil := types.NewID()
	zila := types.NewID()
	otherZila := types.NewID()

	mcco, _ := policies.For(role.MCCO)
	officer := identityWith(role.MCCO, nil, &tehsil, nil, nil)
	if !mcco.EmployeeInScope(officer, nil, &tehsil, nil, nil) {
		t.Error("employee in same tehsil must be in scope")
	}
	if mcco.EmployeeInScope(officer, nil, &otherTehsil, nil, nil) {
		t.Error("employee in another tehsil must be out of scope")
	}
	if mcco.EmployeeInScope(officer, nil, nil, nil, nil) {
		t.Error("employee without tehsil must be out of scope")
	}

	mc := types.NewID()
	otherMC := types.NewID()
	pinnedOfficer := identityWith(role.MCCO, nil, &tehsil, &mc, nil)
	if !mcco.EmployeeInScope(pinnedOfficer, nil, &tehsil, &mc, nil) {
		t.Error("employee of the officer's committee must be in scope")
	}
	if mcco.EmployeeInScope(pinnedOfficer, nil, &tehsil, &otherMC, nil) {
		t.Error("employee of another committee must be out of scope")
	}
	if mcco.EmployeeInScope(pinnedOfficer, nil, &tehsil, nil, nil) {
		t.Error("employee without a committee must be out of a pinned officer's scope")
	}

	dco, _ := policies.For(role.DistrictCouncilOfficer)
	councilOfficer := identityWith(role.DistrictCouncilOfficer, &zila, nil, nil, nil)
	if !dco.EmployeeInScope(councilOfficer, &zila, nil, nil, nil) {
		t.Error("employee in same zila must be in scope")
	}
	if dco.EmployeeInScope(councilOfficer, &otherZila, nil, nil, nil) {
		t.Error("employee in another zila must be out of scope")
	}
}

func TestLifecycleCapabilities(t *testing.T) {
	policies := NewPolicies()

	tests := []struct {
		roleName  string
		canCreate bool
		canReview bool
		canClose  bool
	}{
		{role.DC, false, true, true},
		{role.AC, false, true, false},
		{role.MCCO, false, true, false},
		{role.DistrictCouncilOfficer, false, true, false},
		{role.MCEmployee, false, false, false},
		{role.DistrictCouncilEmployee, false, false, false},
		{role.Citizen, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.roleName, func(t *testing.T) {
			p, _ := policies.For(tt.roleName)
			if p.CanCreate() != tt.canCreate {
				t.Errorf("CanCreate = %v, want %v", p.CanCreate(), tt.canCreate)
			}
			if p.CanReview() != tt.canReview {
				t.Errorf("CanReview = %v, want %v", p.CanReview(), tt.canReview)
			}
			if p.CanClose() != tt.canClose {
				t.Errorf("CanClose = %v, want %v", p.CanClose(), tt.canClose)
			}
		})
	}
}

func TestManagedRoles(t *testing.T) {
	policies := NewPolicies()

	dc, _ := policies.For(role.DC)
	if len(dc.ManagedRoles()) != 5 {
		t.Errorf("DC must manage 5 roles, got %v", dc.ManagedRoles())
	}

	citizen, _ := policies.For(role.Citizen)
	if len(citizen.ManagedRoles()) != 0 {
		t.Error("citizens must manage no roles")
	}
}
