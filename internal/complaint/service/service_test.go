package service

import (
	"context"
	"testing"
	"time"

	"github.com/lodhran-gov/complaints/internal/complaint/domain"
	"github.com/lodhran-gov/complaints/internal/jurisdiction"
	"github.com/lodhran-gov/complaints/internal/role"
	"github.com/lodhran-gov/complaints/internal/shared/auth"
	"github.com/lodhran-gov/complaints/internal/shared/config"
	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
	"github.com/lodhran-gov/complaints/internal/user"
)

// --- Fakes ---

type fakeRepo struct {
	complaints map[types.ID]*domain.Complaint
	seenCalls  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{complaints: make(map[types.ID]*domain.Complaint)}
}

func (f *fakeRepo) Save(ctx context.Context, c *domain.Complaint) error {
	copied := *c
	f.complaints[c.ID] = &copied
	return nil
}

func (f *fakeRepo) Find(ctx context.Context, id types.ID) (*domain.Complaint, error) {
	c, ok := f.complaints[id]
	if !ok {
		return nil, errors.NotFound("complaint", id.String())
	}
	copied := *c
	return &copied, nil
}

func (f *fakeRepo) FindScoped(ctx context.Context, id types.ID, scope domain.ScopeFilter) (*domain.Complaint, error) {
	c, ok := f.complaints[id]
	if !ok || !scope.Matches(c) {
		return nil, errors.NotFound("complaint", id.String())
	}
	copied := *c
	return &copied, nil
}

func (f *fakeRepo) List(ctx context.Context, scope domain.ScopeFilter, filter domain.ListFilter) ([]domain.Complaint, int, error) {
	var out []domain.Complaint
	for _, c := range f.complaints {
		if !scope.Matches(c) {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeRepo) MarkSeen(ctx context.Context, scope domain.ScopeFilter) (int64, error) {
	f.seenCalls++
	var n int64
	for _, c := range f.complaints {
		if scope.Matches(c) && !c.Seen {
			c.Seen = true
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) Assign(ctx context.Context, id types.ID, scope domain.ScopeFilter, from []domain.Status, assigneeID types.ID, assigneeRole string, at time.Time) (int64, error) {
	c, ok := f.complaints[id]
	if !ok || !scope.Matches(c) || c.AssignedToUserID != nil || !statusIn(c.Status, from) {
		return 0, nil
	}
	c.AssignedToUserID = &assigneeID
	c.AssignedToRole = assigneeRole
	c.AssignedAt = &at
	c.Status = domain.StatusProgress
	return 1, nil
}

func (f *fakeRepo) Transition(ctx context.Context, id types.ID, scope domain.ScopeFilter, from []domain.Status, target domain.Status, fields domain.TransitionFields) (int64, error) {
	c, ok := f.complaints[id]
	if !ok || !scope.Matches(c) || !statusIn(c.Status, from) {
		return 0, nil
	}
	c.Status = target
	if fields.ClearAssignment {
		c.AssignedToUserID = nil
		c.AssignedToRole = ""
		c.AssignedAt = nil
	}
	if fields.ResolutionNote != nil {
		c.ResolutionNote = *fields.ResolutionNote
	}
	if fields.ResolutionImage != nil {
		c.ResolutionImage = *fields.ResolutionImage
	}
	if fields.ResolutionLocation != nil {
		c.ResolutionLocation = fields.ResolutionLocation
	}
	if fields.RemarkByDC != nil {
		c.RemarkByDC = *fields.RemarkByDC
	}
	if fields.RejectedBy != nil {
		c.RejectedBy = fields.RejectedBy
	}
	if fields.RejectedAt != nil {
		c.RejectedAt = fields.RejectedAt
	}
	if fields.CompletedBy != nil {
		c.CompletedBy = fields.CompletedBy
	}
	if fields.CompletedAt != nil {
		c.CompletedAt = fields.CompletedAt
	}
	return 1, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id types.ID, scope domain.ScopeFilter) (int64, error) {
	c, ok := f.complaints[id]
	if !ok || !scope.Matches(c) {
		return 0, nil
	}
	delete(f.complaints, id)
	return 1, nil
}

type fakeCouncils struct {
	tehsils  map[types.ID]*jurisdiction.Tehsil
	councils map[types.ID]*jurisdiction.DistrictCouncil
}

func (f *fakeCouncils) GetTehsil(ctx context.Context, id types.ID) (*jurisdiction.Tehsil, error) {
	t, ok := f.tehsils[id]
	if !ok {
		return nil, errors.NotFound("tehsil", id.String())
	}
	return t, nil
}

func (f *fakeCouncils) GetCouncilByZila(ctx context.Context, zilaID types.ID) (*jurisdiction.DistrictCouncil, error) {
	c, ok := f.councils[zilaID]
	if !ok {
		return nil, errors.NotFound("district council", zilaID.String())
	}
	return c, nil
}

type fakeEmployees struct {
	users map[types.ID]*user.User
}

func (f *fakeEmployees) FindActive(ctx context.Context, id types.ID) (*user.User, error) {
	u, ok := f.users[id]
	if !ok || !u.Active {
		return nil, errors.NotFound("user", id.String())
	}
	return u, nil
}

type fakeNotifier struct {
	created  int
	assigned int
	changed  []string
}

func (f *fakeNotifier) ComplaintCreated(ctx context.Context, c *domain.Complaint) { f.created++ }
func (f *fakeNotifier) ComplaintAssigned(ctx context.Context, c *domain.Complaint, employeeID types.ID) {
	f.assigned++
}
func (f *fakeNotifier) StatusChanged(ctx context.Context, c *domain.Complaint, from, to domain.Status, actorID types.ID) {
	f.changed = append(f.changed, string(from)+">"+string(to))
}

type fakeRecorder struct {
	actions []string
}

func (f *fakeRecorder) Record(ctx context.Context, action string, performedBy types.ID, targetID types.ID, targetType string, meta map[string]any) {
	f.actions = append(f.actions, action)
}

// --- Fixture ---

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	notifier *fakeNotifier
	recorder *fakeRecorder

	zilaID    types.ID
	tehsilID  types.ID
	councilID types.ID

	citizen     *auth.Identity
	dc          *auth.Identity
	mcOfficer   *auth.Identity
	mcEmployee  *auth.Identity
	employeeID  types.ID
	complaintID types.ID
}

func newFixture(t *testing.T, lifecycle config.LifecycleConfig) *fixture {
	t.Helper()

	zilaID := types.NewID()
	tehsilID := types.NewID()
	councilID := types.NewID()
	employeeID := types.NewID()

	councils := &fakeCouncils{
		tehsils: map[types.ID]*jurisdiction.Tehsil{
			tehsilID: {ID: tehsilID, Name: "Kahror Pacca", ZilaID: zilaID},
		},
		councils: map[types.ID]*jurisdiction.DistrictCouncil{
			zilaID: {ID: councilID, Name: "District Council", ZilaID: zilaID},
		},
	}
	employees := &fakeEmployees{
		users: map[types.ID]*user.User{
			employeeID: {
				ID:       employeeID,
				RoleName: role.MCEmployee,
				ZilaID:   &zilaID,
				TehsilID: &tehsilID,
				Active:   true,
			},
		},
	}

	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{}
	svc := NewService(repo, jurisdiction.NewPolicies(), councils, employees, notifier, recorder, lifecycle)

	citizen := &auth.Identity{UserID: types.NewID(), RoleName: role.Citizen}
	f := &fixture{
		svc:      svc,
		repo:     repo,
		notifier: notifier,
		recorder: recorder,

		zilaID:    zilaID,
		tehsilID:  tehsilID,
		councilID: councilID,

		citizen:    citizen,
		dc:         &auth.Identity{UserID: types.NewID(), RoleName: role.DC, ZilaID: &zilaID},
		mcOfficer:  &auth.Identity{UserID: types.NewID(), RoleName: role.MCCO, TehsilID: &tehsilID},
		mcEmployee: &auth.Identity{UserID: employeeID, RoleName: role.MCEmployee},
		employeeID: employeeID,
	}

	c, err := svc.Create(context.Background(), citizen, CreateInput{
		Title:       "Broken streetlight",
		Description: "pole 14 on the bazaar road is dark",
		AreaType:    domain.AreaCity,
		ZilaID:      zilaID,
		TehsilID:    tehsilID,
	})
	if err != nil {
		t.Fatalf("create fixture complaint: %v", err)
	}
	f.complaintID = c.ID
	return f
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	return appErr.Code
}

// --- Create ---

func TestCreateVillageComplaintRoutesToCouncil(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	c, err := f.svc.Create(context.Background(), f.citizen, CreateInput{
		Description: "main drain is overflowing",
		AreaType:    domain.AreaVillage,
		ZilaID:      f.zilaID,
		TehsilID:    f.tehsilID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.DistrictCouncilID == nil || *c.DistrictCouncilID != f.councilID {
		t.Error("expected village complaint to carry the zila's council")
	}
	if c.Status != domain.StatusPending {
		t.Errorf("expected pending, got %s", c.Status)
	}
}

func TestCreateVillageComplaintWithoutCouncil(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})
	otherZila := types.NewID()
	otherTehsil := types.NewID()
	councils := f.svc.councils.(*fakeCouncils)
	councils.tehsils[otherTehsil] = &jurisdiction.Tehsil{ID: otherTehsil, ZilaID: otherZila}

	_, err := f.svc.Create(context.Background(), f.citizen, CreateInput{
		Description: "main drain is overflowing",
		AreaType:    domain.AreaVillage,
		ZilaID:      otherZila,
		TehsilID:    otherTehsil,
	})
	if code := errCode(t, err); code != "CONFIGURATION_ERROR" {
		t.Errorf("expected CONFIGURATION_ERROR, got %s", code)
	}
}

func TestCreateRejectsForeignTehsil(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	_, err := f.svc.Create(context.Background(), f.citizen, CreateInput{
		Description: "deep pothole near the school gate",
		AreaType:    domain.AreaCity,
		ZilaID:      types.NewID(), // not the tehsil's zila
		TehsilID:    f.tehsilID,
	})
	if code := errCode(t, err); code != "BAD_REQUEST" {
		t.Errorf("expected BAD_REQUEST, got %s", code)
	}
}

func TestCreateRequiresDescription(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	_, err := f.svc.Create(context.Background(), f.citizen, CreateInput{
		Title:    "Flood",
		AreaType: domain.AreaCity,
		ZilaID:   f.zilaID,
		TehsilID: f.tehsilID,
	})
	if code := errCode(t, err); code != "BAD_REQUEST" {
		t.Errorf("expected BAD_REQUEST without description, got %s", code)
	}

	// A title is optional, the description carries the complaint.
	if _, err := f.svc.Create(context.Background(), f.citizen, CreateInput{
		Description: "street is flooded after the rain",
		AreaType:    domain.AreaCity,
		ZilaID:      f.zilaID,
		TehsilID:    f.tehsilID,
	}); err != nil {
		t.Errorf("expected description-only complaint to be accepted: %v", err)
	}
}

func TestCreateDeniedForOfficer(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	_, err := f.svc.Create(context.Background(), f.dc, CreateInput{
		Description: "filing from the wrong side of the desk",
		AreaType:    domain.AreaCity,
		ZilaID:      f.zilaID,
		TehsilID:    f.tehsilID,
	})
	if code := errCode(t, err); code != "PERMISSION_DENIED" {
		t.Errorf("expected PERMISSION_DENIED, got %s", code)
	}
}

func TestUnrecognizedRoleDenied(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})
	ghost := &auth.Identity{UserID: types.NewID(), RoleName: "AUDITOR"}

	_, _, err := f.svc.ListMyArea(context.Background(), ghost, domain.ListFilter{})
	if code := errCode(t, err); code != "PERMISSION_DENIED" {
		t.Errorf("expected PERMISSION_DENIED, got %s", code)
	}
}

func TestCreateNotifiesAndRecords(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})
	if f.notifier.created != 1 {
		t.Errorf("expected 1 creation fan-out, got %d", f.notifier.created)
	}
	if len(f.recorder.actions) == 0 || f.recorder.actions[0] != "complaint.created" {
		t.Errorf("expected complaint.created activity, got %v", f.recorder.actions)
	}
}

// --- Listing ---

func TestListMyAreaMarksSeenForDC(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	if _, _, err := f.svc.ListMyArea(context.Background(), f.dc, domain.ListFilter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if f.repo.seenCalls != 1 {
		t.Errorf("expected DC listing to mark seen, got %d calls", f.repo.seenCalls)
	}
	if !f.repo.complaints[f.complaintID].Seen {
		t.Error("expected complaint marked seen")
	}
}

func TestListMyAreaDoesNotMarkSeenForCitizen(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	if _, _, err := f.svc.ListMyArea(context.Background(), f.citizen, domain.ListFilter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if f.repo.seenCalls != 0 {
		t.Errorf("citizen listing must not mark seen, got %d calls", f.repo.seenCalls)
	}
}

func TestListMyAreaRequiresJurisdiction(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})
	dcWithoutZila := &auth.Identity{UserID: types.NewID(), RoleName: role.DC}

	_, _, err := f.svc.ListMyArea(context.Background(), dcWithoutZila, domain.ListFilter{})
	if code := errCode(t, err); code != "JURISDICTION_NOT_ASSIGNED" {
		t.Errorf("expected JURISDICTION_NOT_ASSIGNED, got %s", code)
	}
}

// --- Assignment ---

func TestAssignMovesToProgress(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	c, err := f.svc.Assign(context.Background(), f.mcOfficer, f.complaintID, f.employeeID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if c.Status != domain.StatusProgress {
		t.Errorf("expected progress, got %s", c.Status)
	}
	if c.AssignedToUserID == nil || *c.AssignedToUserID != f.employeeID {
		t.Error("expected assignee set")
	}
	if f.notifier.assigned != 1 {
		t.Errorf("expected assignment fan-out, got %d", f.notifier.assigned)
	}
}

func TestAssignTwiceFails(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	if _, err := f.svc.Assign(context.Background(), f.mcOfficer, f.complaintID, f.employeeID); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	_, err := f.svc.Assign(context.Background(), f.mcOfficer, f.complaintID, f.employeeID)
	if code := errCode(t, err); code != "ALREADY_ASSIGNED" {
		t.Errorf("expected ALREADY_ASSIGNED, got %s", code)
	}
}

func TestAssignByCitizenDenied(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	_, err := f.svc.Assign(context.Background(), f.citizen, f.complaintID, f.employeeID)
	if code := errCode(t, err); code != "PERMISSION_DENIED" {
		t.Errorf("expected PERMISSION_DENIED, got %s", code)
	}
}

func TestAssignWrongRoleEmployee(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})
	councilEmployee := types.NewID()
	f.svc.employees.(*fakeEmployees).users[councilEmployee] = &user.User{
		ID:       councilEmployee,
		RoleName: role.DistrictCouncilEmployee,
		ZilaID:   &f.zilaID,
		TehsilID: &f.tehsilID,
		Active:   true,
	}

	_, err := f.svc.Assign(context.Background(), f.mcOfficer, f.complaintID, councilEmployee)
	if code := errCode(t, err); code != "BAD_REQUEST" {
		t.Errorf("expected BAD_REQUEST, got %s", code)
	}
}

func TestAssignEmployeeOutsideTehsil(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})
	foreignTehsil := types.NewID()
	outsider := types.NewID()
	f.svc.employees.(*fakeEmployees).users[outsider] = &user.User{
		ID:       outsider,
		RoleName: role.MCEmployee,
		ZilaID:   &f.zilaID,
		TehsilID: &foreignTehsil,
		Active:   true,
	}

	_, err := f.svc.Assign(context.Background(), f.mcOfficer, f.complaintID, outsider)
	if code := errCode(t, err); code != "BAD_REQUEST" {
		t.Errorf("expected BAD_REQUEST, got %s", code)
	}
}

func TestAssignEmployeeOfOtherCommittee(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})
	mcA := types.NewID()
	mcB := types.NewID()
	pinnedOfficer := &auth.Identity{UserID: types.NewID(), RoleName: role.MCCO, TehsilID: &f.tehsilID, MCID: &mcA}
	otherCommittee := types.NewID()
	f.svc.employees.(*fakeEmployees).users[otherCommittee] = &user.User{
		ID:       otherCommittee,
		RoleName: role.MCEmployee,
		ZilaID:   &f.zilaID,
		TehsilID: &f.tehsilID,
		MCID:     &mcB,
		Active:   true,
	}

	_, err := f.svc.Assign(context.Background(), pinnedOfficer, f.complaintID, otherCommittee)
	if code := errCode(t, err); code != "BAD_REQUEST" {
		t.Errorf("expected BAD_REQUEST, got %s", code)
	}
}

func TestReassignAfterRejectFollowsPolicy(t *testing.T) {
	run := func(t *testing.T, allow bool) error {
		f := newFixture(t, config.LifecycleConfig{AllowReassignAfterReject: allow})
		ctx := context.Background()

		if _, err := f.svc.Assign(ctx, f.mcOfficer, f.complaintID, f.employeeID); err != nil {
			t.Fatalf("assign: %v", err)
		}
		if _, err := f.svc.SubmitResolution(ctx, f.mcEmployee, f.complaintID, ResolutionInput{
			Note: "fixed", Image: "u/after.jpg", Location: &types.Point{Latitude: 29.5, Longitude: 71.8},
		}); err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if _, err := f.svc.Reject(ctx, f.dc, f.complaintID, "not actually fixed"); err != nil {
			t.Fatalf("reject: %v", err)
		}

		_, err := f.svc.Assign(ctx, f.mcOfficer, f.complaintID, f.employeeID)
		return err
	}

	t.Run("disallowed by default", func(t *testing.T) {
		err := run(t, false)
		if code := errCode(t, err); code != "INVALID_TRANSITION" {
			t.Errorf("expected INVALID_TRANSITION, got %s", code)
		}
	})

	t.Run("allowed when enabled", func(t *testing.T) {
		if err := run(t, true); err != nil {
			t.Errorf("expected reassignment to succeed: %v", err)
		}
	})
}

// --- Resolution and review ---

func progressFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, config.LifecycleConfig{})
	if _, err := f.svc.Assign(context.Background(), f.mcOfficer, f.complaintID, f.employeeID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	return f
}

func TestSubmitResolutionRequiresEvidence(t *testing.T) {
	f := progressFixture(t)

	_, err := f.svc.SubmitResolution(context.Background(), f.mcEmployee, f.complaintID, ResolutionInput{Note: "done"})
	if code := errCode(t, err); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", code)
	}
}

func TestSubmitResolutionMovesToReview(t *testing.T) {
	f := progressFixture(t)

	c, err := f.svc.SubmitResolution(context.Background(), f.mcEmployee, f.complaintID, ResolutionInput{
		Note: "replaced the bulb", Image: "u/after.jpg", Location: &types.Point{Latitude: 29.5, Longitude: 71.8},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.Status != domain.StatusResolveByEmployee {
		t.Errorf("expected resolveByEmployee, got %s", c.Status)
	}
	if c.ResolutionNote == "" || c.ResolutionImage == "" || c.ResolutionLocation == nil {
		t.Error("expected evidence stored")
	}
}

func TestSubmitResolutionOutsideOwnQueue(t *testing.T) {
	f := progressFixture(t)
	otherEmployee := &auth.Identity{UserID: types.NewID(), RoleName: role.MCEmployee}

	_, err := f.svc.SubmitResolution(context.Background(), otherEmployee, f.complaintID, ResolutionInput{
		Note: "done", Image: "u/x.jpg", Location: &types.Point{Latitude: 29.5, Longitude: 71.8},
	})
	if code := errCode(t, err); code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND outside own queue, got %s", code)
	}
}

func resolvedFixture(t *testing.T) *fixture {
	t.Helper()
	f := progressFixture(t)
	ctx := context.Background()
	if _, err := f.svc.SubmitResolution(ctx, f.mcEmployee, f.complaintID, ResolutionInput{
		Note: "fixed", Image: "u/after.jpg", Location: &types.Point{Latitude: 29.5, Longitude: 71.8},
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := f.svc.Approve(ctx, f.dc, f.complaintID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	return f
}

func TestApproveRequiresReviewRole(t *testing.T) {
	f := progressFixture(t)

	_, err := f.svc.Approve(context.Background(), f.mcEmployee, f.complaintID)
	if code := errCode(t, err); code != "PERMISSION_DENIED" {
		t.Errorf("expected PERMISSION_DENIED, got %s", code)
	}
}

func TestApproveByMCOfficer(t *testing.T) {
	f := progressFixture(t)
	ctx := context.Background()
	if _, err := f.svc.SubmitResolution(ctx, f.mcEmployee, f.complaintID, ResolutionInput{
		Note: "fixed", Image: "u/after.jpg", Location: &types.Point{Latitude: 29.5, Longitude: 71.8},
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	c, err := f.svc.Approve(ctx, f.mcOfficer, f.complaintID)
	if err != nil {
		t.Fatalf("approve by MC officer: %v", err)
	}
	if c.Status != domain.StatusResolved {
		t.Errorf("expected resolved, got %s", c.Status)
	}
}

func TestRejectByCouncilOfficer(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})
	ctx := context.Background()

	councilEmployeeID := types.NewID()
	f.svc.employees.(*fakeEmployees).users[councilEmployeeID] = &user.User{
		ID:       councilEmployeeID,
		RoleName: role.DistrictCouncilEmployee,
		ZilaID:   &f.zilaID,
		Active:   true,
	}
	councilOfficer := &auth.Identity{UserID: types.NewID(), RoleName: role.DistrictCouncilOfficer, ZilaID: &f.zilaID}
	councilEmployee := &auth.Identity{UserID: councilEmployeeID, RoleName: role.DistrictCouncilEmployee}

	c, err := f.svc.Create(ctx, f.citizen, CreateInput{
		Description: "hand pump is broken",
		AreaType:    domain.AreaVillage,
		ZilaID:      f.zilaID,
		TehsilID:    f.tehsilID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Assign(ctx, councilOfficer, c.ID, councilEmployeeID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.svc.SubmitResolution(ctx, councilEmployee, c.ID, ResolutionInput{
		Note: "pump repaired", Image: "u/pump.jpg", Location: &types.Point{Latitude: 29.5, Longitude: 71.8},
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	rejected, err := f.svc.Reject(ctx, councilOfficer, c.ID, "pump still leaking")
	if err != nil {
		t.Fatalf("reject by council officer: %v", err)
	}
	if rejected.Status != domain.StatusRejected {
		t.Errorf("expected rejected, got %s", rejected.Status)
	}
	if rejected.AssignedToUserID != nil {
		t.Error("expected assignment cleared on reject")
	}
}

func TestCloseAndCompleteAreDCOnly(t *testing.T) {
	f := resolvedFixture(t)

	if _, err := f.svc.Close(context.Background(), f.mcOfficer, f.complaintID); errCode(t, err) != "PERMISSION_DENIED" {
		t.Error("expected PERMISSION_DENIED closing as MC officer")
	}
	if _, err := f.svc.Complete(context.Background(), f.mcOfficer, f.complaintID, "done"); errCode(t, err) != "PERMISSION_DENIED" {
		t.Error("expected PERMISSION_DENIED completing as MC officer")
	}
}

func TestApproveFromPendingFails(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	_, err := f.svc.Approve(context.Background(), f.dc, f.complaintID)
	if code := errCode(t, err); code != "INVALID_TRANSITION" {
		t.Errorf("expected INVALID_TRANSITION, got %s", code)
	}
}

func TestRejectClearsAssignment(t *testing.T) {
	f := progressFixture(t)
	ctx := context.Background()
	if _, err := f.svc.SubmitResolution(ctx, f.mcEmployee, f.complaintID, ResolutionInput{
		Note: "fixed", Image: "u/after.jpg", Location: &types.Point{Latitude: 29.5, Longitude: 71.8},
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	c, err := f.svc.Reject(ctx, f.dc, f.complaintID, "come back with better evidence")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if c.Status != domain.StatusRejected {
		t.Errorf("expected rejected, got %s", c.Status)
	}
	if c.AssignedToUserID != nil {
		t.Error("expected assignment cleared on reject")
	}
	if c.RemarkByDC == "" || c.RejectedBy == nil {
		t.Error("expected rejection bookkeeping")
	}
}

func TestRejectRequiresRemark(t *testing.T) {
	f := resolvedFixture(t)

	_, err := f.svc.Reject(context.Background(), f.dc, f.complaintID, "")
	if code := errCode(t, err); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", code)
	}
}

func TestCompleteFromResolved(t *testing.T) {
	f := resolvedFixture(t)

	c, err := f.svc.Complete(context.Background(), f.dc, f.complaintID, "good work")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.Status != domain.StatusCompleted {
		t.Errorf("expected completed, got %s", c.Status)
	}
	if c.CompletedBy == nil || c.CompletedAt == nil {
		t.Error("expected completion bookkeeping")
	}
}

func TestCloseFromResolved(t *testing.T) {
	f := resolvedFixture(t)

	c, err := f.svc.Close(context.Background(), f.dc, f.complaintID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.Status != domain.StatusClosed {
		t.Errorf("expected closed, got %s", c.Status)
	}
}

// --- Override and delete ---

func TestOverrideStatusByDC(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	c, err := f.svc.OverrideStatus(context.Background(), f.dc, f.complaintID, domain.StatusDelayed)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if c.Status != domain.StatusDelayed {
		t.Errorf("expected delayed, got %s", c.Status)
	}
}

func TestOverrideToSameStatus(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	_, err := f.svc.OverrideStatus(context.Background(), f.dc, f.complaintID, domain.StatusPending)
	if code := errCode(t, err); code != "ALREADY_IN_STATUS" {
		t.Errorf("expected ALREADY_IN_STATUS, got %s", code)
	}
}

func TestOverrideDeniedForAC(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})
	ac := &auth.Identity{UserID: types.NewID(), RoleName: role.AC, TehsilID: &f.tehsilID}

	_, err := f.svc.OverrideStatus(context.Background(), ac, f.complaintID, domain.StatusDelayed)
	if code := errCode(t, err); code != "PERMISSION_DENIED" {
		t.Errorf("expected PERMISSION_DENIED, got %s", code)
	}
}

func TestOverrideRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	_, err := f.svc.OverrideStatus(context.Background(), f.dc, f.complaintID, domain.Status("bogus"))
	if code := errCode(t, err); code != "BAD_REQUEST" {
		t.Errorf("expected BAD_REQUEST, got %s", code)
	}
}

func TestDeleteOwnComplaint(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	if err := f.svc.Delete(context.Background(), f.citizen, f.complaintID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := f.repo.complaints[f.complaintID]; ok {
		t.Error("expected complaint removed")
	}
}

func TestDeleteForeignComplaintByCitizen(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})
	stranger := &auth.Identity{UserID: types.NewID(), RoleName: role.Citizen}

	err := f.svc.Delete(context.Background(), stranger, f.complaintID)
	if code := errCode(t, err); code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %s", code)
	}
}

func TestDeleteDeniedForEmployee(t *testing.T) {
	f := progressFixture(t)

	err := f.svc.Delete(context.Background(), f.mcEmployee, f.complaintID)
	if code := errCode(t, err); code != "PERMISSION_DENIED" {
		t.Errorf("expected PERMISSION_DENIED, got %s", code)
	}
}
