package notification

import (
	"context"
	"fmt"
	"testing"

	"github.com/lodhran-gov/complaints/internal/complaint/domain"
	"github.com/lodhran-gov/complaints/internal/role"
	"github.com/lodhran-gov/complaints/internal/shared/events"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

type fakeStore struct {
	batches [][]Notification
	fail    bool
}

func (f *fakeStore) BulkInsert(ctx context.Context, notifications []Notification) error {
	if f.fail {
		return fmt.Errorf("database down")
	}
	f.batches = append(f.batches, notifications)
	return nil
}

func (f *fakeStore) all() []Notification {
	var out []Notification
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

type fakeDirectory struct {
	byRole map[types.ID][]types.ID
	calls  []directoryCall
}

type directoryCall struct {
	roleID                    types.ID
	zila, tehsil, mc, council *types.ID
}

func (f *fakeDirectory) ListActiveUserIDs(ctx context.Context, roleID types.ID, zilaID, tehsilID, mcID, councilID *types.ID) ([]types.ID, error) {
	f.calls = append(f.calls, directoryCall{roleID, zilaID, tehsilID, mcID, councilID})
	return f.byRole[roleID], nil
}

type fakeRoleResolver struct {
	ids map[string]types.ID
}

func (f *fakeRoleResolver) RoleID(ctx context.Context, name string) (types.ID, error) {
	id, ok := f.ids[name]
	if !ok {
		return "", fmt.Errorf("role %s is not defined", name)
	}
	return id, nil
}

type fakePublisher struct {
	published []types.ID
	fail      bool
}

func (f *fakePublisher) PublishToUser(ctx context.Context, userID types.ID, event events.Event) error {
	if f.fail {
		return fmt.Errorf("redis down")
	}
	f.published = append(f.published, userID)
	return nil
}

func newTestRoles() (*fakeRoleResolver, map[string]types.ID) {
	ids := map[string]types.ID{
		role.DC:                     types.NewID(),
		role.AC:                     types.NewID(),
		role.MCCO:                   types.NewID(),
		role.DistrictCouncilOfficer: types.NewID(),
	}
	return &fakeRoleResolver{ids: ids}, ids
}

func cityComplaint() *domain.Complaint {
	c, _ := domain.NewComplaint("Broken streetlight", "dark at night", domain.AreaCity, types.NewID(), types.NewID(), types.NewID())
	return c
}

func villageComplaint() *domain.Complaint {
	c, _ := domain.NewComplaint("Blocked drain", "overflowing", domain.AreaVillage, types.NewID(), types.NewID(), types.NewID())
	return c
}

func TestComplaintCreatedCityFanOut(t *testing.T) {
	roles, roleIDs := newTestRoles()
	dc := types.NewID()
	ac := types.NewID()
	officer := types.NewID()

	dir := &fakeDirectory{byRole: map[types.ID][]types.ID{
		roleIDs[role.DC]:   {dc},
		roleIDs[role.AC]:   {ac},
		roleIDs[role.MCCO]: {officer},
	}}
	store := &fakeStore{}
	bus := &fakePublisher{}

	svc := NewService(store, dir, roles, bus)
	svc.ComplaintCreated(context.Background(), cityComplaint())

	got := store.all()
	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(got))
	}

	want := map[types.ID]bool{dc: true, ac: true, officer: true}
	for _, n := range got {
		if !want[n.UserID] {
			t.Errorf("unexpected recipient %s", n.UserID)
		}
		if n.Type != TypeComplaintCreated {
			t.Errorf("expected type %s, got %s", TypeComplaintCreated, n.Type)
		}
		if n.ComplaintID == nil {
			t.Error("expected complaint id on notification")
		}
	}

	if len(bus.published) != 3 {
		t.Errorf("expected 3 realtime publishes, got %d", len(bus.published))
	}

	// city complaints must never reach the district council chain
	for _, call := range dir.calls {
		if call.roleID == roleIDs[role.DistrictCouncilOfficer] {
			t.Error("city complaint queried district council officers")
		}
	}
}

func TestComplaintCreatedVillageFanOut(t *testing.T) {
	roles, roleIDs := newTestRoles()
	councilOfficer := types.NewID()

	dir := &fakeDirectory{byRole: map[types.ID][]types.ID{
		roleIDs[role.DistrictCouncilOfficer]: {councilOfficer},
	}}
	store := &fakeStore{}

	svc := NewService(store, dir, roles, nil)
	c := villageComplaint()
	svc.ComplaintCreated(context.Background(), c)

	got := store.all()
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if got[0].UserID != councilOfficer {
		t.Errorf("expected recipient %s, got %s", councilOfficer, got[0].UserID)
	}

	for _, call := range dir.calls {
		if call.roleID == roleIDs[role.MCCO] {
			t.Error("village complaint queried municipal committee officers")
		}
		if call.roleID == roleIDs[role.DistrictCouncilOfficer] {
			if call.zila == nil || *call.zila != c.ZilaID {
				t.Error("council officer lookup not scoped to complaint zila")
			}
		}
	}
}

func TestComplaintCreatedDeduplicatesRecipients(t *testing.T) {
	roles, roleIDs := newTestRoles()
	shared := types.NewID()

	// same user holds both DC and AC result sets
	dir := &fakeDirectory{byRole: map[types.ID][]types.ID{
		roleIDs[role.DC]: {shared},
		roleIDs[role.AC]: {shared},
	}}
	store := &fakeStore{}

	svc := NewService(store, dir, roles, nil)
	svc.ComplaintCreated(context.Background(), villageComplaint())

	if got := len(store.all()); got != 1 {
		t.Fatalf("expected 1 deduplicated notification, got %d", got)
	}
}

func TestStatusChangedNotifiesCreatorAndAssignee(t *testing.T) {
	roles, _ := newTestRoles()
	store := &fakeStore{}
	bus := &fakePublisher{}

	c := cityComplaint()
	assignee := types.NewID()
	c.AssignedToUserID = &assignee
	actor := types.NewID()

	svc := NewService(store, &fakeDirectory{}, roles, bus)
	svc.StatusChanged(context.Background(), c, domain.StatusResolveByEmployee, domain.StatusResolved, actor)

	got := store.all()
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}

	recipients := map[types.ID]bool{}
	for _, n := range got {
		recipients[n.UserID] = true
		if n.Type != TypeStatusChanged {
			t.Errorf("expected type %s, got %s", TypeStatusChanged, n.Type)
		}
	}
	if !recipients[c.CreatedBy] || !recipients[assignee] {
		t.Error("expected creator and assignee to be notified")
	}
}

func TestStatusChangedSkipsAssigneeWhenActor(t *testing.T) {
	roles, _ := newTestRoles()
	store := &fakeStore{}

	c := cityComplaint()
	assignee := types.NewID()
	c.AssignedToUserID = &assignee

	svc := NewService(store, &fakeDirectory{}, roles, nil)
	svc.StatusChanged(context.Background(), c, domain.StatusProgress, domain.StatusResolveByEmployee, assignee)

	got := store.all()
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if got[0].UserID != c.CreatedBy {
		t.Errorf("expected creator %s, got %s", c.CreatedBy, got[0].UserID)
	}
}

func TestComplaintAssignedNotifiesEmployee(t *testing.T) {
	roles, _ := newTestRoles()
	store := &fakeStore{}
	employee := types.NewID()

	svc := NewService(store, &fakeDirectory{}, roles, nil)
	svc.ComplaintAssigned(context.Background(), cityComplaint(), employee)

	got := store.all()
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if got[0].UserID != employee {
		t.Errorf("expected recipient %s, got %s", employee, got[0].UserID)
	}
	if got[0].Type != TypeComplaintAssigned {
		t.Errorf("expected type %s, got %s", TypeComplaintAssigned, got[0].Type)
	}
}

func TestPublishFailureDoesNotDropRows(t *testing.T) {
	roles, _ := newTestRoles()
	store := &fakeStore{}
	bus := &fakePublisher{fail: true}

	svc := NewService(store, &fakeDirectory{}, roles, bus)
	svc.ComplaintAssigned(context.Background(), cityComplaint(), types.NewID())

	if got := len(store.all()); got != 1 {
		t.Fatalf("expected the row to persist despite publish failure, got %d rows", got)
	}
}

func TestPersistFailureSkipsPublish(t *testing.T) {
	roles, _ := newTestRoles()
	store := &fakeStore{fail: true}
	bus := &fakePublisher{}

	svc := NewService(store, &fakeDirectory{}, roles, bus)
	svc.ComplaintAssigned(context.Background(), cityComplaint(), types.NewID())

	if len(bus.published) != 0 {
		t.Errorf("expected no publishes after persist failure, got %d", len(bus.published))
	}
}
