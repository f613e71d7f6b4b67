package service

import (
	"context"
	"log"
	"time"

	"github.com/lodhran-gov/complaints/internal/complaint/domain"
	"github.com/lodhran-gov/complaints/internal/jurisdiction"
	"github.com/lodhran-gov/complaints/internal/shared/auth"
	"github.com/lodhran-gov/complaints/internal/shared/config"
	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/metrics"
	"github.com/lodhran-gov/complaints/internal/shared/types"
	"github.com/lodhran-gov/complaints/internal/user"
)

// Notifier fans complaint events out to interested users
type Notifier interface {
	ComplaintCreated(ctx context.Context, c *domain.Complaint)
	ComplaintAssigned(ctx context.Context, c *domain.Complaint, employeeID types.ID)
	StatusChanged(ctx context.Context, c *domain.Complaint, from, to domain.Status, actorID types.ID)
}

// Recorder appends entries to the activity log
type Recorder interface {
	Record(ctx context.Context, action string, performedBy types.ID, targetID types.ID, targetType string, meta map[string]any)
}

// Councils resolves the district council responsible for a zila
type Councils interface {
	GetCouncilByZila(ctx context.Context, zilaID types.ID) (*jurisdiction.DistrictCouncil, error)
	GetTehsil(ctx context.Context, id types.ID) (*jurisdiction.Tehsil, error)
}

// Employees looks up assignment candidates
type Employees interface {
	FindActive(ctx context.Context, id types.ID) (*user.User, error)
}

// Service drives the complaint lifecycle. Every operation resolves the
// caller's policy first, so jurisdiction and permission rules sit in
// one place rather than in each handler.
type Service struct {
	repo      domain.Repository
	policies  *jurisdiction.Policies
	councils  Councils
	employees Employees
	notifier  Notifier
	recorder  Recorder
	lifecycle config.LifecycleConfig
}

// NewService creates a complaint service
func NewService(
	repo domain.Repository,
	policies *jurisdiction.Policies,
	councils Councils,
	employees Employees,
	notifier Notifier,
	recorder Recorder,
	lifecycle config.LifecycleConfig,
) *Service {
	return &Service{
		repo:      repo,
		policies:  policies,
		councils:  councils,
		employees: employees,
		notifier:  notifier,
		recorder:  recorder,
		lifecycle: lifecycle,
	}
}

// CreateInput carries the fields a citizen submits with a new complaint
type CreateInput struct {
	Title        string
	Description  string
	CategoryID   *types.ID
	Image        string
	Location     *types.Point
	LocationName string
	AreaType     domain.AreaType
	ZilaID       types.ID
	TehsilID     types.ID
	MCID         *types.ID
}

// Create files a new complaint. Village complaints are routed to the
// zila's district council; city complaints stay on the municipal chain.
func (s *Service) Create(ctx context.Context, caller *auth.Identity, in CreateInput) (*domain.Complaint, error) {
	policy, ok := s.policies.For(caller.RoleName)
	if !ok {
		return nil, errors.PermissionDenied("unrecognized role " + caller.RoleName)
	}
	if !policy.CanCreate() {
		return nil, errors.PermissionDenied("your role cannot file complaints")
	}

	c, err := domain.NewComplaint(in.Title, in.Description, in.AreaType, in.ZilaID, in.TehsilID, caller.UserID)
	if err != nil {
		return nil, errors.BadRequest(err.Error())
	}

	tehsil, err := s.councils.GetTehsil(ctx, in.TehsilID)
	if err != nil {
		return nil, err
	}
	if tehsil.ZilaID != in.ZilaID {
		return nil, errors.BadRequest("tehsil does not belong to the given zila")
	}

	c.CategoryID = in.CategoryID
	c.Image = in.Image
	c.Location = in.Location
	c.LocationName = in.LocationName

	if in.Location != nil && !in.Location.Valid() {
		return nil, errors.BadRequest("location coordinates are out of range")
	}

	switch in.AreaType {
	case domain.AreaCity:
		c.MCID = in.MCID
	case domain.AreaVillage:
		council, err := s.councils.GetCouncilByZila(ctx, in.ZilaID)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok && appErr.Code == "NOT_FOUND" {
				return nil, errors.Configuration("zila has no district council")
			}
			return nil, err
		}
		c.DistrictCouncilID = &council.ID
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}

	metrics.RecordComplaintCreated(string(c.AreaType))
	s.recorder.Record(ctx, "complaint.created", caller.UserID, c.ID, "complaint", map[string]any{
		"area_type": c.AreaType,
		"zila_id":   c.ZilaID,
	})
	s.notifier.ComplaintCreated(ctx, c)

	return c, nil
}

// ListMyArea lists complaints inside the caller's jurisdiction. For
// oversight roles the listing also marks the returned complaints seen.
func (s *Service) ListMyArea(ctx context.Context, caller *auth.Identity, filter domain.ListFilter) ([]domain.Complaint, int, error) {
	policy, scope, err := s.policyScope(caller)
	if err != nil {
		return nil, 0, err
	}

	complaints, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, 0, err
	}

	if policy.MarksSeen() {
		if _, err := s.repo.MarkSeen(ctx, scope); err != nil {
			log.Printf("complaint: failed to mark complaints seen for %s: %v", caller.UserID, err)
		}
	}

	return complaints, total, nil
}

// Get retrieves one complaint visible to the caller
func (s *Service) Get(ctx context.Context, caller *auth.Identity, id types.ID) (*domain.Complaint, error) {
	_, scope, err := s.policyScope(caller)
	if err != nil {
		return nil, err
	}
	return s.repo.FindScoped(ctx, id, scope)
}

// Assign hands a complaint to a field employee and moves it to
// progress. Only officer roles with an employee chain may assign, and
// only to an active employee of the matching role inside their
// jurisdiction.
func (s *Service) Assign(ctx context.Context, caller *auth.Identity, complaintID, employeeID types.ID) (*domain.Complaint, error) {
	policy, scope, err := s.policyScope(caller)
	if err != nil {
		return nil, err
	}
	if policy.EmployeeRole() == "" {
		return nil, errors.PermissionDenied("your role cannot assign complaints")
	}

	employee, err := s.employees.FindActive(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if employee.RoleName != policy.EmployeeRole() {
		return nil, errors.BadRequest("user is not a " + policy.EmployeeRole())
	}
	if !policy.EmployeeInScope(caller, employee.ZilaID, employee.TehsilID, employee.MCID, employee.DistrictCouncilID) {
		return nil, errors.BadRequest("employee is outside your jurisdiction")
	}

	from := domain.AssignableFrom(s.lifecycle.AllowReassignAfterReject)
	matched, err := s.repo.Assign(ctx, complaintID, scope, from, employeeID, employee.RoleName, time.Now())
	if err != nil {
		return nil, err
	}
	if matched == 0 {
		return nil, s.classifyAssignFailure(ctx, complaintID, scope, from)
	}

	c, err := s.repo.FindScoped(ctx, complaintID, scope)
	if err != nil {
		return nil, err
	}

	metrics.RecordComplaintAssigned(employee.RoleName)
	metrics.RecordComplaintStatusChange(string(domain.StatusPending), string(domain.StatusProgress))
	s.recorder.Record(ctx, "complaint.assigned", caller.UserID, c.ID, "complaint", map[string]any{
		"assigned_to": employeeID,
		"role":        employee.RoleName,
	})
	s.notifier.ComplaintAssigned(ctx, c, employeeID)

	return c, nil
}

// ResolutionInput carries the evidence a field employee submits
type ResolutionInput struct {
	Note     string
	Image    string
	Location *types.Point
}

// SubmitResolution records the field evidence and moves the complaint
// to resolveByEmployee for officer review
func (s *Service) SubmitResolution(ctx context.Context, caller *auth.Identity, id types.ID, in ResolutionInput) (*domain.Complaint, error) {
	policy, scope, err := s.policyScope(caller)
	if err != nil {
		return nil, err
	}
	if !policy.CanResolve() {
		return nil, errors.PermissionDenied("your role cannot submit resolutions")
	}

	details := map[string]string{}
	if in.Note == "" {
		details["note"] = "required"
	}
	if in.Image == "" {
		details["image"] = "required"
	}
	if in.Location == nil {
		details["location"] = "required"
	} else if !in.Location.Valid() {
		details["location"] = "coordinates out of range"
	}
	if len(details) > 0 {
		return nil, errors.Validation("resolution evidence is incomplete", details)
	}

	fields := domain.TransitionFields{
		ResolutionNote:     &in.Note,
		ResolutionImage:    &in.Image,
		ResolutionLocation: in.Location,
	}
	return s.transition(ctx, caller, id, scope, domain.StatusResolveByEmployee, fields, "complaint.resolution_submitted")
}

// Approve accepts a field resolution and moves the complaint to
// resolved
func (s *Service) Approve(ctx context.Context, caller *auth.Identity, id types.ID) (*domain.Complaint, error) {
	policy, scope, err := s.policyScope(caller)
	if err != nil {
		return nil, err
	}
	if !policy.CanReview() {
		return nil, errors.PermissionDenied("your role cannot review resolutions")
	}
	return s.transition(ctx, caller, id, scope, domain.StatusResolved, domain.TransitionFields{}, "complaint.approved")
}

// Reject sends a resolution back with a remark. The assignment slot is
// cleared so the complaint can be handed to another employee where
// deployment policy allows it.
func (s *Service) Reject(ctx context.Context, caller *auth.Identity, id types.ID, remark string) (*domain.Complaint, error) {
	policy, scope, err := s.policyScope(caller)
	if err != nil {
		return nil, err
	}
	if !policy.CanReview() {
		return nil, errors.PermissionDenied("your role cannot review resolutions")
	}
	if remark == "" {
		return nil, errors.Validation("a remark is required to reject", map[string]string{"remark": "required"})
	}

	now := time.Now()
	fields := domain.TransitionFields{
		RemarkByDC:      &remark,
		RejectedBy:      &caller.UserID,
		RejectedAt:      &now,
		ClearAssignment: true,
	}
	return s.transition(ctx, caller, id, scope, domain.StatusRejected, fields, "complaint.rejected")
}

// Complete marks a resolved complaint completed
func (s *Service) Complete(ctx context.Context, caller *auth.Identity, id types.ID, remark string) (*domain.Complaint, error) {
	policy, scope, err := s.policyScope(caller)
	if err != nil {
		return nil, err
	}
	if !policy.CanClose() {
		return nil, errors.PermissionDenied("your role cannot close complaints")
	}

	now := time.Now()
	fields := domain.TransitionFields{
		CompletedBy: &caller.UserID,
		CompletedAt: &now,
	}
	if remark != "" {
		fields.RemarkByDC = &remark
	}
	return s.transition(ctx, caller, id, scope, domain.StatusCompleted, fields, "complaint.completed")
}

// Close closes a resolved complaint without the completed outcome
func (s *Service) Close(ctx context.Context, caller *auth.Identity, id types.ID) (*domain.Complaint, error) {
	policy, scope, err := s.policyScope(caller)
	if err != nil {
		return nil, err
	}
	if !policy.CanClose() {
		return nil, errors.PermissionDenied("your role cannot close complaints")
	}
	return s.transition(ctx, caller, id, scope, domain.StatusClosed, domain.TransitionFields{}, "complaint.closed")
}

// OverrideStatus sets any valid status directly. Reserved for roles
// with override power, used for delays and corrections.
func (s *Service) OverrideStatus(ctx context.Context, caller *auth.Identity, id types.ID, target domain.Status) (*domain.Complaint, error) {
	policy, scope, err := s.policyScope(caller)
	if err != nil {
		return nil, err
	}
	if !policy.CanOverrideStatus() {
		return nil, errors.PermissionDenied("your role cannot override complaint status")
	}
	if !domain.ValidStatus(target) {
		return nil, errors.BadRequest("unknown status: " + string(target))
	}

	before, err := s.repo.FindScoped(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	if before.Status == target {
		return nil, errors.AlreadyInStatus(string(target))
	}

	matched, err := s.repo.Transition(ctx, id, scope, []domain.Status{before.Status}, target, domain.TransitionFields{})
	if err != nil {
		return nil, err
	}
	if matched == 0 {
		return nil, errors.Conflict("complaint changed concurrently, retry")
	}

	after, err := s.repo.FindScoped(ctx, id, scope)
	if err != nil {
		return nil, err
	}

	metrics.RecordComplaintStatusChange(string(before.Status), string(target))
	s.recorder.Record(ctx, "complaint.status_overridden", caller.UserID, id, "complaint", map[string]any{
		"from": before.Status,
		"to":   target,
	})
	s.notifier.StatusChanged(ctx, after, before.Status, target, caller.UserID)

	return after, nil
}

// Delete removes a complaint inside the caller's scope
func (s *Service) Delete(ctx context.Context, caller *auth.Identity, id types.ID) error {
	policy, scope, err := s.policyScope(caller)
	if err != nil {
		return err
	}
	if !policy.CanDelete() {
		return errors.PermissionDenied("your role cannot delete complaints")
	}

	matched, err := s.repo.Delete(ctx, id, scope)
	if err != nil {
		return err
	}
	if matched == 0 {
		return errors.NotFound("complaint", id.String())
	}

	s.recorder.Record(ctx, "complaint.deleted", caller.UserID, id, "complaint", nil)
	return nil
}

// transition runs one compare-and-set status move with the standard
// bookkeeping: metrics, activity entry and fan-out
func (s *Service) transition(
	ctx context.Context,
	caller *auth.Identity,
	id types.ID,
	scope domain.ScopeFilter,
	target domain.Status,
	fields domain.TransitionFields,
	action string,
) (*domain.Complaint, error) {
	from := domain.ValidSources(target)

	// capture the pre-transition state for the fan-out message
	before, err := s.repo.FindScoped(ctx, id, scope)
	if err != nil {
		return nil, err
	}

	matched, err := s.repo.Transition(ctx, id, scope, from, target, fields)
	if err != nil {
		return nil, err
	}
	if matched == 0 {
		return nil, s.classifyTransitionFailure(ctx, id, scope, from, target)
	}

	after, err := s.repo.FindScoped(ctx, id, scope)
	if err != nil {
		return nil, err
	}

	metrics.RecordComplaintStatusChange(string(before.Status), string(target))
	s.recorder.Record(ctx, action, caller.UserID, id, "complaint", map[string]any{
		"from": before.Status,
		"to":   target,
	})
	s.notifier.StatusChanged(ctx, after, before.Status, target, caller.UserID)

	return after, nil
}

// classifyTransitionFailure turns a zero matched-row count into the
// precise client error by re-reading the row
func (s *Service) classifyTransitionFailure(ctx context.Context, id types.ID, scope domain.ScopeFilter, from []domain.Status, target domain.Status) error {
	c, err := s.repo.FindScoped(ctx, id, scope)
	if err != nil {
		return err
	}
	if c.Status == target {
		return errors.AlreadyInStatus(string(target))
	}
	if !statusIn(c.Status, from) {
		return errors.InvalidTransition(string(c.Status), string(target))
	}
	return errors.Conflict("complaint changed concurrently, retry")
}

func (s *Service) classifyAssignFailure(ctx context.Context, id types.ID, scope domain.ScopeFilter, from []domain.Status) error {
	c, err := s.repo.FindScoped(ctx, id, scope)
	if err != nil {
		return err
	}
	if c.AssignedToUserID != nil {
		return errors.AlreadyAssigned(c.AssignedToUserID.String())
	}
	if !statusIn(c.Status, from) {
		return errors.InvalidTransition(string(c.Status), string(domain.StatusProgress))
	}
	return errors.Conflict("complaint changed concurrently, retry")
}

func (s *Service) policyScope(caller *auth.Identity) (jurisdiction.Policy, domain.ScopeFilter, error) {
	policy, ok := s.policies.For(caller.RoleName)
	if !ok {
		return nil, domain.ScopeFilter{}, errors.PermissionDenied("unrecognized role " + caller.RoleName)
	}
	scope, err := policy.Scope(caller)
	if err != nil {
		return nil, domain.ScopeFilter{}, err
	}
	return policy, scope, nil
}

func statusIn(s domain.Status, set []domain.Status) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}
