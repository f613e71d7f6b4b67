package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lodhran-gov/complaints/internal/complaint/domain"
	"github.com/lodhran-gov/complaints/internal/role"
	"github.com/lodhran-gov/complaints/internal/shared/events"
	"github.com/lodhran-gov/complaints/internal/shared/metrics"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Store persists notification batches
type Store interface {
	BulkInsert(ctx context.Context, notifications []Notification) error
}

// Directory finds recipients by role and jurisdiction
type Directory interface {
	ListActiveUserIDs(ctx context.Context, roleID types.ID, zilaID, tehsilID, mcID, councilID *types.ID) ([]types.ID, error)
}

// RoleResolver resolves role names through the registry
type RoleResolver interface {
	RoleID(ctx context.Context, name string) (types.ID, error)
}

// Publisher pushes realtime events to user channels
type Publisher interface {
	PublishToUser(ctx context.Context, userID types.ID, event events.Event) error
}

// Service fans complaint events out to the officers and citizens who
// should hear about them. Rows are persisted first; the realtime
// publish runs after and its failures are swallowed, a missed push is
// recovered on the next notification list.
type Service struct {
	store Store
	users Directory
	roles RoleResolver
	bus   Publisher
}

// NewService creates a notification service. bus may be nil when
// realtime publishing is disabled.
func NewService(store Store, users Directory, roles RoleResolver, bus Publisher) *Service {
	return &Service{store: store, users: users, roles: roles, bus: bus}
}

// ComplaintCreated notifies the zila DC, the tehsil AC and the area
// officer chain about a new complaint
func (s *Service) ComplaintCreated(ctx context.Context, c *domain.Complaint) {
	recipients := s.creationRecipients(ctx, c)
	message := fmt.Sprintf("New complaint %q filed in your jurisdiction", c.Title)
	s.deliver(ctx, recipients, TypeComplaintCreated, message, c)
}

// ComplaintAssigned notifies the employee who received the work
func (s *Service) ComplaintAssigned(ctx context.Context, c *domain.Complaint, employeeID types.ID) {
	message := fmt.Sprintf("Complaint %q has been assigned to you", c.Title)
	s.deliver(ctx, []types.ID{employeeID}, TypeComplaintAssigned, message, c)
}

// StatusChanged notifies the complaint creator and, when someone else
// holds the work, the assignee
func (s *Service) StatusChanged(ctx context.Context, c *domain.Complaint, from, to domain.Status, actorID types.ID) {
	recipients := []types.ID{c.CreatedBy}
	if c.AssignedToUserID != nil && *c.AssignedToUserID != actorID {
		recipients = append(recipients, *c.AssignedToUserID)
	}

	message := fmt.Sprintf("Complaint %q moved from %s to %s", c.Title, from, to)
	s.deliver(ctx, recipients, TypeStatusChanged, message, c)
}

// creationRecipients collects the officer fan-out set for a new
// complaint
func (s *Service) creationRecipients(ctx context.Context, c *domain.Complaint) []types.ID {
	var recipients []types.ID

	recipients = append(recipients, s.officersByRole(ctx, role.DC, &c.ZilaID, nil, nil, nil)...)
	recipients = append(recipients, s.officersByRole(ctx, role.AC, nil, &c.TehsilID, nil, nil)...)

	switch c.AreaType {
	case domain.AreaCity:
		recipients = append(recipients, s.officersByRole(ctx, role.MCCO, nil, &c.TehsilID, c.MCID, nil)...)
	case domain.AreaVillage:
		recipients = append(recipients, s.officersByRole(ctx, role.DistrictCouncilOfficer, &c.ZilaID, nil, nil, c.DistrictCouncilID)...)
	}

	return recipients
}

func (s *Service) officersByRole(ctx context.Context, roleName string, zila, tehsil, mc, council *types.ID) []types.ID {
	roleID, err := s.roles.RoleID(ctx, roleName)
	if err != nil {
		log.Printf("notification: cannot resolve role %s: %v", roleName, err)
		return nil
	}

	ids, err := s.users.ListActiveUserIDs(ctx, roleID, zila, tehsil, mc, council)
	if err != nil {
		log.Printf("notification: cannot list %s recipients: %v", roleName, err)
		return nil
	}
	return ids
}

// deliver persists the batch, then publishes. Publish failures never
// reach the caller.
func (s *Service) deliver(ctx context.Context, recipients []types.ID, notificationType, message string, c *domain.Complaint) {
	recipients = dedup(recipients)
	if len(recipients) == 0 {
		return
	}

	now := time.Now()
	batch := make([]Notification, 0, len(recipients))
	for _, userID := range recipients {
		complaintID := c.ID
		batch = append(batch, Notification{
			ID:          types.NewID(),
			UserID:      userID,
			ComplaintID: &complaintID,
			Type:        notificationType,
			Message:     message,
			CreatedAt:   now,
		})
	}

	if err := s.store.BulkInsert(ctx, batch); err != nil {
		log.Printf("notification: failed to persist %s batch: %v", notificationType, err)
		return
	}

	for range batch {
		metrics.RecordNotificationCreated(notificationType)
	}

	if s.bus == nil {
		return
	}

	for _, n := range batch {
		event := events.NewEvent(notificationType, map[string]any{
			"notification_id": n.ID,
			"complaint_id":    c.ID,
			"message":         message,
			"status":          c.Status,
		})
		err := s.bus.PublishToUser(ctx, n.UserID, event)
		metrics.RecordNotificationPublished(err == nil)
		if err != nil {
			log.Printf("notification: realtime publish to %s failed: %v", n.UserID, err)
		}
	}
}

func dedup(ids []types.ID) []types.ID {
	seen := make(map[types.ID]struct{}, len(ids))
	var out []types.ID
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
