package notification

import (
	"time"

	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Notification types
const (
	TypeComplaintCreated  = "complaint.created"
	TypeComplaintAssigned = "complaint.assigned"
	TypeStatusChanged     = "complaint.status_changed"
)

// Notification is one persisted notification row. The row is the source
// of truth; realtime delivery is best effort on top of it.
type Notification struct {
	ID          types.ID  `json:"id"`
	UserID      types.ID  `json:"user_id"`
	ComplaintID *types.ID `json:"complaint_id,omitempty"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}
