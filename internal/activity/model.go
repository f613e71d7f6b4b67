package activity

import (
	"time"

	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Entry is one append-only activity log record
type Entry struct {
	ID          types.ID       `json:"id"`
	Action      string         `json:"action"`
	PerformedBy *types.ID      `json:"performed_by,omitempty"`
	TargetID    *types.ID      `json:"target_id,omitempty"`
	TargetType  string         `json:"target_type,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
