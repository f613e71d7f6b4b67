package activity

import (
	"context"
	"log"
	"time"

	"github.com/lodhran-gov/complaints/internal/shared/metrics"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Store persists entries
type Store interface {
	Append(ctx context.Context, e *Entry) error
}

// Logger records activity entries. Recording never fails the caller's
// operation, a failed append is logged and dropped.
type Logger struct {
	store Store
}

// NewLogger creates a new activity logger
func NewLogger(store Store) *Logger {
	return &Logger{store: store}
}

// Record appends one entry to the activity log
func (l *Logger) Record(ctx context.Context, action string, performedBy types.ID, targetID types.ID, targetType string, meta map[string]any) {
	e := &Entry{
		ID:         types.NewID(),
		Action:     action,
		TargetType: targetType,
		Meta:       meta,
		CreatedAt:  time.Now(),
	}
	if !performedBy.IsZero() {
		e.PerformedBy = &performedBy
	}
	if !targetID.IsZero() {
		e.TargetID = &targetID
	}

	if err := l.store.Append(ctx, e); err != nil {
		log.Printf("activity: failed to record %s: %v", action, err)
		return
	}
	metrics.RecordActivityEntry()
}
