package activity

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodhran-gov/complaints/internal/shared/errors"
)

// Repository provides database operations for the activity log. The log
// is append-only, there are no update or delete operations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new activity repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Append persists one entry
func (r *Repository) Append(ctx context.Context, e *Entry) error {
	var meta []byte
	if e.Meta != nil {
		var err error
		meta, err = json.Marshal(e.Meta)
		if err != nil {
			return errors.Wrap(err, "failed to marshal activity metadata")
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit.activities (id, action, performed_by, target_id, target_type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Action, e.PerformedBy, e.TargetID, e.TargetType, meta,
	)
	if err != nil {
		return errors.Wrap(err, "failed to append activity")
	}
	return nil
}

// Recent returns the newest entries, most recent first
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, action, performed_by, target_id, target_type, metadata, created_at
		FROM audit.activities
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list activities")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.Action, &e.PerformedBy, &e.TargetID, &e.TargetType, &meta, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan activity")
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal activity metadata")
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
