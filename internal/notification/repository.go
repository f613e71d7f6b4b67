package notification

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Repository provides database operations for notifications
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new notification repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// BulkInsert persists a batch of notifications in one transaction
func (r *Repository) BulkInsert(ctx context.Context, notifications []Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, n := range notifications {
		batch.Queue(`
			INSERT INTO notifications.notifications (id, user_id, complaint_id, type, message, read)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			n.ID, n.UserID, n.ComplaintID, n.Type, n.Message, n.Read,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range notifications {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return errors.Wrap(err, "failed to insert notification")
		}
	}
	if err := results.Close(); err != nil {
		return errors.Wrap(err, "failed to close batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit notifications")
	}
	return nil
}

// ListByUser lists a user's notifications, newest first
func (r *Repository) ListByUser(ctx context.Context, userID types.ID, unreadOnly bool, limit, offset int) ([]Notification, int, error) {
	where := `WHERE user_id = $1`
	if unreadOnly {
		where += ` AND NOT read`
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications.notifications `+where, userID,
	).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count notifications")
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, complaint_id, type, message, read, created_at
		FROM notifications.notifications `+where+`
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.ComplaintID, &n.Type, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan notification")
		}
		notifications = append(notifications, n)
	}

	return notifications, total, nil
}

// MarkAllRead marks every unread notification of a user read and
// returns how many rows changed
func (r *Repository) MarkAllRead(ctx context.Context, userID types.ID) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE notifications.notifications SET read = TRUE WHERE user_id = $1 AND NOT read`,
		userID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "failed to mark notifications read")
	}
	return result.RowsAffected(), nil
}

// MarkRead marks one notification read. The user filter keeps callers
// from flipping other users' rows.
func (r *Repository) MarkRead(ctx context.Context, id, userID types.ID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE notifications.notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to mark notification read")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("notification", id.String())
	}
	return nil
}
