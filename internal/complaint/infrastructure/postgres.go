package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodhran-gov/complaints/internal/complaint/domain"
	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// PostgresRepository implements domain.Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const complaintColumns = `id, title, description, category_id, image,
	latitude, longitude, location_name,
	area_type, zila_id, tehsil_id, mc_id, district_council_id,
	created_by, assigned_to_user_id, assigned_to_role, assigned_at,
	status, seen,
	resolution_image, resolution_note, resolution_latitude, resolution_longitude,
	remark_by_dc, rejected_by, rejected_at, completed_by, completed_at,
	created_at, updated_at`

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	c := &domain.Complaint{}
	var lat, lng, resLat, resLng *float64

	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.CategoryID, &c.Image,
		&lat, &lng, &c.LocationName,
		&c.AreaType, &c.ZilaID, &c.TehsilID, &c.MCID, &c.DistrictCouncilID,
		&c.CreatedBy, &c.AssignedToUserID, &c.AssignedToRole, &c.AssignedAt,
		&c.Status, &c.Seen,
		&c.ResolutionImage, &c.ResolutionNote, &resLat, &resLng,
		&c.RemarkByDC, &c.RejectedBy, &c.RejectedAt, &c.CompletedBy, &c.CompletedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lat != nil && lng != nil {
		c.Location = &types.Point{Latitude: *lat, Longitude: *lng}
	}
	if resLat != nil && resLng != nil {
		c.ResolutionLocation = &types.Point{Latitude: *resLat, Longitude: *resLng}
	}
	return c, nil
}

// Save persists a new complaint
func (r *PostgresRepository) Save(ctx context.Context, c *domain.Complaint) error {
	var lat, lng *float64
	if c.Location != nil {
		lat, lng = &c.Location.Latitude, &c.Location.Longitude
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO complaints.complaints (
			id, title, description, category_id, image,
			latitude, longitude, location_name,
			area_type, zila_id, tehsil_id, mc_id, district_council_id,
			created_by, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		c.ID, c.Title, c.Description, c.CategoryID, c.Image,
		lat, lng, c.LocationName,
		c.AreaType, c.ZilaID, c.TehsilID, c.MCID, c.DistrictCouncilID,
		c.CreatedBy, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return errors.BadRequest("complaint references an unknown jurisdiction or category")
		}
		return errors.Wrap(err, "failed to save complaint")
	}
	return nil
}

// Find retrieves a complaint without scope checks
func (r *PostgresRepository) Find(ctx context.Context, id types.ID) (*domain.Complaint, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+complaintColumns+` FROM complaints.complaints WHERE id = $1`, id)

	c, err := scanComplaint(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("complaint", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find complaint")
	}
	return c, nil
}

// FindScoped retrieves a complaint visible inside the scope
func (r *PostgresRepository) FindScoped(ctx context.Context, id types.ID, scope domain.ScopeFilter) (*domain.Complaint, error) {
	conditions := []string{"id = $1"}
	args := []interface{}{id}
	conditions, args = appendScope(conditions, args, scope)

	row := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM complaints.complaints WHERE %s`,
		complaintColumns, strings.Join(conditions, " AND "),
	), args...)

	c, err := scanComplaint(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("complaint", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find complaint")
	}
	return c, nil
}

// List returns complaints inside the scope with the total count
func (r *PostgresRepository) List(ctx context.Context, scope domain.ScopeFilter, filter domain.ListFilter) ([]domain.Complaint, int, error) {
	var conditions []string
	var args []interface{}
	conditions, args = appendScope(conditions, args, scope)

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)+1))
		args = append(args, *filter.CategoryID)
	}
	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d OR location_name ILIKE $%d)", n, n, n))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM complaints.complaints %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count complaints")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s FROM complaints.complaints
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		complaintColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list complaints")
	}
	defer rows.Close()

	var complaints []domain.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan complaint")
		}
		complaints = append(complaints, *c)
	}

	return complaints, total, nil
}

// MarkSeen flags every unseen complaint inside the scope
func (r *PostgresRepository) MarkSeen(ctx context.Context, scope domain.ScopeFilter) (int64, error) {
	conditions := []string{"NOT seen"}
	var args []interface{}
	conditions, args = appendScope(conditions, args, scope)

	result, err := r.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE complaints.complaints SET seen = TRUE, updated_at = NOW() WHERE %s`,
		strings.Join(conditions, " AND "),
	), args...)
	if err != nil {
		return 0, errors.Wrap(err, "failed to mark complaints seen")
	}
	return result.RowsAffected(), nil
}

// Assign sets the assignee and moves the complaint to progress in one
// conditional statement. A racing assignment or a wrong source status
// makes the row count zero.
func (r *PostgresRepository) Assign(ctx context.Context, id types.ID, scope domain.ScopeFilter, from []domain.Status, assigneeID types.ID, assigneeRole string, at time.Time) (int64, error) {
	args := []interface{}{id, assigneeID, assigneeRole, at}
	conditions := []string{
		"id = $1",
		"assigned_to_user_id IS NULL",
		statusInClause(from, &args),
	}
	conditions, args = appendScope(conditions, args, scope)

	result, err := r.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE complaints.complaints
		SET assigned_to_user_id = $2, assigned_to_role = $3, assigned_at = $4,
			status = '%s', updated_at = NOW()
		WHERE %s`,
		domain.StatusProgress, strings.Join(conditions, " AND "),
	), args...)
	if err != nil {
		return 0, errors.Wrap(err, "failed to assign complaint")
	}
	return result.RowsAffected(), nil
}

// Transition moves the complaint to target when its status is in from,
// writing the transition fields in the same statement
func (r *PostgresRepository) Transition(ctx context.Context, id types.ID, scope domain.ScopeFilter, from []domain.Status, target domain.Status, fields domain.TransitionFields) (int64, error) {
	args := []interface{}{id, target}
	sets := []string{"status = $2", "updated_at = NOW()"}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.AssignedToUserID != nil {
		appendSet("assigned_to_user_id", *fields.AssignedToUserID)
	}
	if fields.AssignedToRole != nil {
		appendSet("assigned_to_role", *fields.AssignedToRole)
	}
	if fields.AssignedAt != nil {
		appendSet("assigned_at", *fields.AssignedAt)
	}
	if fields.ClearAssignment {
		sets = append(sets, "assigned_to_user_id = NULL", "assigned_to_role = ''", "assigned_at = NULL")
	}
	if fields.ResolutionNote != nil {
		appendSet("resolution_note", *fields.ResolutionNote)
	}
	if fields.ResolutionImage != nil {
		appendSet("resolution_image", *fields.ResolutionImage)
	}
	if fields.ResolutionLocation != nil {
		appendSet("resolution_latitude", fields.ResolutionLocation.Latitude)
		appendSet("resolution_longitude", fields.ResolutionLocation.Longitude)
	}
	if fields.RemarkByDC != nil {
		appendSet("remark_by_dc", *fields.RemarkByDC)
	}
	if fields.RejectedBy != nil {
		appendSet("rejected_by", *fields.RejectedBy)
	}
	if fields.RejectedAt != nil {
		appendSet("rejected_at", *fields.RejectedAt)
	}
	if fields.CompletedBy != nil {
		appendSet("completed_by", *fields.CompletedBy)
	}
	if fields.CompletedAt != nil {
		appendSet("completed_at", *fields.CompletedAt)
	}

	conditions := []string{"id = $1", statusInClause(from, &args)}
	conditions, args = appendScope(conditions, args, scope)

	result, err := r.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE complaints.complaints SET %s WHERE %s`,
		strings.Join(sets, ", "), strings.Join(conditions, " AND "),
	), args...)
	if err != nil {
		return 0, errors.Wrap(err, "failed to transition complaint")
	}
	return result.RowsAffected(), nil
}

// Delete removes a complaint inside the scope
func (r *PostgresRepository) Delete(ctx context.Context, id types.ID, scope domain.ScopeFilter) (int64, error) {
	conditions := []string{"id = $1"}
	args := []interface{}{id}
	conditions, args = appendScope(conditions, args, scope)

	result, err := r.pool.Exec(ctx, fmt.Sprintf(
		`DELETE FROM complaints.complaints WHERE %s`,
		strings.Join(conditions, " AND "),
	), args...)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete complaint")
	}
	return result.RowsAffected(), nil
}

// appendScope translates a scope filter into WHERE conditions
func appendScope(conditions []string, args []interface{}, scope domain.ScopeFilter) ([]string, []interface{}) {
	add := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if scope.ZilaID != nil {
		add("zila_id", *scope.ZilaID)
	}
	if scope.TehsilID != nil {
		add("tehsil_id", *scope.TehsilID)
	}
	if scope.MCID != nil {
		add("mc_id", *scope.MCID)
	}
	if scope.DistrictCouncilID != nil {
		add("district_council_id", *scope.DistrictCouncilID)
	}
	if scope.AreaType != nil {
		add("area_type", *scope.AreaType)
	}
	if scope.CreatedBy != nil {
		add("created_by", *scope.CreatedBy)
	}
	if scope.AssignedTo != nil {
		add("assigned_to_user_id", *scope.AssignedTo)
	}
	return conditions, args
}

// statusInClause builds a status IN (...) condition, appending the
// statuses to args
func statusInClause(from []domain.Status, args *[]interface{}) string {
	placeholders := make([]string, len(from))
	for i, s := range from {
		*args = append(*args, s)
		placeholders[i] = fmt.Sprintf("$%d", len(*args))
	}
	return fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", "))
}
