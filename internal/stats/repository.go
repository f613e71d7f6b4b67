package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodhran-gov/complaints/internal/complaint/domain"
	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Repository runs the dashboard aggregate queries
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new stats repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Overview computes the dashboard headline inside the scope
func (r *Repository) Overview(ctx context.Context, scope domain.ScopeFilter) (*Overview, error) {
	conditions, args := scopeConditions(scope)
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	o := &Overview{ByStatus: make(map[domain.Status]int)}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT status, COUNT(*) FROM complaints.complaints %s GROUP BY status`,
		whereClause,
	), args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count complaints by status")
	}
	defer rows.Close()

	for rows.Next() {
		var status domain.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan status count")
		}
		o.ByStatus[status] = count
		o.Total += count
	}
	rows.Close()

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevStart := monthStart.AddDate(0, -1, 0)

	monthConditions := append(append([]string{}, conditions...),
		fmt.Sprintf("created_at >= $%d", len(args)+1),
		fmt.Sprintf("created_at < $%d", len(args)+2),
	)

	thisArgs := append(append([]interface{}{}, args...), monthStart, monthStart.AddDate(0, 1, 0))
	if err := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM complaints.complaints WHERE %s`,
		strings.Join(monthConditions, " AND "),
	), thisArgs...).Scan(&o.ThisMonth); err != nil {
		return nil, errors.Wrap(err, "failed to count this month")
	}

	prevArgs := append(append([]interface{}{}, args...), prevStart, monthStart)
	if err := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM complaints.complaints WHERE %s`,
		strings.Join(monthConditions, " AND "),
	), prevArgs...).Scan(&o.LastMonth); err != nil {
		return nil, errors.Wrap(err, "failed to count last month")
	}

	o.ChangePct = monthChange(o.ThisMonth, o.LastMonth)

	if err := r.countActiveUsers(ctx, scope, &o.ActiveUsers); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) countActiveUsers(ctx context.Context, scope domain.ScopeFilter, out *int) error {
	conditions := []string{"is_active = TRUE"}
	var args []interface{}

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

	if err := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM identity.users WHERE %s`,
		strings.Join(conditions, " AND "),
	), args...).Scan(out); err != nil {
		return errors.Wrap(err, "failed to count active users")
	}
	return nil
}

// Mine computes an employee's own queue counts
func (r *Repository) Mine(ctx context.Context, userID types.ID) (*MyStats, error) {
	m := &MyStats{ByStatus: make(map[domain.Status]int)}

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*), COUNT(*) FILTER (WHERE NOT seen)
		FROM complaints.complaints
		WHERE assigned_to_user_id = $1
		GROUP BY status`, userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count own assignments")
	}
	defer rows.Close()

	for rows.Next() {
		var status domain.Status
		var count, unseen int
		if err := rows.Scan(&status, &count, &unseen); err != nil {
			return nil, errors.Wrap(err, "failed to scan own assignment count")
		}
		m.ByStatus[status] = count
		m.Total += count
		m.Unseen += unseen
	}
	return m, nil
}

// Recent returns the newest complaints inside the scope
func (r *Repository) Recent(ctx context.Context, scope domain.ScopeFilter, limit int) ([]RecentComplaint, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	conditions, args := scopeConditions(scope)
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, title, status, area_type, created_at
		FROM complaints.complaints %s
		ORDER BY created_at DESC
		LIMIT $%d`, whereClause, len(args),
	), args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent complaints")
	}
	defer rows.Close()

	var recent []RecentComplaint
	for rows.Next() {
		var rc RecentComplaint
		if err := rows.Scan(&rc.ID, &rc.Title, &rc.Status, &rc.AreaType, &rc.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan recent complaint")
		}
		recent = append(recent, rc)
	}
	return recent, nil
}

// Employees aggregates workload per field employee inside the scope
func (r *Repository) Employees(ctx context.Context, scope domain.ScopeFilter) ([]EmployeeStats, error) {
	conditions := []string{"c.assigned_to_user_id IS NOT NULL"}
	scopeConds, args := scopeConditions(scope)
	for _, cond := range scopeConds {
		conditions = append(conditions, "c."+cond)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT u.id, u.full_name, c.assigned_to_role,
			COUNT(*) FILTER (WHERE c.status = 'progress'),
			COUNT(*) FILTER (WHERE c.status IN ('resolveByEmployee', 'resolved')),
			COUNT(*) FILTER (WHERE c.status = 'completed')
		FROM complaints.complaints c
		JOIN identity.users u ON u.id = c.assigned_to_user_id
		WHERE %s
		GROUP BY u.id, u.full_name, c.assigned_to_role
		ORDER BY u.full_name`, strings.Join(conditions, " AND "),
	), args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate employee stats")
	}
	defer rows.Close()

	var stats []EmployeeStats
	for rows.Next() {
		var s EmployeeStats
		if err := rows.Scan(&s.UserID, &s.FullName, &s.Role, &s.Assigned, &s.InReview, &s.Completed); err != nil {
			return nil, errors.Wrap(err, "failed to scan employee stats")
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// scopeConditions translates a scope filter into WHERE conditions
func scopeConditions(scope domain.ScopeFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

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

// monthChange computes month-over-month growth. A silent previous
// month yields 0 instead of a division blowup.
func monthChange(current, previous int) float64 {
	if previous == 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}
