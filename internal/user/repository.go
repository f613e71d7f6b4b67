package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Repository provides database operations for users
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new user repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `u.id, u.username, u.email, u.password_hash, u.full_name, u.phone,
	u.role_id, r.name, u.zila_id, u.tehsil_id, u.mc_id, u.district_council_id,
	u.is_active, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	var email, phone *string
	err := row.Scan(
		&u.ID, &u.Username, &email, &u.PasswordHash, &u.FullName, &phone,
		&u.RoleID, &u.RoleName, &u.ZilaID, &u.TehsilID, &u.MCID, &u.DistrictCouncilID,
		&u.Active, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if email != nil {
		u.Email = *email
	}
	if phone != nil {
		u.Phone = *phone
	}
	return u, nil
}

// Create creates a new user
func (r *Repository) Create(ctx context.Context, u *User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO identity.users (
			id, username, email, password_hash, full_name, phone,
			role_id, zila_id, tehsil_id, mc_id, district_council_id, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FullName, u.Phone,
		u.RoleID, u.ZilaID, u.TehsilID, u.MCID, u.DistrictCouncilID, u.Active,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("username already taken")
		}
		return errors.Wrap(err, "failed to create user")
	}
	return nil
}

// Get retrieves a user by ID, active or not
func (r *Repository) Get(ctx context.Context, id types.ID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM identity.users u
		JOIN identity.roles r ON r.id = u.role_id
		WHERE u.id = $1`, id)

	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	return u, nil
}

// FindActive retrieves an active user by ID
func (r *Repository) FindActive(ctx context.Context, id types.ID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM identity.users u
		JOIN identity.roles r ON r.id = u.role_id
		WHERE u.id = $1 AND u.is_active`, id)

	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	return u, nil
}

// GetByUsername retrieves a user by username for authentication
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM identity.users u
		JOIN identity.roles r ON r.id = u.role_id
		WHERE u.username = $1`, username)

	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", username)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user by username")
	}
	return u, nil
}

// List lists users matching the filter with the total count
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if len(filter.RoleIDs) > 0 {
		placeholders := make([]string, len(filter.RoleIDs))
		for i, id := range filter.RoleIDs {
			placeholders[i] = fmt.Sprintf("$%d", argNum)
			args = append(args, id)
			argNum++
		}
		conditions = append(conditions, fmt.Sprintf("u.role_id IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filter.ZilaID != nil {
		conditions = append(conditions, fmt.Sprintf("u.zila_id = $%d", argNum))
		args = append(args, *filter.ZilaID)
		argNum++
	}

	if filter.TehsilID != nil {
		conditions = append(conditions, fmt.Sprintf("u.tehsil_id = $%d", argNum))
		args = append(args, *filter.TehsilID)
		argNum++
	}

	if filter.MCID != nil {
		conditions = append(conditions, fmt.Sprintf("u.mc_id = $%d", argNum))
		args = append(args, *filter.MCID)
		argNum++
	}

	if filter.DistrictCouncilID != nil {
		conditions = append(conditions, fmt.Sprintf("u.district_council_id = $%d", argNum))
		args = append(args, *filter.DistrictCouncilID)
		argNum++
	}

	if filter.ExcludeUserID != nil {
		conditions = append(conditions, fmt.Sprintf("u.id <> $%d", argNum))
		args = append(args, *filter.ExcludeUserID)
		argNum++
	}

	if filter.ActiveOnly {
		conditions = append(conditions, "u.is_active")
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(u.username ILIKE $%d OR u.full_name ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM identity.users u %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count users")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT `+userColumns+`
		FROM identity.users u
		JOIN identity.roles r ON r.id = u.role_id
		%s
		ORDER BY u.full_name
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan user")
		}
		users = append(users, *u)
	}

	return users, total, nil
}

// ListActiveUserIDs returns the IDs of active users holding a role,
// optionally restricted by jurisdiction. Used by notification fan-out.
func (r *Repository) ListActiveUserIDs(ctx context.Context, roleID types.ID, zilaID, tehsilID, mcID, councilID *types.ID) ([]types.ID, error) {
	conditions := []string{"role_id = $1", "is_active"}
	args := []interface{}{roleID}
	argNum := 2

	if zilaID != nil {
		conditions = append(conditions, fmt.Sprintf("zila_id = $%d", argNum))
		args = append(args, *zilaID)
		argNum++
	}
	if tehsilID != nil {
		conditions = append(conditions, fmt.Sprintf("tehsil_id = $%d", argNum))
		args = append(args, *tehsilID)
		argNum++
	}
	if mcID != nil {
		conditions = append(conditions, fmt.Sprintf("mc_id = $%d", argNum))
		args = append(args, *mcID)
		argNum++
	}
	if councilID != nil {
		conditions = append(conditions, fmt.Sprintf("district_council_id = $%d", argNum))
		args = append(args, *councilID)
		argNum++
	}

	query := fmt.Sprintf(
		`SELECT id FROM identity.users WHERE %s`,
		strings.Join(conditions, " AND "),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user IDs")
	}
	defer rows.Close()

	var ids []types.ID
	for rows.Next() {
		var id types.ID
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan user ID")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Update updates mutable account fields
func (r *Repository) Update(ctx context.Context, u *User) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE identity.users SET
			email = $2, full_name = $3, phone = $4, password_hash = $5,
			updated_at = NOW()
		WHERE id = $1`,
		u.ID, u.Email, u.FullName, u.Phone, u.PasswordHash,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update user")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("user", u.ID.String())
	}
	return nil
}

// Deactivate soft deletes a user. The row stays so history keeps its
// author.
func (r *Repository) Deactivate(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE identity.users SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`,
		id,
	)
	if err != nil {
		return errors.Wrap(err, "failed to deactivate user")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("user", id.String())
	}
	return nil
}
