package role

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Repository provides database operations for roles
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new role repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create creates a new role. Duplicate names among active roles are
// rejected case-insensitively so "dc" cannot coexist with "DC".
func (r *Repository) Create(ctx context.Context, role *Role) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM identity.roles WHERE UPPER(name) = UPPER($1) AND is_active)`,
		role.Name,
	).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "failed to check role name")
	}
	if exists {
		return errors.Conflict("role with this name already exists")
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO identity.roles (id, name) VALUES ($1, $2)`,
		role.ID, role.Name,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("role with this name already exists")
		}
		return errors.Wrap(err, "failed to create role")
	}
	role.Active = true

	return nil
}

// Get retrieves a role by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Role, error) {
	role := &Role{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, is_active, created_at, updated_at FROM identity.roles WHERE id = $1 AND is_active`,
		id,
	).Scan(&role.ID, &role.Name, &role.Active, &role.CreatedAt, &role.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("role", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get role")
	}

	return role, nil
}

// GetByName retrieves a role by exact name
func (r *Repository) GetByName(ctx context.Context, name string) (*Role, error) {
	role := &Role{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, is_active, created_at, updated_at FROM identity.roles WHERE name = $1 AND is_active`,
		name,
	).Scan(&role.ID, &role.Name, &role.Active, &role.CreatedAt, &role.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("role", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get role by name")
	}

	return role, nil
}

// All returns every active role definition
func (r *Repository) All(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, is_active, created_at, updated_at FROM identity.roles WHERE is_active ORDER BY name`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list roles")
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Active, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan role")
		}
		roles = append(roles, role)
	}

	return roles, nil
}

// Update renames an active role
func (r *Repository) Update(ctx context.Context, role *Role) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE identity.roles SET name = $2, updated_at = NOW() WHERE id = $1 AND is_active`,
		role.ID, role.Name,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("role with this name already exists")
		}
		return errors.Wrap(err, "failed to update role")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("role", role.ID.String())
	}

	return nil
}

// Delete deactivates a role, keeping the row so historical references
// stay resolvable. Fails while active users still hold the role.
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	var inUse bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM identity.users WHERE role_id = $1 AND is_active)`,
		id,
	).Scan(&inUse)
	if err != nil {
		return errors.Wrap(err, "failed to check role usage")
	}
	if inUse {
		return errors.Conflict("role is assigned to existing users")
	}

	result, err := r.pool.Exec(ctx,
		`UPDATE identity.roles SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`,
		id,
	)
	if err != nil {
		return errors.Wrap(err, "failed to deactivate role")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("role", id.String())
	}

	return nil
}
