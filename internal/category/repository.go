package category

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Repository provides database operations for categories
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new category repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create creates a new category
func (r *Repository) Create(ctx context.Context, c *Category) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO complaints.categories (id, name) VALUES ($1, $2)`,
		c.ID, c.Name,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("category already exists")
		}
		return errors.Wrap(err, "failed to create category")
	}
	return nil
}

// Get retrieves a category by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Category, error) {
	c := &Category{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM complaints.categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("category", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get category")
	}
	return c, nil
}

// List lists all categories
func (r *Repository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at FROM complaints.categories ORDER BY name`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list categories")
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan category")
		}
		categories = append(categories, c)
	}
	return categories, nil
}

// Update renames a category
func (r *Repository) Update(ctx context.Context, id types.ID, name string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE complaints.categories SET name = $2 WHERE id = $1`, id, name,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("category already exists")
		}
		return errors.Wrap(err, "failed to update category")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("category", id.String())
	}
	return nil
}

// Delete removes a category. Categories referenced by complaints are
// kept to preserve history.
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM complaints.categories WHERE id = $1`, id,
	)
	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return errors.Conflict("category is used by existing complaints")
		}
		return errors.Wrap(err, "failed to delete category")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("category", id.String())
	}
	return nil
}
