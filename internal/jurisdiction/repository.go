package jurisdiction

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Repository provides database operations for the jurisdiction hierarchy
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new jurisdiction repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// --- Zila operations ---

// CreateZila creates a new zila
func (r *Repository) CreateZila(ctx context.Context, z *Zila) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO jurisdiction.zilas (id, name) VALUES ($1, $2)`,
		z.ID, z.Name,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create zila")
	}
	return nil
}

// GetZila retrieves a zila by ID
func (r *Repository) GetZila(ctx context.Context, id types.ID) (*Zila, error) {
	z := &Zila{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM jurisdiction.zilas WHERE id = $1`, id,
	).Scan(&z.ID, &z.Name, &z.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("zila", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get zila")
	}
	return z, nil
}

// ListZilas lists all zilas
func (r *Repository) ListZilas(ctx context.Context) ([]Zila, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at FROM jurisdiction.zilas ORDER BY name`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list zilas")
	}
	defer rows.Close()

	var zilas []Zila
	for rows.Next() {
		var z Zila
		if err := rows.Scan(&z.ID, &z.Name, &z.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan zila")
		}
		zilas = append(zilas, z)
	}
	return zilas, nil
}

// --- Tehsil operations ---

// CreateTehsil creates a new tehsil under a zila
func (r *Repository) CreateTehsil(ctx context.Context, t *Tehsil) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO jurisdiction.tehsils (id, name, zila_id) VALUES ($1, $2, $3)`,
		t.ID, t.Name, t.ZilaID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return errors.NotFound("zila", t.ZilaID.String())
		}
		return errors.Wrap(err, "failed to create tehsil")
	}
	return nil
}

// GetTehsil retrieves a tehsil by ID
func (r *Repository) GetTehsil(ctx context.Context, id types.ID) (*Tehsil, error) {
	t := &Tehsil{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, zila_id, created_at FROM jurisdiction.tehsils WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.ZilaID, &t.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("tehsil", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tehsil")
	}
	return t, nil
}

// ListTehsils lists tehsils, optionally restricted to a zila
func (r *Repository) ListTehsils(ctx context.Context, zilaID *types.ID) ([]Tehsil, error) {
	query := `SELECT id, name, zila_id, created_at FROM jurisdiction.tehsils`
	var args []interface{}
	if zilaID != nil {
		query += ` WHERE zila_id = $1`
		args = append(args, *zilaID)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tehsils")
	}
	defer rows.Close()

	var tehsils []Tehsil
	for rows.Next() {
		var t Tehsil
		if err := rows.Scan(&t.ID, &t.Name, &t.ZilaID, &t.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan tehsil")
		}
		tehsils = append(tehsils, t)
	}
	return tehsils, nil
}

// --- Municipal committee operations ---

// CreateCommittee creates a new municipal committee. The tehsil must
// belong to the given zila.
func (r *Repository) CreateCommittee(ctx context.Context, mc *MunicipalCommittee) error {
	var zilaID types.ID
	err := r.pool.QueryRow(ctx,
		`SELECT zila_id FROM jurisdiction.tehsils WHERE id = $1`, mc.TehsilID,
	).Scan(&zilaID)
	if err == pgx.ErrNoRows {
		return errors.NotFound("tehsil", mc.TehsilID.String())
	}
	if err != nil {
		return errors.Wrap(err, "failed to check tehsil")
	}
	if zilaID != mc.ZilaID {
		return errors.BadRequest("tehsil does not belong to the given zila")
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO jurisdiction.municipal_committees (id, name, zila_id, tehsil_id)
		 VALUES ($1, $2, $3, $4)`,
		mc.ID, mc.Name, mc.ZilaID, mc.TehsilID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create municipal committee")
	}
	return nil
}

// GetCommittee retrieves a municipal committee by ID
func (r *Repository) GetCommittee(ctx context.Context, id types.ID) (*MunicipalCommittee, error) {
	mc := &MunicipalCommittee{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, zila_id, tehsil_id, created_at
		 FROM jurisdiction.municipal_committees WHERE id = $1`, id,
	).Scan(&mc.ID, &mc.Name, &mc.ZilaID, &mc.TehsilID, &mc.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("municipal committee", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get municipal committee")
	}
	return mc, nil
}

// ListCommittees lists committees, optionally restricted to a tehsil
func (r *Repository) ListCommittees(ctx context.Context, tehsilID *types.ID) ([]MunicipalCommittee, error) {
	query := `SELECT id, name, zila_id, tehsil_id, created_at FROM jurisdiction.municipal_committees`
	var args []interface{}
	if tehsilID != nil {
		query += ` WHERE tehsil_id = $1`
		args = append(args, *tehsilID)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list municipal committees")
	}
	defer rows.Close()

	var committees []MunicipalCommittee
	for rows.Next() {
		var mc MunicipalCommittee
		if err := rows.Scan(&mc.ID, &mc.Name, &mc.ZilaID, &mc.TehsilID, &mc.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan municipal committee")
		}
		committees = append(committees, mc)
	}
	return committees, nil
}

// --- District council operations ---

// CreateCouncil creates the district council for a zila. The unique
// index on zila_id enforces one council per zila.
func (r *Repository) CreateCouncil(ctx context.Context, dc *DistrictCouncil) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO jurisdiction.district_councils (id, name, zila_id) VALUES ($1, $2, $3)`,
		dc.ID, dc.Name, dc.ZilaID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("zila already has a district council")
		}
		if strings.Contains(err.Error(), "foreign key") {
			return errors.NotFound("zila", dc.ZilaID.String())
		}
		return errors.Wrap(err, "failed to create district council")
	}
	return nil
}

// GetCouncilByZila retrieves the council of a zila
func (r *Repository) GetCouncilByZila(ctx context.Context, zilaID types.ID) (*DistrictCouncil, error) {
	dc := &DistrictCouncil{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, zila_id, created_at FROM jurisdiction.district_councils WHERE zila_id = $1`,
		zilaID,
	).Scan(&dc.ID, &dc.Name, &dc.ZilaID, &dc.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("district council", zilaID.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get district council")
	}
	return dc, nil
}

// ListCouncils lists all district councils
func (r *Repository) ListCouncils(ctx context.Context) ([]DistrictCouncil, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, zila_id, created_at FROM jurisdiction.district_councils ORDER BY name`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list district councils")
	}
	defer rows.Close()

	var councils []DistrictCouncil
	for rows.Next() {
		var dc DistrictCouncil
		if err := rows.Scan(&dc.ID, &dc.Name, &dc.ZilaID, &dc.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan district council")
		}
		councils = append(councils, dc)
	}
	return councils, nil
}
