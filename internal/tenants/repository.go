package tenants

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for tenants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const tenantColumns = `
	id, name, email, phone, COALESCE(unit_id, 0), monthly_rent,
	lease_start, lease_end, status, created_at, updated_at`

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	var leaseStart, leaseEnd pgtype.Timestamptz
	err := row.Scan(
		&t.ID, &t.Name, &t.Email, &t.Phone, &t.UnitID, &t.MonthlyRent,
		&leaseStart, &leaseEnd, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if leaseStart.Valid {
		t.LeaseStart = leaseStart.Time
	}
	if leaseEnd.Valid {
		t.LeaseEnd = leaseEnd.Time
	}
	return &t, nil
}

// Get retrieves one tenant by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// List returns tenants matching the filter.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.UnitID != 0 {
		args = append(args, filter.UnitID)
		query += ` AND unit_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY name`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Create inserts a tenant and fills in its id.
func (r *Repository) Create(ctx context.Context, t *Tenant) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO tenants (
			name, email, phone, unit_id, monthly_rent,
			lease_start, lease_end, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		t.Name, t.Email, t.Phone, nullableID(t.UnitID), t.MonthlyRent,
		nullableTime(t.LeaseStart), nullableTime(t.LeaseEnd), t.Status,
		t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
}

// Update rewrites a tenant row.
func (r *Repository) Update(ctx context.Context, t *Tenant) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tenants SET
			name = $2, email = $3, phone = $4, unit_id = $5, monthly_rent = $6,
			lease_start = $7, lease_end = $8, status = $9, updated_at = $10
		WHERE id = $1`,
		t.ID,
		t.Name, t.Email, t.Phone, nullableID(t.UnitID), t.MonthlyRent,
		nullableTime(t.LeaseStart), nullableTime(t.LeaseEnd), t.Status, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
