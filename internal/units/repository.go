package units

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for units.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const unitColumns = `
	id, code, type, floor, monthly_rent, occupancy,
	COALESCE(tenant_id, 0), created_at, updated_at`

func scanUnit(row pgx.Row) (*Unit, error) {
	var u Unit
	err := row.Scan(
		&u.ID, &u.Code, &u.Type, &u.Floor, &u.MonthlyRent, &u.Occupancy,
		&u.TenantID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Get retrieves one unit by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Unit, error) {
	u, err := scanUnit(r.pool.QueryRow(ctx,
		`SELECT `+unitColumns+` FROM units WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// List returns units matching the filter.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE 1=1`
	args := []any{}
	if filter.Occupancy != "" {
		args = append(args, filter.Occupancy)
		query += ` AND occupancy = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY code`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Create inserts a unit and fills in its id.
func (r *Repository) Create(ctx context.Context, u *Unit) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO units (
			code, type, floor, monthly_rent, occupancy, tenant_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		u.Code, u.Type, u.Floor, u.MonthlyRent, u.Occupancy,
		nullableID(u.TenantID), u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// Update rewrites a unit row.
func (r *Repository) Update(ctx context.Context, u *Unit) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE units SET
			code = $2, type = $3, floor = $4, monthly_rent = $5,
			occupancy = $6, tenant_id = $7, updated_at = $8
		WHERE id = $1`,
		u.ID,
		u.Code, u.Type, u.Floor, u.MonthlyRent,
		u.Occupancy, nullableID(u.TenantID), u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
