package billing

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentdesk/rentdesk/internal/platform/db"
)

type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides PostgreSQL backed persistence for billing.
type Repository struct {
	pool *pgxpool.Pool
	q    queryer
}

// NewRepository constructs a repository over the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: pool}
}

// Transact runs fn against a repository bound to one RepeatableRead
// transaction. Nested calls reuse the surrounding transaction.
func (r *Repository) Transact(ctx context.Context, fn func(RepositoryPort) error) error {
	if _, ok := r.q.(pgx.Tx); ok {
		return fn(r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&Repository{pool: r.pool, q: tx})
	})
}

// --- Rates ---

// GetRates returns the singleton rate table, zero-valued when never set.
func (r *Repository) GetRates(ctx context.Context) (RateTable, error) {
	var rates RateTable
	err := r.q.QueryRow(ctx, `
		SELECT electricity, water, updated_at
		FROM utility_rates WHERE id = 1`).
		Scan(&rates.Electricity, &rates.Water, &rates.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return RateTable{}, nil
	}
	if err != nil {
		return RateTable{}, err
	}
	return rates, nil
}

// SaveRates upserts the singleton rate table row.
func (r *Repository) SaveRates(ctx context.Context, rates RateTable) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO utility_rates (id, electricity, water, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET electricity = EXCLUDED.electricity,
		    water = EXCLUDED.water,
		    updated_at = EXCLUDED.updated_at`,
		rates.Electricity, rates.Water, rates.UpdatedAt)
	return err
}

// --- Bills ---

const billColumns = `
	id, tenant_id, month,
	electricity_units, water_units, electricity_rate, water_rate,
	electricity_amount, water_amount, total_amount, paid_amount,
	status, payment_ids, due_at, created_at, updated_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(
		&b.ID, &b.TenantID, &b.Month,
		&b.ElectricityUnits, &b.WaterUnits, &b.ElectricityRate, &b.WaterRate,
		&b.ElectricityAmount, &b.WaterAmount, &b.TotalAmount, &b.PaidAmount,
		&b.Status, &b.PaymentIDs, &b.DueAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBill retrieves one bill by id.
func (r *Repository) GetBill(ctx context.Context, id int64) (*Bill, error) {
	bill, err := scanBill(r.q.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return bill, err
}

// GetBillForMonth retrieves the tenant's bill for a month, nil when absent.
func (r *Repository) GetBillForMonth(ctx context.Context, tenantID int64, month string) (*Bill, error) {
	bill, err := scanBill(r.q.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE tenant_id = $1 AND month = $2`,
		tenantID, month))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return bill, err
}

// CreateBill inserts a bill and fills in its id.
func (r *Repository) CreateBill(ctx context.Context, b *Bill) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO bills (
			tenant_id, month,
			electricity_units, water_units, electricity_rate, water_rate,
			electricity_amount, water_amount, total_amount, paid_amount,
			status, payment_ids, due_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		b.TenantID, b.Month,
		b.ElectricityUnits, b.WaterUnits, b.ElectricityRate, b.WaterRate,
		b.ElectricityAmount, b.WaterAmount, b.TotalAmount, b.PaidAmount,
		b.Status, paymentIDsParam(b.PaymentIDs), b.DueAt, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if isUniqueViolation(err) {
		return ErrBillExists
	}
	return err
}

// UpdateBill rewrites a bill row.
func (r *Repository) UpdateBill(ctx context.Context, b *Bill) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE bills SET
			electricity_units = $2, water_units = $3,
			electricity_rate = $4, water_rate = $5,
			electricity_amount = $6, water_amount = $7,
			total_amount = $8, paid_amount = $9,
			status = $10, payment_ids = $11, updated_at = $12
		WHERE id = $1`,
		b.ID,
		b.ElectricityUnits, b.WaterUnits,
		b.ElectricityRate, b.WaterRate,
		b.ElectricityAmount, b.WaterAmount,
		b.TotalAmount, b.PaidAmount,
		b.Status, paymentIDsParam(b.PaymentIDs), b.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Rent statuses ---

const rentStatusColumns = `
	id, tenant_id, month, required_amount, paid_amount, remaining_amount,
	status, payment_ids, due_at, created_at, updated_at`

// GetRentStatus retrieves the tenant's rent status for a month, nil when
// absent.
func (r *Repository) GetRentStatus(ctx context.Context, tenantID int64, month string) (*RentStatus, error) {
	var rs RentStatus
	err := r.q.QueryRow(ctx,
		`SELECT `+rentStatusColumns+` FROM rent_statuses WHERE tenant_id = $1 AND month = $2`,
		tenantID, month).Scan(
		&rs.ID, &rs.TenantID, &rs.Month, &rs.RequiredAmount, &rs.PaidAmount, &rs.RemainingAmount,
		&rs.Status, &rs.PaymentIDs, &rs.DueAt, &rs.CreatedAt, &rs.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

// CreateRentStatus inserts a rent status and fills in its id.
func (r *Repository) CreateRentStatus(ctx context.Context, rs *RentStatus) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO rent_statuses (
			tenant_id, month, required_amount, paid_amount, remaining_amount,
			status, payment_ids, due_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		rs.TenantID, rs.Month, rs.RequiredAmount, rs.PaidAmount, rs.RemainingAmount,
		rs.Status, paymentIDsParam(rs.PaymentIDs), rs.DueAt, rs.CreatedAt, rs.UpdatedAt,
	).Scan(&rs.ID)
}

// UpdateRentStatus rewrites a rent status row.
func (r *Repository) UpdateRentStatus(ctx context.Context, rs *RentStatus) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE rent_statuses SET
			required_amount = $2, paid_amount = $3, remaining_amount = $4,
			status = $5, payment_ids = $6, updated_at = $7
		WHERE id = $1`,
		rs.ID,
		rs.RequiredAmount, rs.PaidAmount, rs.RemainingAmount,
		rs.Status, paymentIDsParam(rs.PaymentIDs), rs.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Payments ---

const paymentColumns = `
	id, reference, type, tenant_id, COALESCE(bill_id, 0), amount, applied_amount,
	month, method, status, notes, admin_notes, submitted_at, paid_at`

// GetPayment retrieves one payment by id.
func (r *Repository) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	var p Payment
	err := r.q.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id).Scan(
		&p.ID, &p.Reference, &p.Type, &p.TenantID, &p.BillID, &p.Amount, &p.AppliedAmount,
		&p.Month, &p.Method, &p.Status, &p.Notes, &p.AdminNotes, &p.SubmittedAt, &p.PaidAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment inserts a payment and fills in its id.
func (r *Repository) CreatePayment(ctx context.Context, p *Payment) error {
	var billID any
	if p.BillID > 0 {
		billID = p.BillID
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO payments (
			reference, type, tenant_id, bill_id, amount, applied_amount, month,
			method, status, notes, admin_notes, submitted_at, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		p.Reference, p.Type, p.TenantID, billID, p.Amount, p.AppliedAmount, p.Month,
		p.Method, p.Status, p.Notes, p.AdminNotes, p.SubmittedAt, p.PaidAt,
	).Scan(&p.ID)
	if isUniqueViolation(err) {
		return ErrDuplicatePayment
	}
	return err
}

// UpdatePayment rewrites the mutable payment fields.
func (r *Repository) UpdatePayment(ctx context.Context, p *Payment) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE payments SET status = $2, admin_notes = $3, paid_at = $4, applied_amount = $5
		WHERE id = $1`,
		p.ID, p.Status, p.AdminNotes, p.PaidAt, p.AppliedAmount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPayments returns payments matching the filter, newest first.
func (r *Repository) ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`
	args := []any{}
	if filter.TenantID != 0 {
		args = append(args, filter.TenantID)
		query += ` AND tenant_id = $` + itoa(len(args))
	}
	if filter.Month != "" {
		args = append(args, filter.Month)
		query += ` AND month = $` + itoa(len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += ` AND type = $` + itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + itoa(len(args))
	}
	query += ` ORDER BY submitted_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + itoa(len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID, &p.Reference, &p.Type, &p.TenantID, &p.BillID, &p.Amount, &p.AppliedAmount,
			&p.Month, &p.Method, &p.Status, &p.Notes, &p.AdminNotes, &p.SubmittedAt, &p.PaidAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// paymentIDsParam keeps array columns non-null.
func paymentIDsParam(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
