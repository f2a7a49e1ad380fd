package billing

import (
	"context"
	"time"
)

// RepositoryPort defines data access for the billing ledger. Transact runs
// the callback against a repository bound to one transaction so that a
// read-validate-write cycle either commits whole or not at all.
type RepositoryPort interface {
	GetRates(ctx context.Context) (RateTable, error)
	SaveRates(ctx context.Context, rates RateTable) error

	GetBill(ctx context.Context, id int64) (*Bill, error)
	GetBillForMonth(ctx context.Context, tenantID int64, month string) (*Bill, error)
	CreateBill(ctx context.Context, bill *Bill) error
	UpdateBill(ctx context.Context, bill *Bill) error

	GetRentStatus(ctx context.Context, tenantID int64, month string) (*RentStatus, error)
	CreateRentStatus(ctx context.Context, rs *RentStatus) error
	UpdateRentStatus(ctx context.Context, rs *RentStatus) error

	GetPayment(ctx context.Context, id int64) (*Payment, error)
	CreatePayment(ctx context.Context, p *Payment) error
	UpdatePayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error)

	Transact(ctx context.Context, fn func(RepositoryPort) error) error
}

// TenantDirectory is the read-only view of tenant data billing consumes.
type TenantDirectory interface {
	Lease(ctx context.Context, tenantID int64) (Lease, error)
}

// Service handles rate table, bill generation, ledger and payment logic.
type Service struct {
	repo    RepositoryPort
	tenants TenantDirectory
	now     func() time.Time
}

// Option customises Service construction.
type Option func(*Service)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, tenants TenantDirectory, opts ...Option) *Service {
	s := &Service{repo: repo, tenants: tenants, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rates returns the current utility rate table.
func (s *Service) Rates(ctx context.Context) (RateTable, error) {
	return s.repo.GetRates(ctx)
}

// UpdateRates merges the provided fields over the current rate table.
// Missing fields retain their prior value. Values are not range checked;
// correcting a mistaken rate is the administrator's job and existing bills
// keep their snapshots either way.
func (s *Service) UpdateRates(ctx context.Context, update RateUpdate) (RateTable, error) {
	var out RateTable
	err := s.repo.Transact(ctx, func(r RepositoryPort) error {
		rates, err := r.GetRates(ctx)
		if err != nil {
			return err
		}
		if update.Electricity != nil {
			rates.Electricity = *update.Electricity
		}
		if update.Water != nil {
			rates.Water = *update.Water
		}
		rates.UpdatedAt = s.now()
		if err := r.SaveRates(ctx, rates); err != nil {
			return err
		}
		out = rates
		return nil
	})
	return out, err
}

// CurrentPeriodFor resolves the tenant's active billing period.
func (s *Service) CurrentPeriodFor(ctx context.Context, tenantID int64) (string, error) {
	lease, err := s.tenants.Lease(ctx, tenantID)
	if err != nil {
		return "", err
	}
	period, ok := CurrentPeriod(lease, s.now())
	if !ok {
		return "", ErrNoActivePeriod
	}
	return period, nil
}

// NextDueDateFor resolves the tenant's next rent due date.
func (s *Service) NextDueDateFor(ctx context.Context, tenantID int64) (time.Time, error) {
	lease, err := s.tenants.Lease(ctx, tenantID)
	if err != nil {
		return time.Time{}, err
	}
	return NextDueDate(lease, s.now()), nil
}
