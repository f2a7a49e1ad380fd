package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

type memoryRepo struct {
	rates         RateTable
	bills         map[int64]*Bill
	rents         map[string]*RentStatus
	payments      map[int64]*Payment
	nextBillID    int64
	nextRentID    int64
	nextPaymentID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		bills:    make(map[int64]*Bill),
		rents:    make(map[string]*RentStatus),
		payments: make(map[int64]*Payment),
	}
}

func rentKey(tenantID int64, month string) string {
	return fmt.Sprintf("%d|%s", tenantID, month)
}

func (r *memoryRepo) GetRates(ctx context.Context) (RateTable, error) { return r.rates, nil }

func (r *memoryRepo) SaveRates(ctx context.Context, rates RateTable) error {
	r.rates = rates
	return nil
}

func (r *memoryRepo) GetBill(ctx context.Context, id int64) (*Bill, error) {
	b, ok := r.bills[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (r *memoryRepo) GetBillForMonth(ctx context.Context, tenantID int64, month string) (*Bill, error) {
	for _, b := range r.bills {
		if b.TenantID == tenantID && b.Month == month {
			return b, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) CreateBill(ctx context.Context, b *Bill) error {
	for _, existing := range r.bills {
		if existing.TenantID == b.TenantID && existing.Month == b.Month {
			return ErrBillExists
		}
	}
	r.nextBillID++
	b.ID = r.nextBillID
	r.bills[b.ID] = b
	return nil
}

func (r *memoryRepo) UpdateBill(ctx context.Context, b *Bill) error {
	if _, ok := r.bills[b.ID]; !ok {
		return ErrNotFound
	}
	r.bills[b.ID] = b
	return nil
}

func (r *memoryRepo) GetRentStatus(ctx context.Context, tenantID int64, month string) (*RentStatus, error) {
	return r.rents[rentKey(tenantID, month)], nil
}

func (r *memoryRepo) CreateRentStatus(ctx context.Context, rs *RentStatus) error {
	r.nextRentID++
	rs.ID = r.nextRentID
	r.rents[rentKey(rs.TenantID, rs.Month)] = rs
	return nil
}

func (r *memoryRepo) UpdateRentStatus(ctx context.Context, rs *RentStatus) error {
	r.rents[rentKey(rs.TenantID, rs.Month)] = rs
	return nil
}

func (r *memoryRepo) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) CreatePayment(ctx context.Context, p *Payment) error {
	r.nextPaymentID++
	p.ID = r.nextPaymentID
	r.payments[p.ID] = p
	return nil
}

func (r *memoryRepo) UpdatePayment(ctx context.Context, p *Payment) error {
	if _, ok := r.payments[p.ID]; !ok {
		return ErrNotFound
	}
	r.payments[p.ID] = p
	return nil
}

func (r *memoryRepo) ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error) {
	var out []Payment
	for _, p := range r.payments {
		if filter.TenantID != 0 && p.TenantID != filter.TenantID {
			continue
		}
		if filter.Month != "" && p.Month != filter.Month {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryRepo) Transact(ctx context.Context, fn func(RepositoryPort) error) error {
	return fn(r)
}

type staticDirectory map[int64]Lease

func (d staticDirectory) Lease(ctx context.Context, tenantID int64) (Lease, error) {
	lease, ok := d[tenantID]
	if !ok {
		return Lease{}, ErrNotFound
	}
	return lease, nil
}

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

func newTestService(repo *memoryRepo, today time.Time) *Service {
	dir := staticDirectory{
		1: {
			TenantID:    1,
			MonthlyRent: 15000,
			Start:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			End:         time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC),
		},
	}
	return NewService(repo, dir, fixedClock(today))
}

var march20 = time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

func TestUpdateRatesMergesPartial(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, march20)

	elec := 11.50
	rates, err := svc.UpdateRates(ctx, RateUpdate{Electricity: &elec})
	require.NoError(t, err)
	require.Equal(t, 11.50, rates.Electricity)
	require.Equal(t, 0.0, rates.Water)

	water := 25.00
	rates, err = svc.UpdateRates(ctx, RateUpdate{Water: &water})
	require.NoError(t, err)
	require.Equal(t, 11.50, rates.Electricity)
	require.Equal(t, 25.00, rates.Water)
}

func TestGenerateBillComputesAmounts(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.rates = RateTable{Electricity: 11.50, Water: 25.00}
	svc := newTestService(repo, march20)

	bill, err := svc.GenerateBill(ctx, 1, "2024-03", 120, 10)
	require.NoError(t, err)
	require.Equal(t, 1380.00, bill.ElectricityAmount)
	require.Equal(t, 250.00, bill.WaterAmount)
	require.Equal(t, 1630.00, bill.TotalAmount)
	require.Equal(t, StatusUnpaid, bill.Status)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), bill.DueAt)
	require.Equal(t, 11.50, bill.ElectricityRate)
}

func TestGenerateBillSnapshotsRates(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.rates = RateTable{Electricity: 10, Water: 20}
	svc := newTestService(repo, march20)

	bill, err := svc.GenerateBill(ctx, 1, "2024-02", 100, 5)
	require.NoError(t, err)
	require.Equal(t, 1100.00, bill.TotalAmount)

	elec := 99.0
	_, err = svc.UpdateRates(ctx, RateUpdate{Electricity: &elec})
	require.NoError(t, err)

	stored, err := svc.Bill(ctx, bill.ID)
	require.NoError(t, err)
	require.Equal(t, 10.0, stored.ElectricityRate)
	require.Equal(t, 1100.00, stored.TotalAmount)
}

func TestRegenerateBillPreservesPaymentHistory(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.rates = RateTable{Electricity: 11.50, Water: 25.00}
	svc := newTestService(repo, march20)

	bill, err := svc.GenerateBill(ctx, 1, "2024-03", 120, 10)
	require.NoError(t, err)

	payment, err := svc.CreateBillPayment(ctx, CreateBillPaymentInput{
		TenantID: 1, BillID: bill.ID, Amount: 500, Method: "cash", Verified: true,
	})
	require.NoError(t, err)

	regenerated, err := svc.GenerateBill(ctx, 1, "2024-03", 200, 10)
	require.NoError(t, err)
	require.Equal(t, bill.ID, regenerated.ID)
	require.Equal(t, 2550.00, regenerated.TotalAmount)
	require.Equal(t, 500.00, regenerated.PaidAmount)
	require.Equal(t, []int64{payment.ID}, regenerated.PaymentIDs)
}

func TestRentPaymentPartialThenPaid(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, march20)

	period, err := svc.CurrentPeriodFor(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "2024-03", period)

	first, err := svc.CreateRentPayment(ctx, CreateRentPaymentInput{
		TenantID: 1, Amount: 10000, Method: "transfer", Verified: true,
	})
	require.NoError(t, err)
	require.Equal(t, PaymentVerified, first.Status)
	require.Equal(t, "2024-03", first.Month)

	rs, err := svc.RentStatusFor(ctx, 1, "2024-03")
	require.NoError(t, err)
	require.Equal(t, 10000.00, rs.PaidAmount)
	require.Equal(t, 5000.00, rs.RemainingAmount)
	require.Equal(t, StatusPartial, rs.Status)

	second, err := svc.CreateRentPayment(ctx, CreateRentPaymentInput{
		TenantID: 1, Amount: 5000, Method: "transfer",
	})
	require.NoError(t, err)
	_, err = svc.SetPaymentStatus(ctx, second.ID, PaymentVerified, "")
	require.NoError(t, err)

	rs, err = svc.RentStatusFor(ctx, 1, "2024-03")
	require.NoError(t, err)
	require.Equal(t, 15000.00, rs.PaidAmount)
	require.Equal(t, 0.00, rs.RemainingAmount)
	require.Equal(t, StatusPaid, rs.Status)
	require.Equal(t, []int64{first.ID, second.ID}, rs.PaymentIDs)

	_, err = svc.CreateRentPayment(ctx, CreateRentPaymentInput{
		TenantID: 1, Amount: 100, Method: "cash",
	})
	require.ErrorIs(t, err, ErrDuplicatePayment)
}

func TestDuplicateCheckPerType(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.rates = RateTable{Electricity: 11.50, Water: 25.00}
	svc := newTestService(repo, march20)

	_, err := svc.CreateRentPayment(ctx, CreateRentPaymentInput{
		TenantID: 1, Amount: 15000, Method: "transfer", Verified: true,
	})
	require.NoError(t, err)

	// A second rent payment in the same period is refused, but a utility
	// bill payment is still allowed.
	_, err = svc.CreateRentPayment(ctx, CreateRentPaymentInput{
		TenantID: 1, Amount: 1, Method: "cash",
	})
	require.ErrorIs(t, err, ErrDuplicatePayment)

	bill, err := svc.GenerateBill(ctx, 1, "2024-03", 10, 1)
	require.NoError(t, err)
	_, err = svc.CreateBillPayment(ctx, CreateBillPaymentInput{
		TenantID: 1, BillID: bill.ID, Amount: 50, Method: "cash",
	})
	require.NoError(t, err)
}

func TestPendingDuplicatesDoNotAccumulate(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, march20)

	first, err := svc.CreateRentPayment(ctx, CreateRentPaymentInput{
		TenantID: 1, Amount: 15000, Method: "transfer",
	})
	require.NoError(t, err)

	// Pending payments do not block creation; only a verified or completed
	// one does.
	_, err = svc.CreateRentPayment(ctx, CreateRentPaymentInput{
		TenantID: 1, Amount: 15000, Method: "cash",
	})
	require.NoError(t, err)

	_, err = svc.SetPaymentStatus(ctx, first.ID, PaymentVerified, "")
	require.NoError(t, err)

	_, err = svc.CreateRentPayment(ctx, CreateRentPaymentInput{
		TenantID: 1, Amount: 15000, Method: "cash",
	})
	require.ErrorIs(t, err, ErrDuplicatePayment)
}

func TestRejectVerifiedPaymentReversesExactly(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, march20)

	payment, err := svc.CreateRentPayment(ctx, CreateRentPaymentInput{
		TenantID: 1, Amount: 10000, Method: "transfer", Verified: true,
	})
	require.NoError(t, err)

	rs, err := svc.RentStatusFor(ctx, 1, "2024-03")
	require.NoError(t, err)
	require.Equal(t, 10000.00, rs.PaidAmount)

	_, err = svc.SetPaymentStatus(ctx, payment.ID, PaymentRejected, "bounced")
	require.NoError(t, err)

	rs, err = svc.RentStatusFor(ctx, 1, "2024-03")
	require.NoError(t, err)
	require.Equal(t, 0.00, rs.PaidAmount)
	require.Equal(t, 15000.00, rs.RemainingAmount)
	require.Equal(t, StatusUnpaid, rs.Status)
	// The reversal is a separate history entry, not a removal.
	require.Equal(t, []int64{payment.ID, payment.ID}, rs.PaymentIDs)
}

func TestRejectedPaymentCannotBeRevived(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, march20)

	payment, err := svc.CreateRentPayment(ctx, CreateRentPaymentInput{
		TenantID: 1, Amount: 10000, Method: "transfer",
	})
	require.NoError(t, err)
	_, err = svc.SetPaymentStatus(ctx, payment.ID, PaymentRejected, "")
	require.NoError(t, err)

	_, err = svc.SetPaymentStatus(ctx, payment.ID, PaymentVerified, "")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestBillOverpaymentIsCapped(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.rates = RateTable{Electricity: 10, Water: 0}
	svc := newTestService(repo, march20)

	bill, err := svc.GenerateBill(ctx, 1, "2024-03", 10, 0) // total 100
	require.NoError(t, err)

	payment, err := svc.CreateBillPayment(ctx, CreateBillPaymentInput{
		TenantID: 1, BillID: bill.ID, Amount: 250, Method: "cash", Verified: true,
	})
	require.NoError(t, err)
	// Only the capped portion is credited to the ledger.
	require.Equal(t, 100.00, payment.AppliedAmount)

	stored, err := svc.Bill(ctx, bill.ID)
	require.NoError(t, err)
	require.Equal(t, 100.00, stored.PaidAmount)
	require.Equal(t, StatusPaid, stored.Status)
}

func TestRejectCappedOverpaymentRestoresBill(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.rates = RateTable{Electricity: 10, Water: 0}
	svc := newTestService(repo, march20)

	bill, err := svc.GenerateBill(ctx, 1, "2024-03", 10, 0) // total 100
	require.NoError(t, err)

	payment, err := svc.CreateBillPayment(ctx, CreateBillPaymentInput{
		TenantID: 1, BillID: bill.ID, Amount: 250, Method: "cash", Verified: true,
	})
	require.NoError(t, err)

	rejected, err := svc.SetPaymentStatus(ctx, payment.ID, PaymentRejected, "bounced")
	require.NoError(t, err)
	require.Equal(t, 0.00, rejected.AppliedAmount)

	// The reversal subtracts the credited 100, not the nominal 250.
	stored, err := svc.Bill(ctx, bill.ID)
	require.NoError(t, err)
	require.Equal(t, 0.00, stored.PaidAmount)
	require.Equal(t, StatusUnpaid, stored.Status)
}

func TestBillConflictIsNotADuplicatePayment(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()

	require.NoError(t, repo.CreateBill(ctx, &Bill{TenantID: 1, Month: "2024-03"}))
	err := repo.CreateBill(ctx, &Bill{TenantID: 1, Month: "2024-03"})
	require.ErrorIs(t, err, ErrBillExists)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	require.NotErrorIs(t, err, ErrDuplicatePayment)
}

func TestVerifiedToCompletedDoesNotReapply(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, march20)

	payment, err := svc.CreateRentPayment(ctx, CreateRentPaymentInput{
		TenantID: 1, Amount: 5000, Method: "transfer", Verified: true,
	})
	require.NoError(t, err)

	_, err = svc.SetPaymentStatus(ctx, payment.ID, PaymentCompleted, "")
	require.NoError(t, err)

	rs, err := svc.RentStatusFor(ctx, 1, "2024-03")
	require.NoError(t, err)
	require.Equal(t, 5000.00, rs.PaidAmount)
}

func TestCompletedPaymentReversesOnReject(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, march20)

	payment, err := svc.CreateRentPayment(ctx, CreateRentPaymentInput{
		TenantID: 1, Amount: 5000, Method: "transfer",
	})
	require.NoError(t, err)
	_, err = svc.SetPaymentStatus(ctx, payment.ID, PaymentCompleted, "")
	require.NoError(t, err)
	_, err = svc.SetPaymentStatus(ctx, payment.ID, PaymentRejected, "chargeback")
	require.NoError(t, err)

	rs, err := svc.RentStatusFor(ctx, 1, "2024-03")
	require.NoError(t, err)
	require.Equal(t, 0.00, rs.PaidAmount)
}

func TestCreateBillPaymentUnknownBill(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, march20)

	_, err := svc.CreateBillPayment(ctx, CreateBillPaymentInput{
		TenantID: 1, BillID: 42, Amount: 100, Method: "cash",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRentPaymentValidation(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, march20)

	_, err := svc.CreateRentPayment(ctx, CreateRentPaymentInput{TenantID: 1, Amount: 0})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateRentPayment(ctx, CreateRentPaymentInput{TenantID: 99, Amount: 100})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRentStatusCreatedLazilyOnce(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, march20)

	first, err := svc.RentStatusFor(ctx, 1, "2024-03")
	require.NoError(t, err)
	require.Equal(t, 15000.00, first.RequiredAmount)
	require.Equal(t, StatusUnpaid, first.Status)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.DueAt)

	second, err := svc.RentStatusFor(ctx, 1, "2024-03")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.rents, 1)
}
