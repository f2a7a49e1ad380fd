package billing

import (
	"context"
	"math"
)

// RentStatusFor returns the tenant's rent ledger entry for the month,
// creating it on first access. The required amount snapshots the tenant's
// monthly rent at creation and the due date is the first of the month.
func (s *Service) RentStatusFor(ctx context.Context, tenantID int64, month string) (*RentStatus, error) {
	var out *RentStatus
	err := s.repo.Transact(ctx, func(r RepositoryPort) error {
		rs, err := s.rentStatusFor(ctx, r, tenantID, month)
		if err != nil {
			return err
		}
		out = rs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BillForMonth returns the tenant's utility bill for the month, or nil when
// none has been generated.
func (s *Service) BillForMonth(ctx context.Context, tenantID int64, month string) (*Bill, error) {
	return s.repo.GetBillForMonth(ctx, tenantID, month)
}

// Bill fetches one bill by id.
func (s *Service) Bill(ctx context.Context, id int64) (*Bill, error) {
	return s.repo.GetBill(ctx, id)
}

func (s *Service) rentStatusFor(ctx context.Context, r RepositoryPort, tenantID int64, month string) (*RentStatus, error) {
	rs, err := r.GetRentStatus(ctx, tenantID, month)
	if err != nil {
		return nil, err
	}
	if rs != nil {
		return rs, nil
	}

	lease, err := s.tenants.Lease(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	monthStart, err := PeriodStart(month)
	if err != nil {
		return nil, err
	}

	now := s.now()
	required := Round2(lease.MonthlyRent)
	rs = &RentStatus{
		TenantID:        tenantID,
		Month:           month,
		RequiredAmount:  required,
		RemainingAmount: required,
		Status:          StatusUnpaid,
		DueAt:           monthStart,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := r.CreateRentStatus(ctx, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// applyRentPayment adds delta to the rent ledger entry, positive for a
// verified payment and negative for a reversal. The payment id is appended
// either way; a reversal is a separate history entry, never a removal.
// Returns the delta actually applied, which for rent is always the full
// delta.
func (s *Service) applyRentPayment(ctx context.Context, r RepositoryPort, tenantID int64, month string, delta float64, paymentID int64) (float64, error) {
	rs, err := s.rentStatusFor(ctx, r, tenantID, month)
	if err != nil {
		return 0, err
	}
	rs.PaidAmount = Round2(rs.PaidAmount + delta)
	rs.RemainingAmount = Round2(math.Max(0, rs.RequiredAmount-rs.PaidAmount))
	rs.Status = statusFor(rs.PaidAmount, rs.RequiredAmount)
	rs.PaymentIDs = append(rs.PaymentIDs, paymentID)
	rs.UpdatedAt = s.now()
	return delta, r.UpdateRentStatus(ctx, rs)
}

// applyBillPayment is the bill-side counterpart. Paid amount is capped at
// the bill total on the increasing side: overpayment cannot make a bill
// more than paid. Returns the delta actually applied after the cap, so a
// reversal can subtract exactly what was credited.
func (s *Service) applyBillPayment(ctx context.Context, r RepositoryPort, billID int64, delta float64, paymentID int64) (float64, error) {
	bill, err := r.GetBill(ctx, billID)
	if err != nil {
		return 0, err
	}
	before := bill.PaidAmount
	bill.PaidAmount = Round2(bill.PaidAmount + delta)
	if delta > 0 && bill.PaidAmount > bill.TotalAmount {
		bill.PaidAmount = bill.TotalAmount
	}
	bill.Status = statusFor(bill.PaidAmount, bill.TotalAmount)
	bill.PaymentIDs = append(bill.PaymentIDs, paymentID)
	bill.UpdatedAt = s.now()
	return Round2(bill.PaidAmount - before), r.UpdateBill(ctx, bill)
}

// duplicateCheck decides whether a new payment of the given type may be
// created for the tenant's current rent period. Each type may have at most
// one verified or completed payment per period; enforcement happens at
// creation time so pending duplicates never accumulate.
func (s *Service) duplicateCheck(ctx context.Context, r RepositoryPort, lease Lease, ptype PaymentType) error {
	period, ok := CurrentPeriod(lease, s.now())
	if !ok {
		return nil
	}
	existing, err := r.ListPayments(ctx, PaymentFilter{
		TenantID: lease.TenantID,
		Month:    period,
		Type:     ptype,
	})
	if err != nil {
		return err
	}
	for _, p := range existing {
		if p.Status == PaymentVerified || p.Status == PaymentCompleted {
			return ErrDuplicatePayment
		}
	}
	return nil
}

func statusFor(paid, total float64) LedgerStatus {
	switch {
	case paid >= total:
		return StatusPaid
	case paid > 0:
		return StatusPartial
	default:
		return StatusUnpaid
	}
}
