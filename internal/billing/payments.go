package billing

import (
	"context"

	"github.com/google/uuid"
)

// CreateRentPaymentInput describes a rent payment intent.
type CreateRentPaymentInput struct {
	TenantID int64
	Month    string // optional, defaults to the tenant's current period
	Amount   float64
	Method   string
	Notes    string
	Verified bool // administrative fast path: apply to the ledger immediately
}

// CreateBillPaymentInput describes a utility bill payment intent.
type CreateBillPaymentInput struct {
	TenantID int64
	BillID   int64
	Amount   float64
	Method   string
	Notes    string
	Verified bool
}

// CreateRentPayment validates the intent, enforces the one-payment-per-type
// duplicate rule for the tenant's current period, and records a pending
// payment. With Verified set the amount is applied to the rent ledger in the
// same transaction.
func (s *Service) CreateRentPayment(ctx context.Context, in CreateRentPaymentInput) (*Payment, error) {
	if in.TenantID <= 0 || in.Amount <= 0 {
		return nil, ErrValidation
	}
	lease, err := s.tenants.Lease(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	month := in.Month
	if month == "" {
		var ok bool
		month, ok = CurrentPeriod(lease, s.now())
		if !ok {
			return nil, ErrNoActivePeriod
		}
	} else if _, err := PeriodStart(month); err != nil {
		return nil, err
	}

	var out *Payment
	err = s.repo.Transact(ctx, func(r RepositoryPort) error {
		if err := s.duplicateCheck(ctx, r, lease, PaymentTypeRent); err != nil {
			return err
		}
		p := &Payment{
			Reference:   uuid.NewString(),
			Type:        PaymentTypeRent,
			TenantID:    in.TenantID,
			Amount:      Round2(in.Amount),
			Month:       month,
			Method:      in.Method,
			Status:      PaymentPending,
			Notes:       in.Notes,
			SubmittedAt: s.now(),
		}
		if err := r.CreatePayment(ctx, p); err != nil {
			return err
		}
		if in.Verified {
			if err := s.markApplied(ctx, r, p, PaymentVerified); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBillPayment records a payment against an existing bill. The bill
// must exist and belong to the paying tenant.
func (s *Service) CreateBillPayment(ctx context.Context, in CreateBillPaymentInput) (*Payment, error) {
	if in.TenantID <= 0 || in.BillID <= 0 || in.Amount <= 0 {
		return nil, ErrValidation
	}
	lease, err := s.tenants.Lease(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	bill, err := s.repo.GetBill(ctx, in.BillID)
	if err != nil {
		return nil, err
	}
	if bill.TenantID != in.TenantID {
		return nil, ErrNotFound
	}

	var out *Payment
	err = s.repo.Transact(ctx, func(r RepositoryPort) error {
		if err := s.duplicateCheck(ctx, r, lease, PaymentTypeBill); err != nil {
			return err
		}
		p := &Payment{
			Reference:   uuid.NewString(),
			Type:        PaymentTypeBill,
			TenantID:    in.TenantID,
			BillID:      in.BillID,
			Amount:      Round2(in.Amount),
			Month:       bill.Month,
			Method:      in.Method,
			Status:      PaymentPending,
			Notes:       in.Notes,
			SubmittedAt: s.now(),
		}
		if err := r.CreatePayment(ctx, p); err != nil {
			return err
		}
		if in.Verified {
			if err := s.markApplied(ctx, r, p, PaymentVerified); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetPaymentStatus drives the payment state machine. pending→verified and
// pending→completed apply the amount to the target ledger entry and stamp
// the paid date; verified/completed→rejected reverses the applied amount.
// A rejected payment is terminal: reviving it would risk applying funds
// twice, so a replacement payment must be created instead.
func (s *Service) SetPaymentStatus(ctx context.Context, paymentID int64, status PaymentStatus, adminNotes string) (*Payment, error) {
	switch status {
	case PaymentPending, PaymentVerified, PaymentCompleted, PaymentRejected:
	default:
		return nil, ErrValidation
	}

	var out *Payment
	err := s.repo.Transact(ctx, func(r RepositoryPort) error {
		p, err := r.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status == status {
			return ErrInvalidState
		}

		switch {
		case p.Status == PaymentPending && (status == PaymentVerified || status == PaymentCompleted):
			if err := s.markApplied(ctx, r, p, status); err != nil {
				return err
			}
		case p.Status == PaymentPending && status == PaymentRejected:
			p.Status = PaymentRejected
		case (p.Status == PaymentVerified || p.Status == PaymentCompleted) && status == PaymentRejected:
			if _, err := s.applyPayment(ctx, r, p, -p.AppliedAmount); err != nil {
				return err
			}
			p.AppliedAmount = 0
			p.Status = PaymentRejected
		case p.Status == PaymentVerified && status == PaymentCompleted:
			// Already applied when verified; status change only.
			p.Status = PaymentCompleted
		default:
			return ErrInvalidState
		}

		if adminNotes != "" {
			p.AdminNotes = adminNotes
		}
		if err := r.UpdatePayment(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Payment fetches one payment by id.
func (s *Service) Payment(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// ListPayments returns payments matching the filter.
func (s *Service) ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error) {
	return s.repo.ListPayments(ctx, filter)
}

// markApplied applies the payment amount to its ledger target and moves the
// payment into an applied status with the paid date stamped. The applied
// delta is recorded on the payment; a capped bill overpayment credits less
// than the nominal amount.
func (s *Service) markApplied(ctx context.Context, r RepositoryPort, p *Payment, status PaymentStatus) error {
	applied, err := s.applyPayment(ctx, r, p, p.Amount)
	if err != nil {
		return err
	}
	now := s.now()
	p.AppliedAmount = applied
	p.Status = status
	p.PaidAt = &now
	return r.UpdatePayment(ctx, p)
}

func (s *Service) applyPayment(ctx context.Context, r RepositoryPort, p *Payment, delta float64) (float64, error) {
	if p.Type == PaymentTypeBill {
		if p.BillID == 0 {
			return 0, ErrInvalidState
		}
		return s.applyBillPayment(ctx, r, p.BillID, delta, p.ID)
	}
	return s.applyRentPayment(ctx, r, p.TenantID, p.Month, delta, p.ID)
}
