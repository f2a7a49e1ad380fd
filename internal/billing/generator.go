package billing

import "context"

// billDueDay is the day of the billing month a utility bill falls due.
const billDueDay = 15

// GenerateBill computes a monthly utility bill from consumption inputs and
// the rate table in effect. If a bill already exists for (tenant, month) it
// is updated in place: consumption, rate snapshot and totals change while
// id, paid amount, status and payment history are preserved.
func (s *Service) GenerateBill(ctx context.Context, tenantID int64, month string, electricityUnits, waterUnits float64) (*Bill, error) {
	if tenantID <= 0 {
		return nil, ErrValidation
	}
	if electricityUnits < 0 || waterUnits < 0 {
		return nil, ErrValidation
	}
	monthStart, err := PeriodStart(month)
	if err != nil {
		return nil, err
	}
	if _, err := s.tenants.Lease(ctx, tenantID); err != nil {
		return nil, err
	}

	var out *Bill
	err = s.repo.Transact(ctx, func(r RepositoryPort) error {
		rates, err := r.GetRates(ctx)
		if err != nil {
			return err
		}
		electricityAmount := Round2(electricityUnits * rates.Electricity)
		waterAmount := Round2(waterUnits * rates.Water)
		total := Round2(electricityAmount + waterAmount)

		now := s.now()
		bill, err := r.GetBillForMonth(ctx, tenantID, month)
		if err != nil {
			return err
		}
		if bill != nil {
			bill.ElectricityUnits = electricityUnits
			bill.WaterUnits = waterUnits
			bill.ElectricityRate = rates.Electricity
			bill.WaterRate = rates.Water
			bill.ElectricityAmount = electricityAmount
			bill.WaterAmount = waterAmount
			bill.TotalAmount = total
			bill.UpdatedAt = now
			if err := r.UpdateBill(ctx, bill); err != nil {
				return err
			}
			out = bill
			return nil
		}

		bill = &Bill{
			TenantID:          tenantID,
			Month:             month,
			ElectricityUnits:  electricityUnits,
			WaterUnits:        waterUnits,
			ElectricityRate:   rates.Electricity,
			WaterRate:         rates.Water,
			ElectricityAmount: electricityAmount,
			WaterAmount:       waterAmount,
			TotalAmount:       total,
			Status:            StatusUnpaid,
			DueAt:             monthStart.AddDate(0, 0, billDueDay-1),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := r.CreateBill(ctx, bill); err != nil {
			return err
		}
		out = bill
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
