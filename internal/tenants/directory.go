package tenants

import (
	"context"

	"github.com/rentdesk/rentdesk/internal/billing"
)

// Directory adapts the tenant service to billing's read-only lease view.
type Directory struct {
	service *Service
}

// NewDirectory builds the billing-facing adapter.
func NewDirectory(service *Service) *Directory {
	return &Directory{service: service}
}

// Lease implements billing.TenantDirectory.
func (d *Directory) Lease(ctx context.Context, tenantID int64) (billing.Lease, error) {
	t, err := d.service.Get(ctx, tenantID)
	if err != nil {
		return billing.Lease{}, err
	}
	return billing.Lease{
		TenantID:    t.ID,
		MonthlyRent: t.MonthlyRent,
		Start:       t.LeaseStart,
		End:         t.LeaseEnd,
	}, nil
}
