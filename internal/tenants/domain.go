package tenants

import "time"

// Status enumerates tenant lifecycle states.
type Status string

const (
	StatusActive     Status = "active"
	StatusPending    Status = "pending"
	StatusTerminated Status = "terminated"
	StatusExpired    Status = "expired"
	StatusInactive   Status = "inactive"
)

// Tenant model.
type Tenant struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	UnitID      int64     `json:"unit_id,omitempty"`
	MonthlyRent float64   `json:"monthly_rent"`
	LeaseStart  time.Time `json:"lease_start,omitzero"`
	LeaseEnd    time.Time `json:"lease_end,omitzero"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TenantInput for creating and updating tenants.
type TenantInput struct {
	Name        string
	Email       string
	Phone       string
	UnitID      int64
	MonthlyRent float64
	LeaseStart  time.Time
	LeaseEnd    time.Time
	Status      Status
}

// ListFilter narrows tenant listings.
type ListFilter struct {
	Status Status
	UnitID int64
	Limit  int
}
