package units

import "time"

// Occupancy enumerates unit occupancy states.
type Occupancy string

const (
	OccupancyVacant      Occupancy = "vacant"
	OccupancyOccupied    Occupancy = "occupied"
	OccupancyMaintenance Occupancy = "maintenance"
)

// Unit represents one rentable unit.
type Unit struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Type        string    `json:"type,omitempty"`
	Floor       int       `json:"floor,omitempty"`
	MonthlyRent float64   `json:"monthly_rent"`
	Occupancy   Occupancy `json:"occupancy"`
	TenantID    int64     `json:"tenant_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UnitInput for creating and updating units.
type UnitInput struct {
	Code        string
	Type        string
	Floor       int
	MonthlyRent float64
	Occupancy   Occupancy
	TenantID    int64
}

// ListFilter narrows unit listings.
type ListFilter struct {
	Occupancy Occupancy
	Limit     int
}
