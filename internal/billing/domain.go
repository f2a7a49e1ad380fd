package billing

import "time"

// LedgerStatus enumerates rent and bill settlement states.
type LedgerStatus string

const (
	StatusUnpaid  LedgerStatus = "unpaid"
	StatusPartial LedgerStatus = "partial"
	StatusPaid    LedgerStatus = "paid"
)

// PaymentStatus enumerates payment lifecycle states.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentVerified  PaymentStatus = "verified"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRejected  PaymentStatus = "rejected"
)

// PaymentType distinguishes rent payments from utility bill payments.
type PaymentType string

const (
	PaymentTypeRent PaymentType = "rent"
	PaymentTypeBill PaymentType = "bill"
)

// RateTable holds the per-unit utility rates. Singleton; bills snapshot the
// rates in effect at generation time, so later updates never alter existing
// bills.
type RateTable struct {
	Electricity float64   `json:"electricity"`
	Water       float64   `json:"water"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RateUpdate is a partial rate table update; nil fields keep prior values.
type RateUpdate struct {
	Electricity *float64 `json:"electricity"`
	Water       *float64 `json:"water"`
}

// Bill is a monthly utility bill for one tenant. At most one bill exists per
// (tenant, month); regeneration updates the record in place and preserves
// its id and payment history.
type Bill struct {
	ID                int64        `json:"id"`
	TenantID          int64        `json:"tenant_id"`
	Month             string       `json:"month"` // YYYY-MM
	ElectricityUnits  float64      `json:"electricity_units"`
	WaterUnits        float64      `json:"water_units"`
	ElectricityRate   float64      `json:"electricity_rate"`
	WaterRate         float64      `json:"water_rate"`
	ElectricityAmount float64      `json:"electricity_amount"`
	WaterAmount       float64      `json:"water_amount"`
	TotalAmount       float64      `json:"total_amount"`
	PaidAmount        float64      `json:"paid_amount"`
	Status            LedgerStatus `json:"status"`
	PaymentIDs        []int64      `json:"payment_ids"`
	DueAt             time.Time    `json:"due_at"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// RentStatus tracks rent owed and paid for one tenant and month. Created
// lazily on first access; RequiredAmount snapshots the tenant's monthly rent
// at first reference.
type RentStatus struct {
	ID              int64        `json:"id"`
	TenantID        int64        `json:"tenant_id"`
	Month           string       `json:"month"`
	RequiredAmount  float64      `json:"required_amount"`
	PaidAmount      float64      `json:"paid_amount"`
	RemainingAmount float64      `json:"remaining_amount"`
	Status          LedgerStatus `json:"status"`
	PaymentIDs      []int64      `json:"payment_ids"`
	DueAt           time.Time    `json:"due_at"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Payment is the source of truth for money movement. RentStatus and Bill are
// derived aggregates updated incrementally as payments change status.
type Payment struct {
	ID        int64       `json:"id"`
	Reference string      `json:"reference"`
	Type      PaymentType `json:"type"`
	TenantID  int64       `json:"tenant_id"`
	BillID    int64       `json:"bill_id,omitempty"`
	Amount    float64     `json:"amount"`
	// AppliedAmount is the portion of Amount currently reflected in the
	// ledger. It can be less than Amount when a bill payment is capped at
	// the bill total, and it is what a rejection reverses. Zero while
	// pending and after a reversal.
	AppliedAmount float64       `json:"applied_amount,omitempty"`
	Month         string        `json:"month"`
	Method        string        `json:"method"`
	Status        PaymentStatus `json:"status"`
	Notes         string        `json:"notes,omitempty"`
	AdminNotes    string        `json:"admin_notes,omitempty"`
	SubmittedAt   time.Time     `json:"submitted_at"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
}

// Lease is the slice of tenant data billing reads: rent amount and lease
// window. Owned by the tenants module.
type Lease struct {
	TenantID    int64
	MonthlyRent float64
	Start       time.Time
	End         time.Time
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	TenantID int64
	Month    string
	Type     PaymentType
	Status   PaymentStatus
	Limit    int
}
