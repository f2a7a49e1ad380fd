package billing

import (
	"fmt"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// Domain errors. All are local, recoverable conditions surfaced to the
// caller; a failed operation leaves storage unchanged.
var (
	ErrNotFound         = fmt.Errorf("billing: %w", httpx.ErrNotFound)
	ErrInvalidState     = fmt.Errorf("billing: %w", httpx.ErrInvalidState)
	ErrValidation       = fmt.Errorf("billing: %w", httpx.ErrValidation)
	ErrDuplicatePayment = fmt.Errorf("billing: duplicate payment for period: %w", httpx.ErrDuplicate)
	ErrBillExists       = fmt.Errorf("billing: bill already exists for month: %w", httpx.ErrDuplicate)
	ErrNoActivePeriod   = fmt.Errorf("billing: tenant has no active lease period: %w", httpx.ErrValidation)
)
