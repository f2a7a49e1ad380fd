package auth

import (
	"fmt"
	"time"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

var (
	ErrNotFound           = fmt.Errorf("auth: %w", httpx.ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("auth: invalid credentials: %w", httpx.ErrUnauthorized)
	ErrDuplicate          = fmt.Errorf("auth: %w", httpx.ErrDuplicate)
	ErrValidation         = fmt.Errorf("auth: %w", httpx.ErrValidation)
)

// User is an account that can open a session. Tenant accounts carry the
// tenant they act for; admin accounts have TenantID zero.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	TenantID     int64     `json:"tenant_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserInput carries fields for account creation.
type UserInput struct {
	Username string
	Password string
	Role     string
	TenantID int64
}
