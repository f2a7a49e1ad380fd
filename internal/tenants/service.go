package tenants

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rentdesk/rentdesk/internal/events"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// Domain errors.
var (
	ErrNotFound   = fmt.Errorf("tenants: %w", httpx.ErrNotFound)
	ErrValidation = fmt.Errorf("tenants: %w", httpx.ErrValidation)
)

// RepositoryPort defines data access methods for tenants.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Tenant, error)
	List(ctx context.Context, filter ListFilter) ([]Tenant, error)
	Create(ctx context.Context, t *Tenant) error
	Update(ctx context.Context, t *Tenant) error
}

// Service handles tenant business logic.
type Service struct {
	repo   RepositoryPort
	bus    *events.Bus
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, bus *events.Bus, logger *slog.Logger) *Service {
	return &Service{repo: repo, bus: bus, logger: logger, now: time.Now}
}

// Get returns one tenant.
func (s *Service) Get(ctx context.Context, id int64) (*Tenant, error) {
	if id <= 0 {
		return nil, ErrValidation
	}
	return s.repo.Get(ctx, id)
}

// List returns tenants matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Tenant, error) {
	return s.repo.List(ctx, filter)
}

// Create registers a new tenant.
func (s *Service) Create(ctx context.Context, input TenantInput) (*Tenant, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = StatusPending
	}
	now := s.now()
	t := &Tenant{
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		UnitID:      input.UnitID,
		MonthlyRent: input.MonthlyRent,
		LeaseStart:  input.LeaseStart,
		LeaseEnd:    input.LeaseEnd,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update rewrites tenant details.
func (s *Service) Update(ctx context.Context, id int64, input TenantInput) (*Tenant, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Name = input.Name
	t.Email = input.Email
	t.Phone = input.Phone
	t.UnitID = input.UnitID
	t.MonthlyRent = input.MonthlyRent
	t.LeaseStart = input.LeaseStart
	t.LeaseEnd = input.LeaseEnd
	if input.Status != "" {
		t.Status = input.Status
	}
	t.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Terminate ends a tenancy and notifies subscribers so the occupied unit is
// released in the same request, with no polling involved. A subscriber
// failure does not undo the termination: the tenant row is already updated,
// so the error is logged and the nightly occupancy audit reconciles any
// unit left occupied.
func (s *Service) Terminate(ctx context.Context, id int64) (*Tenant, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	t.Status = StatusTerminated
	t.UpdatedAt = now
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	if s.bus != nil {
		if err := s.bus.PublishTenantTerminated(ctx, events.TenantTerminated{
			TenantID: t.ID,
			UnitID:   t.UnitID,
			At:       now,
		}); err != nil {
			s.logger.Warn("tenant terminated event",
				slog.Int64("tenant_id", t.ID),
				slog.Int64("unit_id", t.UnitID),
				slog.Any("error", err))
		}
	}
	return t, nil
}

func (s *Service) validate(input TenantInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrValidation
	}
	if input.MonthlyRent < 0 {
		return ErrValidation
	}
	if !input.LeaseStart.IsZero() && !input.LeaseEnd.IsZero() && input.LeaseEnd.Before(input.LeaseStart) {
		return ErrValidation
	}
	switch input.Status {
	case "", StatusActive, StatusPending, StatusTerminated, StatusExpired, StatusInactive:
	default:
		return ErrValidation
	}
	return nil
}
