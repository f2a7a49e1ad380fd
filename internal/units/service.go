package units

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
	ErrNotFound   = fmt.Errorf("units: %w", httpx.ErrNotFound)
	ErrDuplicate  = fmt.Errorf("units: code already exists: %w", httpx.ErrDuplicate)
	ErrValidation = fmt.Errorf("units: %w", httpx.ErrValidation)
)

// RepositoryPort defines data access methods for units.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Unit, error)
	List(ctx context.Context, filter ListFilter) ([]Unit, error)
	Create(ctx context.Context, u *Unit) error
	Update(ctx context.Context, u *Unit) error
}

// Service handles unit inventory logic.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Subscribe registers the occupancy consumer: when a tenancy ends the unit
// is released immediately as part of the same request.
func (s *Service) Subscribe(bus *events.Bus) {
	bus.SubscribeTenantTerminated(func(ctx context.Context, evt events.TenantTerminated) error {
		if evt.UnitID == 0 {
			return nil
		}
		if err := s.Release(ctx, evt.UnitID); err != nil {
			s.logger.Error("release unit on termination",
				slog.Int64("unit_id", evt.UnitID),
				slog.Int64("tenant_id", evt.TenantID),
				slog.Any("error", err))
			return err
		}
		return nil
	})
}

// Get returns one unit.
func (s *Service) Get(ctx context.Context, id int64) (*Unit, error) {
	if id <= 0 {
		return nil, ErrValidation
	}
	return s.repo.Get(ctx, id)
}

// List returns units matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Unit, error) {
	return s.repo.List(ctx, filter)
}

// Create registers a new unit, vacant unless stated otherwise.
func (s *Service) Create(ctx context.Context, input UnitInput) (*Unit, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	occupancy := input.Occupancy
	if occupancy == "" {
		occupancy = OccupancyVacant
	}
	now := s.now()
	u := &Unit{
		Code:        input.Code,
		Type:        input.Type,
		Floor:       input.Floor,
		MonthlyRent: input.MonthlyRent,
		Occupancy:   occupancy,
		TenantID:    input.TenantID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update rewrites unit details.
func (s *Service) Update(ctx context.Context, id int64, input UnitInput) (*Unit, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Code = input.Code
	u.Type = input.Type
	u.Floor = input.Floor
	u.MonthlyRent = input.MonthlyRent
	if input.Occupancy != "" {
		u.Occupancy = input.Occupancy
	}
	u.TenantID = input.TenantID
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Assign marks a unit occupied by the tenant.
func (s *Service) Assign(ctx context.Context, id, tenantID int64) (*Unit, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Occupancy = OccupancyOccupied
	u.TenantID = tenantID
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Release marks a unit vacant and clears its tenant link.
func (s *Service) Release(ctx context.Context, id int64) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	u.Occupancy = OccupancyVacant
	u.TenantID = 0
	u.UpdatedAt = s.now()
	return s.repo.Update(ctx, u)
}

func (s *Service) validate(input UnitInput) error {
	if strings.TrimSpace(input.Code) == "" {
		return ErrValidation
	}
	if input.MonthlyRent < 0 {
		return ErrValidation
	}
	switch input.Occupancy {
	case "", OccupancyVacant, OccupancyOccupied, OccupancyMaintenance:
	default:
		return ErrValidation
	}
	return nil
}
