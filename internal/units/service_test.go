package units

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rentdesk/rentdesk/internal/events"
)

type memoryUnitRepo struct {
	units  map[int64]*Unit
	nextID int64
}

func newMemoryUnitRepo() *memoryUnitRepo {
	return &memoryUnitRepo{units: make(map[int64]*Unit)}
}

func (r *memoryUnitRepo) Get(ctx context.Context, id int64) (*Unit, error) {
	u, ok := r.units[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memoryUnitRepo) List(ctx context.Context, filter ListFilter) ([]Unit, error) {
	var out []Unit
	for _, u := range r.units {
		if filter.Occupancy != "" && u.Occupancy != filter.Occupancy {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *memoryUnitRepo) Create(ctx context.Context, u *Unit) error {
	for _, existing := range r.units {
		if existing.Code == u.Code {
			return ErrDuplicate
		}
	}
	r.nextID++
	u.ID = r.nextID
	copied := *u
	r.units[u.ID] = &copied
	return nil
}

func (r *memoryUnitRepo) Update(ctx context.Context, u *Unit) error {
	if _, ok := r.units[u.ID]; !ok {
		return ErrNotFound
	}
	copied := *u
	r.units[u.ID] = &copied
	return nil
}

func newTestService(repo *memoryUnitRepo) *Service {
	return NewService(repo, slog.New(slog.DiscardHandler))
}

func TestCreateUnitDefaultsVacant(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryUnitRepo())

	u, err := svc.Create(ctx, UnitInput{Code: "A-101", MonthlyRent: 12000})
	require.NoError(t, err)
	require.Equal(t, OccupancyVacant, u.Occupancy)
}

func TestCreateUnitDuplicateCode(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryUnitRepo())

	_, err := svc.Create(ctx, UnitInput{Code: "A-101"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, UnitInput{Code: "A-101"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestTerminationEventReleasesUnit(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryUnitRepo()
	svc := newTestService(repo)
	bus := events.NewBus()
	svc.Subscribe(bus)

	u, err := svc.Create(ctx, UnitInput{Code: "B-202", MonthlyRent: 9000})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, u.ID, 5)
	require.NoError(t, err)

	err = bus.PublishTenantTerminated(ctx, events.TenantTerminated{
		TenantID: 5, UnitID: u.ID, At: time.Now(),
	})
	require.NoError(t, err)

	released, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, OccupancyVacant, released.Occupancy)
	require.Zero(t, released.TenantID)
}

func TestTerminationEventWithoutUnitIsIgnored(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryUnitRepo())
	bus := events.NewBus()
	svc.Subscribe(bus)

	err := bus.PublishTenantTerminated(ctx, events.TenantTerminated{TenantID: 5})
	require.NoError(t, err)
}
