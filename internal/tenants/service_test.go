package tenants

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rentdesk/rentdesk/internal/events"
)

type memoryTenantRepo struct {
	tenants map[int64]*Tenant
	nextID  int64
}

func newMemoryTenantRepo() *memoryTenantRepo {
	return &memoryTenantRepo{tenants: make(map[int64]*Tenant)}
}

func (r *memoryTenantRepo) Get(ctx context.Context, id int64) (*Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *memoryTenantRepo) List(ctx context.Context, filter ListFilter) ([]Tenant, error) {
	var out []Tenant
	for _, t := range r.tenants {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.UnitID != 0 && t.UnitID != filter.UnitID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *memoryTenantRepo) Create(ctx context.Context, t *Tenant) error {
	r.nextID++
	t.ID = r.nextID
	copied := *t
	r.tenants[t.ID] = &copied
	return nil
}

func (r *memoryTenantRepo) Update(ctx context.Context, t *Tenant) error {
	if _, ok := r.tenants[t.ID]; !ok {
		return ErrNotFound
	}
	copied := *t
	r.tenants[t.ID] = &copied
	return nil
}

func TestCreateTenantDefaultsToPending(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryTenantRepo()
	svc := NewService(repo, events.NewBus(), slog.New(slog.DiscardHandler))

	tenant, err := svc.Create(ctx, TenantInput{Name: "Asha Verma", MonthlyRent: 15000})
	require.NoError(t, err)
	require.Equal(t, StatusPending, tenant.Status)
	require.NotZero(t, tenant.ID)
}

func TestCreateTenantValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryTenantRepo(), events.NewBus(), slog.New(slog.DiscardHandler))

	_, err := svc.Create(ctx, TenantInput{Name: "  "})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, TenantInput{Name: "X", MonthlyRent: -1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, TenantInput{
		Name:       "X",
		LeaseStart: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		LeaseEnd:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestTerminateEmitsEvent(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryTenantRepo()
	bus := events.NewBus()
	svc := NewService(repo, bus, slog.New(slog.DiscardHandler))

	var received []events.TenantTerminated
	bus.SubscribeTenantTerminated(func(ctx context.Context, evt events.TenantTerminated) error {
		received = append(received, evt)
		return nil
	})

	tenant, err := svc.Create(ctx, TenantInput{
		Name: "Asha Verma", MonthlyRent: 15000, UnitID: 7, Status: StatusActive,
	})
	require.NoError(t, err)

	terminated, err := svc.Terminate(ctx, tenant.ID)
	require.NoError(t, err)
	require.Equal(t, StatusTerminated, terminated.Status)

	require.Len(t, received, 1)
	require.Equal(t, tenant.ID, received[0].TenantID)
	require.Equal(t, int64(7), received[0].UnitID)
}

func TestTerminateSurvivesSubscriberFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryTenantRepo()
	bus := events.NewBus()
	svc := NewService(repo, bus, slog.New(slog.DiscardHandler))

	bus.SubscribeTenantTerminated(func(ctx context.Context, evt events.TenantTerminated) error {
		return errors.New("release failed")
	})

	tenant, err := svc.Create(ctx, TenantInput{
		Name: "Asha Verma", MonthlyRent: 15000, UnitID: 7, Status: StatusActive,
	})
	require.NoError(t, err)

	terminated, err := svc.Terminate(ctx, tenant.ID)
	require.NoError(t, err)
	require.Equal(t, StatusTerminated, terminated.Status)

	stored, err := repo.Get(ctx, tenant.ID)
	require.NoError(t, err)
	require.Equal(t, StatusTerminated, stored.Status)
}

func TestTerminateUnknownTenant(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryTenantRepo(), events.NewBus(), slog.New(slog.DiscardHandler))

	_, err := svc.Terminate(ctx, 99)
	require.ErrorIs(t, err, ErrNotFound)
}
