package announcements

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryAnnouncementRepo struct {
	byID   map[int64]Announcement
	nextID int64
}

func newMemoryAnnouncementRepo() *memoryAnnouncementRepo {
	return &memoryAnnouncementRepo{byID: make(map[int64]Announcement), nextID: 1}
}

func (r *memoryAnnouncementRepo) Get(_ context.Context, id int64) (*Announcement, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *memoryAnnouncementRepo) ListActive(_ context.Context, audience Audience, at time.Time) ([]Announcement, error) {
	var out []Announcement
	for _, a := range r.byID {
		if a.PublishedAt.After(at) {
			continue
		}
		if !a.ExpiresAt.IsZero() && !a.ExpiresAt.After(at) {
			continue
		}
		if audience == AudienceTenants && a.Audience == AudienceAdmins {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *memoryAnnouncementRepo) Create(_ context.Context, a *Announcement) error {
	a.ID = r.nextID
	r.nextID++
	r.byID[a.ID] = *a
	return nil
}

func (r *memoryAnnouncementRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func TestPublishDefaultsToAllAudience(t *testing.T) {
	svc := NewService(newMemoryAnnouncementRepo())

	a, err := svc.Publish(context.Background(), AnnouncementInput{Title: "Maintenance", Body: "Water off Friday"})
	require.NoError(t, err)
	require.Equal(t, AudienceAll, a.Audience)
	require.False(t, a.PublishedAt.IsZero())
}

func TestPublishRejectsEmptyTitle(t *testing.T) {
	svc := NewService(newMemoryAnnouncementRepo())

	_, err := svc.Publish(context.Background(), AnnouncementInput{Title: "  ", Body: "text"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestActiveFiltersExpired(t *testing.T) {
	repo := newMemoryAnnouncementRepo()
	svc := NewService(repo)
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Publish(context.Background(), AnnouncementInput{Title: "Old", Body: "gone", ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	current, err := svc.Publish(context.Background(), AnnouncementInput{Title: "Current", Body: "here"})
	require.NoError(t, err)

	list, err := svc.Active(context.Background(), AudienceAdmins)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, current.ID, list[0].ID)
}

func TestTenantsDoNotSeeAdminNotices(t *testing.T) {
	repo := newMemoryAnnouncementRepo()
	svc := NewService(repo)

	_, err := svc.Publish(context.Background(), AnnouncementInput{Title: "Board", Body: "internal", Audience: AudienceAdmins})
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), AnnouncementInput{Title: "Rent due", Body: "reminder", Audience: AudienceTenants})
	require.NoError(t, err)

	list, err := svc.Active(context.Background(), AudienceTenants)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Rent due", list[0].Title)
}

func TestRemoveUnknownAnnouncement(t *testing.T) {
	svc := NewService(newMemoryAnnouncementRepo())

	err := svc.Remove(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}
