// Package announcements manages notices published to tenants and staff.
package announcements

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// Domain errors.
var (
	ErrNotFound   = fmt.Errorf("announcements: %w", httpx.ErrNotFound)
	ErrValidation = fmt.Errorf("announcements: %w", httpx.ErrValidation)
)

// Audience enumerates who an announcement targets.
type Audience string

const (
	AudienceAll     Audience = "all"
	AudienceTenants Audience = "tenants"
	AudienceAdmins  Audience = "admins"
)

// Announcement model.
type Announcement struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Audience    Audience  `json:"audience"`
	PublishedAt time.Time `json:"published_at"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// AnnouncementInput for creating announcements.
type AnnouncementInput struct {
	Title     string
	Body      string
	Audience  Audience
	ExpiresAt time.Time
	CreatedBy int64
}

// RepositoryPort defines data access methods for announcements.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Announcement, error)
	ListActive(ctx context.Context, audience Audience, at time.Time) ([]Announcement, error)
	Create(ctx context.Context, a *Announcement) error
	Delete(ctx context.Context, id int64) error
}

// Service handles announcement business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Publish creates an announcement visible immediately.
func (s *Service) Publish(ctx context.Context, input AnnouncementInput) (*Announcement, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Body) == "" {
		return nil, ErrValidation
	}
	audience := input.Audience
	if audience == "" {
		audience = AudienceAll
	}
	switch audience {
	case AudienceAll, AudienceTenants, AudienceAdmins:
	default:
		return nil, ErrValidation
	}
	now := s.now()
	a := &Announcement{
		Title:       input.Title,
		Body:        input.Body,
		Audience:    audience,
		PublishedAt: now,
		ExpiresAt:   input.ExpiresAt,
		CreatedBy:   input.CreatedBy,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Active lists announcements currently visible to the audience. Tenant
// sessions see "all" and "tenants" notices; admin sessions see everything.
func (s *Service) Active(ctx context.Context, audience Audience) ([]Announcement, error) {
	return s.repo.ListActive(ctx, audience, s.now())
}

// Remove deletes an announcement.
func (s *Service) Remove(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrValidation
	}
	return s.repo.Delete(ctx, id)
}
