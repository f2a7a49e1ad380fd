package announcements

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for announcements.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const announcementColumns = `
	id, title, body, audience, published_at, expires_at,
	COALESCE(created_by, 0), created_at`

func scanAnnouncement(row pgx.Row) (*Announcement, error) {
	var a Announcement
	var expires pgtype.Timestamptz
	err := row.Scan(
		&a.ID, &a.Title, &a.Body, &a.Audience, &a.PublishedAt, &expires,
		&a.CreatedBy, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		a.ExpiresAt = expires.Time
	}
	return &a, nil
}

// Get retrieves one announcement by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Announcement, error) {
	a, err := scanAnnouncement(r.pool.QueryRow(ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// ListActive returns unexpired announcements for the audience, newest first.
// Admin listings pass AudienceAdmins and see every audience.
func (r *Repository) ListActive(ctx context.Context, audience Audience, at time.Time) ([]Announcement, error) {
	query := `
		SELECT ` + announcementColumns + `
		FROM announcements
		WHERE published_at <= $1 AND (expires_at IS NULL OR expires_at > $1)`
	args := []any{at}
	if audience == AudienceTenants {
		args = append(args, AudienceAll, AudienceTenants)
		query += ` AND audience IN ($2, $3)`
	}
	query += ` ORDER BY published_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Create inserts an announcement and fills in its id.
func (r *Repository) Create(ctx context.Context, a *Announcement) error {
	var expires any
	if !a.ExpiresAt.IsZero() {
		expires = a.ExpiresAt
	}
	var createdBy any
	if a.CreatedBy > 0 {
		createdBy = a.CreatedBy
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO announcements (
			title, body, audience, published_at, expires_at, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		a.Title, a.Body, a.Audience, a.PublishedAt, expires, createdBy, a.CreatedAt,
	).Scan(&a.ID)
}

// Delete removes an announcement.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
