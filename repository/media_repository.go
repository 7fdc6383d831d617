package repository

import (
	"context"
	"errors"
	"fmt"

	"sicbo/database"
	"sicbo/models"

	"github.com/jackc/pgx/v5"
)

// MediaRepository implements the MediaRepository interface
type MediaRepository struct {
	q queryable
}

// NewMediaRepository creates a new media repository
func NewMediaRepository(db *database.DB) *MediaRepository {
	return &MediaRepository{q: db.Pool}
}

func newMediaRepositoryWithTx(tx queryable) *MediaRepository {
	return &MediaRepository{q: tx}
}

// Get returns the media for a kind
func (r *MediaRepository) Get(ctx context.Context, kind models.MediaKind) (*models.AnnouncementMedia, error) {
	query := `SELECT id, kind, url, added_by, created_at FROM announcement_media WHERE kind = $1`

	var media models.AnnouncementMedia
	err := r.q.QueryRow(ctx, query, kind).Scan(
		&media.ID,
		&media.Kind,
		&media.URL,
		&media.AddedBy,
		&media.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s media: %w", kind, err)
	}
	return &media, nil
}

// Set replaces the media for a kind
func (r *MediaRepository) Set(ctx context.Context, kind models.MediaKind, url string, addedBy int64) error {
	query := `
		INSERT INTO announcement_media (kind, url, added_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind) DO UPDATE SET url = EXCLUDED.url, added_by = EXCLUDED.added_by, created_at = NOW()
	`
	if _, err := r.q.Exec(ctx, query, kind, url, addedBy); err != nil {
		return fmt.Errorf("failed to set %s media: %w", kind, err)
	}
	return nil
}
