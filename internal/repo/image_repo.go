package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oziev02/ImageGallery/internal/domain"
)

// ImageRepository pages through finalized images newest first
type ImageRepository interface {
	Create(ctx context.Context, img domain.Image) (bool, error)
	GetByUUID(ctx context.Context, id string) (domain.Image, error)
	Delete(ctx context.Context, id string) error
	ListOlder(ctx context.Context, before *domain.Cursor, limit int) ([]domain.Image, bool, error)
	ListNewer(ctx context.Context, after domain.Cursor, limit int) ([]domain.Image, error)
}

type imageRepo struct {
	db *pgxpool.Pool
}

func NewImageRepository(db *pgxpool.Pool) ImageRepository {
	return &imageRepo{db: db}
}

const imageColumns = `uuid, url, mtime, width, height`

// Create stores img unless an image with the same (url, mtime) or uuid is
// already present. It reports whether a row was inserted.
func (r *imageRepo) Create(ctx context.Context, img domain.Image) (bool, error) {
	query := `
		INSERT INTO gallery_images (` + imageColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, img.UUID, img.URL, img.Mtime, img.Width, img.Height)
	if err != nil {
		return false, fmt.Errorf("failed to create image: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *imageRepo) GetByUUID(ctx context.Context, id string) (domain.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM gallery_images WHERE uuid = $1`

	var img domain.Image
	err := r.db.QueryRow(ctx, query, id).Scan(&img.UUID, &img.URL, &img.Mtime, &img.Width, &img.Height)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Image{}, domain.ErrImageNotFound
		}
		return domain.Image{}, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

func (r *imageRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM gallery_images WHERE uuid = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}

// ListOlder returns up to limit images after the cursor in history order
// (all images when before is nil), newest first, and whether more remain
// beyond the page.
func (r *imageRepo) ListOlder(ctx context.Context, before *domain.Cursor, limit int) ([]domain.Image, bool, error) {
	var mtime *int64
	var id string
	if before != nil {
		mtime, id = &before.Mtime, before.UUID
	}

	query := `
		SELECT ` + imageColumns + `
		FROM gallery_images
		WHERE $1::bigint IS NULL OR mtime < $1 OR (mtime = $1 AND uuid > $2)
		ORDER BY mtime DESC, uuid
		LIMIT $3
	`
	images, err := r.list(ctx, query, mtime, id, limit+1)
	if err != nil {
		return nil, false, err
	}
	if len(images) > limit {
		return images[:limit], true, nil
	}
	return images, false, nil
}

// ListNewer returns up to limit images before the cursor in history order,
// the ones closest to it, newest first.
func (r *imageRepo) ListNewer(ctx context.Context, after domain.Cursor, limit int) ([]domain.Image, error) {
	query := `
		SELECT ` + imageColumns + ` FROM (
			SELECT ` + imageColumns + `
			FROM gallery_images
			WHERE mtime > $1 OR (mtime = $1 AND uuid < $2)
			ORDER BY mtime ASC, uuid DESC
			LIMIT $3
		) page
		ORDER BY mtime DESC, uuid
	`
	return r.list(ctx, query, after.Mtime, after.UUID, limit)
}

func (r *imageRepo) list(ctx context.Context, query string, args ...any) ([]domain.Image, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	images, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Image, error) {
		var img domain.Image
		err := row.Scan(&img.UUID, &img.URL, &img.Mtime, &img.Width, &img.Height)
		return img, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan images: %w", err)
	}
	return images, nil
}

func GenerateID() string {
	return uuid.New().String()
}
