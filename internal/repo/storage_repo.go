package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oziev02/ImageGallery/internal/domain"
)

// StorageRepository reads and removes generated image assets
type StorageRepository interface {
	Open(ctx context.Context, imageURL string) (io.ReadCloser, error)
	Delete(ctx context.Context, imageURL string) error
	Exists(ctx context.Context, imageURL string) (bool, error)
}

type storageRepo struct {
	basePath string
}

func NewStorageRepository(basePath string) StorageRepository {
	return &storageRepo{basePath: basePath}
}

// resolve maps an image url onto a file below basePath. Only the url path is
// used, so "/outputs/a.png" and "http://host/outputs/a.png" address the
// same asset.
func (r *storageRepo) resolve(imageURL string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidImageURL, err)
	}
	rel := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	if rel == "" || rel == "." {
		return "", domain.ErrInvalidImageURL
	}
	return filepath.Join(r.basePath, filepath.FromSlash(rel)), nil
}

func (r *storageRepo) Open(ctx context.Context, imageURL string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := r.resolve(imageURL)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to open asset: %w", err)
	}
	return file, nil
}

func (r *storageRepo) Delete(ctx context.Context, imageURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := r.resolve(imageURL)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

func (r *storageRepo) Exists(ctx context.Context, imageURL string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fullPath, err := r.resolve(imageURL)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check asset existence: %w", err)
	}
	return true, nil
}
