package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/nfnt/resize"

	"github.com/oziev02/ImageGallery/internal/domain"
	"github.com/oziev02/ImageGallery/internal/gallery"
	"github.com/oziev02/ImageGallery/internal/repo"
)

// MaxPreviewWidth bounds the width a preview may be requested at
const MaxPreviewWidth = 2048

// Preview is an encoded, scaled copy of a gallery image
type Preview struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

type PreviewService interface {
	Render(ctx context.Context, id string, width int) (*Preview, error)
}

type previewService struct {
	store       *gallery.Store
	imageRepo   repo.ImageRepository
	storageRepo repo.StorageRepository
}

func NewPreviewService(
	store *gallery.Store,
	imageRepo repo.ImageRepository,
	storageRepo repo.StorageRepository,
) PreviewService {
	return &previewService{
		store:       store,
		imageRepo:   imageRepo,
		storageRepo: storageRepo,
	}
}

// Render scales the image to width, or to the gallery's minimum thumbnail
// width when width is zero, honouring the gallery's object fit: contain
// fits the image into a width x width box, cover scales it to the width.
func (s *previewService) Render(ctx context.Context, id string, width int) (*Preview, error) {
	snapshot := s.store.Snapshot()
	if width <= 0 {
		width = snapshot.GalleryImageMinimumWidth
	}
	width = min(width, MaxPreviewWidth)

	img, err := s.lookup(ctx, snapshot, id)
	if err != nil {
		return nil, err
	}

	format, err := formatFromURL(img.URL)
	if err != nil {
		return nil, err
	}

	reader, err := s.storageRepo.Open(ctx, img.URL)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	original, err := decodeImage(reader, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var scaled image.Image
	switch snapshot.GalleryImageObjectFit {
	case domain.ObjectFitContain:
		scaled = resize.Thumbnail(uint(width), uint(width), original, resize.Lanczos3)
	default:
		scaled = resize.Resize(uint(width), 0, original, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := encodeImage(&buf, scaled, format); err != nil {
		return nil, err
	}

	bounds := scaled.Bounds()
	return &Preview{
		Data:        buf.Bytes(),
		ContentType: contentType(format),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

// lookup prefers the gallery's own copy, including a selection or an
// in-progress image that is not part of the list.
func (s *previewService) lookup(ctx context.Context, snapshot gallery.State, id string) (domain.Image, error) {
	if i, ok := snapshot.IndexOf(id); ok {
		return snapshot.Images[i], nil
	}
	for _, candidate := range []*domain.Image{snapshot.CurrentImage, snapshot.IntermediateImage} {
		if candidate != nil && candidate.UUID == id {
			return *candidate, nil
		}
	}

	img, err := s.imageRepo.GetByUUID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return domain.Image{}, err
		}
		return domain.Image{}, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

type imageFormat string

const (
	formatJPEG imageFormat = "jpeg"
	formatPNG  imageFormat = "png"
	formatGIF  imageFormat = "gif"
)

func formatFromURL(imageURL string) (imageFormat, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidImageURL, err)
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".jpg", ".jpeg":
		return formatJPEG, nil
	case ".png":
		return formatPNG, nil
	case ".gif":
		return formatGIF, nil
	default:
		return "", domain.ErrInvalidFormat
	}
}

func decodeImage(r io.Reader, format imageFormat) (image.Image, error) {
	switch format {
	case formatJPEG:
		return jpeg.Decode(r)
	case formatPNG:
		return png.Decode(r)
	case formatGIF:
		return gif.Decode(r)
	default:
		return nil, domain.ErrInvalidFormat
	}
}

func encodeImage(w io.Writer, img image.Image, format imageFormat) error {
	switch format {
	case formatJPEG:
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 90}); err != nil {
			return fmt.Errorf("failed to encode JPEG: %w", err)
		}
	case formatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("failed to encode PNG: %w", err)
		}
	case formatGIF:
		if err := gif.Encode(w, img, &gif.Options{}); err != nil {
			return fmt.Errorf("failed to encode GIF: %w", err)
		}
	default:
		return domain.ErrInvalidFormat
	}
	return nil
}

func contentType(format imageFormat) string {
	switch format {
	case formatPNG:
		return "image/png"
	case formatGIF:
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
