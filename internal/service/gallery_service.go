package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oziev02/ImageGallery/internal/domain"
	"github.com/oziev02/ImageGallery/internal/gallery"
	"github.com/oziev02/ImageGallery/internal/repo"
	kafkatransport "github.com/oziev02/ImageGallery/internal/transport/kafka"
)

type GalleryService interface {
	Snapshot() gallery.State
	HandleEvent(ctx context.Context, event domain.Event) error
	AddImage(ctx context.Context, img domain.Image) (gallery.State, error)
	DeleteImage(ctx context.Context, id string) (gallery.State, error)
	LoadOlder(ctx context.Context) (gallery.State, error)
	LoadNewer(ctx context.Context) (gallery.State, error)
	SelectImage(img domain.Image) gallery.State
	SelectNext() gallery.State
	SelectPrev() gallery.State
	SetIntermediateImage(img domain.Image) gallery.State
	ClearIntermediateImage() gallery.State
	UpdatePreferences(update PreferencesUpdate) (gallery.State, error)
}

// PreferencesUpdate is a partial preference change; nil fields are kept
type PreferencesUpdate struct {
	ShouldPinGallery               *bool    `json:"shouldPinGallery,omitempty"`
	ShouldShowGallery              *bool    `json:"shouldShowGallery,omitempty"`
	ShouldHoldGalleryOpen          *bool    `json:"shouldHoldGalleryOpen,omitempty"`
	ShouldHoldSelectionOnNewImages *bool    `json:"shouldHoldSelectionOnNewImages,omitempty"`
	GalleryScrollPosition          *float64 `json:"galleryScrollPosition,omitempty"`
	GalleryImageMinimumWidth       *int     `json:"galleryImageMinimumWidth,omitempty"`
	GalleryImageObjectFit          *string  `json:"galleryImageObjectFit,omitempty"`
	GalleryWidth                   *int     `json:"galleryWidth,omitempty"`
}

// ErrInvalidPreference is returned for out of range preference values
var ErrInvalidPreference = errors.New("invalid preference")

type galleryService struct {
	store       *gallery.Store
	imageRepo   repo.ImageRepository
	storageRepo repo.StorageRepository
	producer    kafkatransport.Producer
	pageSize    int
	logger      *slog.Logger
}

func NewGalleryService(
	store *gallery.Store,
	imageRepo repo.ImageRepository,
	storageRepo repo.StorageRepository,
	producer kafkatransport.Producer,
	pageSize int,
	logger *slog.Logger,
) GalleryService {
	return &galleryService{
		store:       store,
		imageRepo:   imageRepo,
		storageRepo: storageRepo,
		producer:    producer,
		pageSize:    pageSize,
		logger:      logger,
	}
}

func (s *galleryService) Snapshot() gallery.State {
	return s.store.Snapshot()
}

// HandleEvent applies an entry of the generation feed
func (s *galleryService) HandleEvent(ctx context.Context, event domain.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	switch event.Type {
	case domain.EventImageAdded:
		_, err := s.AddImage(ctx, *event.Image)
		return err
	case domain.EventIntermediateSet:
		s.store.Dispatch(gallery.SetIntermediateImage{Image: *event.Image})
	case domain.EventIntermediateCleared:
		s.store.Dispatch(gallery.ClearIntermediateImage{})
	case domain.EventImageRemoved:
		s.store.Dispatch(gallery.RemoveImage{UUID: event.UUID})
	}
	return nil
}

// AddImage records a finalized image and shows it in the gallery. The
// gallery is updated even when persisting fails.
func (s *galleryService) AddImage(ctx context.Context, img domain.Image) (gallery.State, error) {
	if img.UUID == "" {
		img.UUID = repo.GenerateID()
	}
	if err := img.Validate(); err != nil {
		return s.store.Snapshot(), fmt.Errorf("invalid image: %w", err)
	}

	inserted, persistErr := s.imageRepo.Create(ctx, img)
	state := s.store.Dispatch(gallery.AddImage{Image: img})
	if persistErr != nil {
		return state, fmt.Errorf("failed to persist image: %w", persistErr)
	}
	if !inserted {
		s.logger.Debug("image already recorded", "uuid", img.UUID, "url", img.URL)
	}
	return state, nil
}

// DeleteImage removes the image from history, storage and the gallery and
// announces the removal on the feed.
func (s *galleryService) DeleteImage(ctx context.Context, id string) (gallery.State, error) {
	snapshot := s.store.Snapshot()

	var img domain.Image
	idx, inGallery := snapshot.IndexOf(id)
	if inGallery {
		img = snapshot.Images[idx]
	}

	stored, err := s.imageRepo.GetByUUID(ctx, id)
	switch {
	case err == nil:
		img = stored
		if err := s.imageRepo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrImageNotFound) {
			return snapshot, err
		}
	case errors.Is(err, domain.ErrImageNotFound):
		if !inGallery {
			return snapshot, domain.ErrImageNotFound
		}
	default:
		return snapshot, err
	}

	if err := s.storageRepo.Delete(ctx, img.URL); err != nil {
		s.logger.Warn("failed to delete image asset", "uuid", id, "url", img.URL, "error", err)
	}

	state := s.store.Dispatch(gallery.RemoveImage{UUID: id})

	if err := s.producer.PublishEvent(ctx, domain.Event{Type: domain.EventImageRemoved, UUID: id}); err != nil {
		s.logger.Warn("failed to publish image removal", "uuid", id, "error", err)
	}
	return state, nil
}

// LoadOlder fetches the page below the oldest loaded image
func (s *galleryService) LoadOlder(ctx context.Context) (gallery.State, error) {
	snapshot := s.store.Snapshot()
	before := oldestLoaded(snapshot)

	images, more, err := s.imageRepo.ListOlder(ctx, before, s.pageSize)
	if err != nil {
		return snapshot, err
	}
	return s.store.Dispatch(gallery.AddGalleryImages{
		Images:                 images,
		AreMoreImagesAvailable: &more,
	}), nil
}

// LoadNewer fetches images newer than the newest loaded one. With nothing
// loaded it fetches the first page.
func (s *galleryService) LoadNewer(ctx context.Context) (gallery.State, error) {
	snapshot := s.store.Snapshot()
	after := newestLoaded(snapshot)
	if after == nil {
		return s.LoadOlder(ctx)
	}

	images, err := s.imageRepo.ListNewer(ctx, *after, s.pageSize)
	if err != nil {
		return snapshot, err
	}
	return s.store.Dispatch(gallery.AddGalleryImages{Images: images}), nil
}

// oldestLoaded is the loaded image furthest along the history order. Feed
// additions and removals leave the mtime cursors out of step with the list,
// so only with nothing loaded does EarliestMtime resume paging.
func oldestLoaded(s gallery.State) *domain.Cursor {
	var cursor *domain.Cursor
	for _, img := range s.Images {
		c := img.Cursor()
		if cursor == nil || c.Compare(*cursor) > 0 {
			cursor = &c
		}
	}
	if cursor == nil && s.EarliestMtime != nil {
		cursor = &domain.Cursor{Mtime: *s.EarliestMtime}
	}
	return cursor
}

func newestLoaded(s gallery.State) *domain.Cursor {
	var cursor *domain.Cursor
	for _, img := range s.Images {
		c := img.Cursor()
		if cursor == nil || c.Compare(*cursor) < 0 {
			cursor = &c
		}
	}
	return cursor
}

func (s *galleryService) SelectImage(img domain.Image) gallery.State {
	return s.store.Dispatch(gallery.SetCurrentImage{Image: img})
}

func (s *galleryService) SelectNext() gallery.State {
	return s.store.Dispatch(gallery.SelectNextImage{})
}

func (s *galleryService) SelectPrev() gallery.State {
	return s.store.Dispatch(gallery.SelectPrevImage{})
}

func (s *galleryService) SetIntermediateImage(img domain.Image) gallery.State {
	return s.store.Dispatch(gallery.SetIntermediateImage{Image: img})
}

func (s *galleryService) ClearIntermediateImage() gallery.State {
	return s.store.Dispatch(gallery.ClearIntermediateImage{})
}

// UpdatePreferences validates the whole update before dispatching any of it
func (s *galleryService) UpdatePreferences(update PreferencesUpdate) (gallery.State, error) {
	actions, err := update.actions()
	if err != nil {
		return s.store.Snapshot(), err
	}

	state := s.store.Snapshot()
	for _, a := range actions {
		state = s.store.Dispatch(a)
	}
	return state, nil
}

func (u PreferencesUpdate) actions() ([]gallery.Action, error) {
	var actions []gallery.Action
	if u.ShouldPinGallery != nil {
		actions = append(actions, gallery.SetShouldPinGallery{Value: *u.ShouldPinGallery})
	}
	if u.ShouldShowGallery != nil {
		actions = append(actions, gallery.SetShouldShowGallery{Value: *u.ShouldShowGallery})
	}
	if u.ShouldHoldGalleryOpen != nil {
		actions = append(actions, gallery.SetShouldHoldGalleryOpen{Value: *u.ShouldHoldGalleryOpen})
	}
	if u.ShouldHoldSelectionOnNewImages != nil {
		actions = append(actions, gallery.SetShouldHoldSelectionOnNewImages{Value: *u.ShouldHoldSelectionOnNewImages})
	}
	if u.GalleryScrollPosition != nil {
		actions = append(actions, gallery.SetGalleryScrollPosition{Value: *u.GalleryScrollPosition})
	}
	if u.GalleryImageMinimumWidth != nil {
		if *u.GalleryImageMinimumWidth <= 0 {
			return nil, fmt.Errorf("%w: galleryImageMinimumWidth must be positive", ErrInvalidPreference)
		}
		actions = append(actions, gallery.SetGalleryImageMinimumWidth{Value: *u.GalleryImageMinimumWidth})
	}
	if u.GalleryImageObjectFit != nil {
		fit, err := domain.ParseObjectFit(*u.GalleryImageObjectFit)
		if err != nil {
			return nil, err
		}
		actions = append(actions, gallery.SetGalleryImageObjectFit{Value: fit})
	}
	if u.GalleryWidth != nil {
		if *u.GalleryWidth <= 0 {
			return nil, fmt.Errorf("%w: galleryWidth must be positive", ErrInvalidPreference)
		}
		actions = append(actions, gallery.SetGalleryWidth{Value: *u.GalleryWidth})
	}
	return actions, nil
}
