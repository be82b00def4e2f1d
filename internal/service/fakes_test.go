package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/oziev02/ImageGallery/internal/domain"
	"github.com/oziev02/ImageGallery/internal/gallery"
)

type memoryImageRepo struct {
	mu      sync.Mutex
	images  map[string]domain.Image
	failErr error
}

func newMemoryImageRepo(images ...domain.Image) *memoryImageRepo {
	r := &memoryImageRepo{images: make(map[string]domain.Image)}
	for _, img := range images {
		r.images[img.UUID] = img
	}
	return r
}

func (r *memoryImageRepo) Create(_ context.Context, img domain.Image) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return false, r.failErr
	}
	for _, existing := range r.images {
		if existing.UUID == img.UUID || existing.Key() == img.Key() {
			return false, nil
		}
	}
	r.images[img.UUID] = img
	return true, nil
}

func (r *memoryImageRepo) GetByUUID(_ context.Context, id string) (domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[id]
	if !ok {
		return domain.Image{}, domain.ErrImageNotFound
	}
	return img, nil
}

func (r *memoryImageRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.images[id]; !ok {
		return domain.ErrImageNotFound
	}
	delete(r.images, id)
	return nil
}

func (r *memoryImageRepo) sorted() []domain.Image {
	out := make([]domain.Image, 0, len(r.images))
	for _, img := range r.images {
		out = append(out, img)
	}
	slices.SortFunc(out, domain.CompareNewestFirst)
	return out
}

func (r *memoryImageRepo) ListOlder(_ context.Context, before *domain.Cursor, limit int) ([]domain.Image, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var page []domain.Image
	for _, img := range r.sorted() {
		if before == nil || img.Cursor().Compare(*before) > 0 {
			page = append(page, img)
		}
	}
	if len(page) > limit {
		return page[:limit], true, nil
	}
	return page, false, nil
}

func (r *memoryImageRepo) ListNewer(_ context.Context, after domain.Cursor, limit int) ([]domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newer []domain.Image
	for _, img := range r.sorted() {
		if img.Cursor().Compare(after) < 0 {
			newer = append(newer, img)
		}
	}
	if len(newer) > limit {
		newer = newer[len(newer)-limit:]
	}
	return newer, nil
}

type memoryStorage struct {
	mu      sync.Mutex
	assets  map[string][]byte
	deleted []string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{assets: make(map[string][]byte)}
}

func (s *memoryStorage) Open(_ context.Context, imageURL string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.assets[imageURL]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memoryStorage) Delete(_ context.Context, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, imageURL)
	s.deleted = append(s.deleted, imageURL)
	return nil
}

func (s *memoryStorage) Exists(_ context.Context, imageURL string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.assets[imageURL]
	return ok, nil
}

type recordingProducer struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingProducer) PublishEvent(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore() *gallery.Store {
	return gallery.NewStore(gallery.NewState(gallery.DefaultPreferences()), discardLogger())
}

func galleryImage(id string, mtime int64) domain.Image {
	return domain.Image{UUID: id, URL: "/outputs/" + id + ".png", Mtime: mtime}
}

func ids(images []domain.Image) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, img.UUID)
	}
	return out
}
