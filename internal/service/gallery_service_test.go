package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oziev02/ImageGallery/internal/domain"
)

type serviceFixture struct {
	svc      GalleryService
	images   *memoryImageRepo
	storage  *memoryStorage
	producer *recordingProducer
}

func newServiceFixture(pageSize int, stored ...domain.Image) serviceFixture {
	f := serviceFixture{
		images:   newMemoryImageRepo(stored...),
		storage:  newMemoryStorage(),
		producer: &recordingProducer{},
	}
	f.svc = NewGalleryService(newTestStore(), f.images, f.storage, f.producer, pageSize, discardLogger())
	return f
}

func TestHandleEventFeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newServiceFixture(10)
	tmp := galleryImage("tmp", 1)
	final := galleryImage("final", 2)

	require.NoError(t, f.svc.HandleEvent(ctx, domain.Event{Type: domain.EventIntermediateSet, Image: &tmp}))
	require.Equal(t, "tmp", f.svc.Snapshot().IntermediateImage.UUID)

	require.NoError(t, f.svc.HandleEvent(ctx, domain.Event{Type: domain.EventImageAdded, Image: &final}))
	state := f.svc.Snapshot()
	require.Nil(t, state.IntermediateImage)
	require.Equal(t, "final", state.CurrentImageUUID)
	require.Equal(t, []string{"final"}, ids(state.Images))

	_, err := f.images.GetByUUID(ctx, "final")
	require.NoError(t, err, "finalized images are recorded")

	require.NoError(t, f.svc.HandleEvent(ctx, domain.Event{Type: domain.EventIntermediateSet, Image: &tmp}))
	require.NoError(t, f.svc.HandleEvent(ctx, domain.Event{Type: domain.EventIntermediateCleared}))
	require.Nil(t, f.svc.Snapshot().IntermediateImage)

	require.NoError(t, f.svc.HandleEvent(ctx, domain.Event{Type: domain.EventImageRemoved, UUID: "final"}))
	require.Empty(t, f.svc.Snapshot().Images)
	require.Equal(t, "", f.svc.Snapshot().CurrentImageUUID)
}

func TestHandleEventRejectsInvalid(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(10)
	err := f.svc.HandleEvent(context.Background(), domain.Event{Type: domain.EventImageAdded})
	require.ErrorIs(t, err, domain.ErrInvalidEvent)
	require.Empty(t, f.svc.Snapshot().Images)
}

func TestAddImageAssignsID(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(10)
	state, err := f.svc.AddImage(context.Background(), domain.Image{URL: "/outputs/new.png", Mtime: 3})
	require.NoError(t, err)
	require.Len(t, state.Images, 1)
	require.NotEmpty(t, state.Images[0].UUID)
	require.Equal(t, state.Images[0].UUID, state.CurrentImageUUID)

	_, err = f.svc.AddImage(context.Background(), domain.Image{UUID: "x"})
	require.ErrorIs(t, err, domain.ErrInvalidImageURL)
}

func TestAddImageShownWhenPersistFails(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(10)
	f.images.failErr = errors.New("db down")

	state, err := f.svc.AddImage(context.Background(), galleryImage("x", 1))
	require.Error(t, err)
	require.Equal(t, []string{"x"}, ids(state.Images))
}

func TestLoadOlderPages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newServiceFixture(2,
		galleryImage("a", 10), galleryImage("b", 20), galleryImage("c", 30),
		galleryImage("d", 40), galleryImage("e", 50),
	)

	state, err := f.svc.LoadOlder(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"e", "d"}, ids(state.Images))
	require.True(t, state.AreMoreImagesAvailable)
	require.Equal(t, "e", state.CurrentImageUUID)
	require.Equal(t, int64(40), *state.EarliestMtime)

	state, err = f.svc.LoadOlder(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"e", "d", "c", "b"}, ids(state.Images))
	require.True(t, state.AreMoreImagesAvailable)

	state, err = f.svc.LoadOlder(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"e", "d", "c", "b", "a"}, ids(state.Images))
	require.False(t, state.AreMoreImagesAvailable)
	require.Equal(t, "e", state.CurrentImageUUID)
}

func TestLoadOlderKeepsImagesSharingMtime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newServiceFixture(2,
		galleryImage("e", 30), galleryImage("d", 20), galleryImage("c", 20), galleryImage("b", 10),
	)

	state, err := f.svc.LoadOlder(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"e", "c"}, ids(state.Images))

	state, err = f.svc.LoadOlder(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"e", "c", "d", "b"}, ids(state.Images))
	require.False(t, state.AreMoreImagesAvailable)
}

func TestLoadNewerKeepsImagesSharingMtime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newServiceFixture(10, galleryImage("b", 20))

	_, err := f.svc.LoadOlder(ctx)
	require.NoError(t, err)
	_, err = f.images.Create(ctx, galleryImage("a", 20))
	require.NoError(t, err)

	state, err := f.svc.LoadNewer(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, ids(state.Images))
}

func TestLoadNewer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newServiceFixture(10, galleryImage("a", 10), galleryImage("b", 20))

	state, err := f.svc.LoadNewer(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, ids(state.Images), "empty gallery loads the first page")

	_, err = f.images.Create(ctx, galleryImage("c", 30))
	require.NoError(t, err)

	state, err = f.svc.LoadNewer(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "a"}, ids(state.Images))
	require.Equal(t, "b", state.CurrentImageUUID)
	require.Equal(t, int64(30), *state.LatestMtime)
}

func TestDeleteImage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newServiceFixture(10, galleryImage("a", 30), galleryImage("b", 20), galleryImage("c", 10))
	_, err := f.svc.LoadOlder(ctx)
	require.NoError(t, err)
	f.svc.SelectNext()
	require.Equal(t, "b", f.svc.Snapshot().CurrentImageUUID)

	state, err := f.svc.DeleteImage(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, ids(state.Images))
	require.Equal(t, "c", state.CurrentImageUUID)

	_, err = f.images.GetByUUID(ctx, "b")
	require.ErrorIs(t, err, domain.ErrImageNotFound)
	require.Equal(t, []string{"/outputs/b.png"}, f.storage.deleted)
	require.Equal(t, []domain.Event{{Type: domain.EventImageRemoved, UUID: "b"}}, f.producer.events)

	_, err = f.svc.DeleteImage(ctx, "b")
	require.ErrorIs(t, err, domain.ErrImageNotFound)
}

func TestDeleteImageOnlyInGallery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newServiceFixture(10)
	f.images.failErr = errors.New("db down")
	_, _ = f.svc.AddImage(ctx, galleryImage("x", 1))
	f.images.failErr = nil

	state, err := f.svc.DeleteImage(ctx, "x")
	require.NoError(t, err)
	require.Empty(t, state.Images)
}

func TestSelectionPassThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newServiceFixture(10, galleryImage("a", 2), galleryImage("b", 1))
	_, err := f.svc.LoadOlder(ctx)
	require.NoError(t, err)

	require.Equal(t, "b", f.svc.SelectNext().CurrentImageUUID)
	require.Equal(t, "a", f.svc.SelectPrev().CurrentImageUUID)
	require.Equal(t, "z", f.svc.SelectImage(galleryImage("z", 9)).CurrentImageUUID)

	require.Equal(t, "tmp", f.svc.SetIntermediateImage(galleryImage("tmp", 3)).IntermediateImage.UUID)
	require.Nil(t, f.svc.ClearIntermediateImage().IntermediateImage)
}

func TestUpdatePreferences(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(10)
	pin := false
	width := 96
	fit := "contain"

	state, err := f.svc.UpdatePreferences(PreferencesUpdate{
		ShouldPinGallery:         &pin,
		GalleryImageMinimumWidth: &width,
		GalleryImageObjectFit:    &fit,
	})
	require.NoError(t, err)
	require.False(t, state.ShouldPinGallery)
	require.True(t, state.ShouldShowGallery)
	require.Equal(t, 96, state.GalleryImageMinimumWidth)
	require.Equal(t, domain.ObjectFitContain, state.GalleryImageObjectFit)

	bad := "stretch"
	show := false
	_, err = f.svc.UpdatePreferences(PreferencesUpdate{ShouldShowGallery: &show, GalleryImageObjectFit: &bad})
	require.ErrorIs(t, err, domain.ErrInvalidObjectFit)
	require.True(t, f.svc.Snapshot().ShouldShowGallery, "rejected updates apply nothing")

	zero := 0
	_, err = f.svc.UpdatePreferences(PreferencesUpdate{GalleryWidth: &zero})
	require.ErrorIs(t, err, ErrInvalidPreference)
}
