package gallery

import (
	"cmp"
	"slices"

	"github.com/oziev02/ImageGallery/internal/domain"
)

// Action is a gallery state transition. The set is closed: every action is
// defined in this file.
type Action interface {
	Name() string
	reduce(s State) State
}

// Reduce applies a to s and returns the resulting state. It never modifies
// s and always returns a consistent state; unmatched lookups are no-ops.
func Reduce(s State, a Action) State {
	if s.index == nil {
		s.setImages(s.Images)
	}
	return a.reduce(s)
}

// SetCurrentImage selects Image verbatim, whether or not it is in the gallery.
type SetCurrentImage struct {
	Image domain.Image
}

func (SetCurrentImage) Name() string { return "setCurrentImage" }

func (a SetCurrentImage) reduce(s State) State {
	s.selectImage(a.Image)
	return s
}

// RemoveImage drops the image with UUID. When it was selected, the image
// that slides into its slot becomes current, or the new last image when the
// removed one was last.
type RemoveImage struct {
	UUID string
}

func (RemoveImage) Name() string { return "removeImage" }

func (a RemoveImage) reduce(s State) State {
	idx, ok := s.index[a.UUID]
	if !ok {
		return s
	}

	images := make([]domain.Image, 0, len(s.Images)-1)
	images = append(images, s.Images[:idx]...)
	images = append(images, s.Images[idx+1:]...)
	s.setImages(images)

	if s.CurrentImageUUID == a.UUID {
		if len(images) == 0 {
			s.clearSelection()
		} else {
			s.selectImage(images[min(idx, len(images)-1)])
		}
	}
	s.syncCurrent()
	return s
}

// AddImage prepends a newly finalized image. Callers guarantee it is the
// newest image, so no re-sort happens.
type AddImage struct {
	Image domain.Image
}

func (AddImage) Name() string { return "addImage" }

func (a AddImage) reduce(s State) State {
	if _, dup := s.keys[a.Image.Key()]; dup {
		return s
	}

	images := make([]domain.Image, 0, len(s.Images)+1)
	images = append(images, a.Image)
	images = append(images, s.Images...)
	s.setImages(images)

	if !s.ShouldHoldSelectionOnNewImages {
		s.selectImage(a.Image)
	}
	s.IntermediateImage = nil
	latest := a.Image.Mtime
	s.LatestMtime = &latest
	s.syncCurrent()
	return s
}

type SetIntermediateImage struct {
	Image domain.Image
}

func (SetIntermediateImage) Name() string { return "setIntermediateImage" }

func (a SetIntermediateImage) reduce(s State) State {
	img := a.Image
	s.IntermediateImage = &img
	return s
}

type ClearIntermediateImage struct{}

func (ClearIntermediateImage) Name() string { return "clearIntermediateImage" }

func (ClearIntermediateImage) reduce(s State) State {
	s.IntermediateImage = nil
	return s
}

// SelectNextImage moves the selection one step towards older images.
type SelectNextImage struct{}

func (SelectNextImage) Name() string { return "selectNextImage" }

func (SelectNextImage) reduce(s State) State {
	idx, ok := s.currentIndex()
	if !ok || idx >= len(s.Images)-1 {
		return s
	}
	s.selectImage(s.Images[idx+1])
	return s
}

// SelectPrevImage moves the selection one step towards newer images.
type SelectPrevImage struct{}

func (SelectPrevImage) Name() string { return "selectPrevImage" }

func (SelectPrevImage) reduce(s State) State {
	idx, ok := s.currentIndex()
	if !ok || idx <= 0 {
		return s
	}
	s.selectImage(s.Images[idx-1])
	return s
}

func (s State) currentIndex() (int, bool) {
	if s.CurrentImageUUID == "" {
		return 0, false
	}
	idx, ok := s.index[s.CurrentImageUUID]
	return idx, ok
}

// AddGalleryImages merges a fetched page. Pagination cursors are taken from
// the bounds of the incoming page, not of the merged list.
type AddGalleryImages struct {
	Images                 []domain.Image
	AreMoreImagesAvailable *bool
}

func (AddGalleryImages) Name() string { return "addGalleryImages" }

func (a AddGalleryImages) reduce(s State) State {
	if len(a.Images) > 0 {
		merged := make([]domain.Image, len(s.Images), len(s.Images)+len(a.Images))
		copy(merged, s.Images)
		seen := make(map[domain.ImageKey]struct{}, len(a.Images))
		for _, img := range a.Images {
			key := img.Key()
			if _, dup := s.keys[key]; dup {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, img)
		}
		slices.SortStableFunc(merged, func(x, y domain.Image) int {
			return cmp.Compare(y.Mtime, x.Mtime)
		})
		s.setImages(merged)

		if s.CurrentImageUUID == "" {
			s.selectImage(a.Images[0])
		}
		latest, earliest := a.Images[0].Mtime, a.Images[len(a.Images)-1].Mtime
		s.LatestMtime = &latest
		s.EarliestMtime = &earliest
		s.syncCurrent()
	}
	if a.AreMoreImagesAvailable != nil {
		s.AreMoreImagesAvailable = *a.AreMoreImagesAvailable
	}
	return s
}

type SetShouldPinGallery struct{ Value bool }

func (SetShouldPinGallery) Name() string { return "setShouldPinGallery" }

func (a SetShouldPinGallery) reduce(s State) State {
	s.ShouldPinGallery = a.Value
	return s
}

type SetShouldShowGallery struct{ Value bool }

func (SetShouldShowGallery) Name() string { return "setShouldShowGallery" }

func (a SetShouldShowGallery) reduce(s State) State {
	s.ShouldShowGallery = a.Value
	return s
}

type SetShouldHoldGalleryOpen struct{ Value bool }

func (SetShouldHoldGalleryOpen) Name() string { return "setShouldHoldGalleryOpen" }

func (a SetShouldHoldGalleryOpen) reduce(s State) State {
	s.ShouldHoldGalleryOpen = a.Value
	return s
}

type SetShouldHoldSelectionOnNewImages struct{ Value bool }

func (SetShouldHoldSelectionOnNewImages) Name() string { return "setShouldHoldSelectionOnNewImages" }

func (a SetShouldHoldSelectionOnNewImages) reduce(s State) State {
	s.ShouldHoldSelectionOnNewImages = a.Value
	return s
}

type SetGalleryScrollPosition struct{ Value float64 }

func (SetGalleryScrollPosition) Name() string { return "setGalleryScrollPosition" }

func (a SetGalleryScrollPosition) reduce(s State) State {
	s.GalleryScrollPosition = a.Value
	return s
}

type SetGalleryImageMinimumWidth struct{ Value int }

func (SetGalleryImageMinimumWidth) Name() string { return "setGalleryImageMinimumWidth" }

func (a SetGalleryImageMinimumWidth) reduce(s State) State {
	s.GalleryImageMinimumWidth = a.Value
	return s
}

type SetGalleryImageObjectFit struct{ Value domain.ObjectFit }

func (SetGalleryImageObjectFit) Name() string { return "setGalleryImageObjectFit" }

func (a SetGalleryImageObjectFit) reduce(s State) State {
	s.GalleryImageObjectFit = a.Value
	return s
}

type SetGalleryWidth struct{ Value int }

func (SetGalleryWidth) Name() string { return "setGalleryWidth" }

func (a SetGalleryWidth) reduce(s State) State {
	s.GalleryWidth = a.Value
	return s
}
