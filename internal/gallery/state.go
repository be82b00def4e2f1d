package gallery

import "github.com/oziev02/ImageGallery/internal/domain"

// Preferences holds gallery display settings. They carry no invariants.
type Preferences struct {
	ShouldPinGallery      bool `json:"shouldPinGallery"`
	ShouldShowGallery     bool `json:"shouldShowGallery"`
	ShouldHoldGalleryOpen bool `json:"shouldHoldGalleryOpen"`
	// When set, addImage keeps the current selection instead of switching
	// to the new image.
	ShouldHoldSelectionOnNewImages bool             `json:"shouldHoldSelectionOnNewImages"`
	GalleryScrollPosition          float64          `json:"galleryScrollPosition"`
	GalleryImageMinimumWidth       int              `json:"galleryImageMinimumWidth"`
	GalleryImageObjectFit          domain.ObjectFit `json:"galleryImageObjectFit"`
	GalleryWidth                   int              `json:"galleryWidth"`
}

// DefaultPreferences returns the preferences a fresh session starts with
func DefaultPreferences() Preferences {
	return Preferences{
		ShouldPinGallery:               true,
		ShouldShowGallery:              true,
		ShouldHoldGalleryOpen:          false,
		ShouldHoldSelectionOnNewImages: false,
		GalleryScrollPosition:          0,
		GalleryImageMinimumWidth:       64,
		GalleryImageObjectFit:          domain.ObjectFitCover,
		GalleryWidth:                   300,
	}
}

// State is the gallery panel state. Images is ordered newest first and
// holds no two entries with the same (url, mtime). CurrentImage is always
// re-derived from Images by CurrentImageUUID when the image is present.
type State struct {
	Images                 []domain.Image `json:"images"`
	CurrentImageUUID       string         `json:"currentImageUuid"`
	CurrentImage           *domain.Image  `json:"currentImage,omitempty"`
	IntermediateImage      *domain.Image  `json:"intermediateImage,omitempty"`
	AreMoreImagesAvailable bool           `json:"areMoreImagesAvailable"`
	LatestMtime            *int64         `json:"latestMtime,omitempty"`
	EarliestMtime          *int64         `json:"earliestMtime,omitempty"`
	Preferences

	// Rebuilt together with Images and never mutated afterwards, so
	// copies of a State may share them.
	index map[string]int
	keys  map[domain.ImageKey]struct{}
}

// NewState returns an empty gallery with the given preferences
func NewState(prefs Preferences) State {
	s := State{
		AreMoreImagesAvailable: true,
		Preferences:            prefs,
	}
	s.setImages(nil)
	return s
}

// IndexOf returns the position of the image with the given uuid
func (s State) IndexOf(uuid string) (int, bool) {
	if s.index == nil {
		s.setImages(s.Images)
	}
	i, ok := s.index[uuid]
	return i, ok
}

// Clone returns a deep copy safe to hand to readers
func (s State) Clone() State {
	c := s
	if s.Images != nil {
		c.Images = make([]domain.Image, len(s.Images))
		copy(c.Images, s.Images)
	}
	c.CurrentImage = cloneImage(s.CurrentImage)
	c.IntermediateImage = cloneImage(s.IntermediateImage)
	c.LatestMtime = cloneInt64(s.LatestMtime)
	c.EarliestMtime = cloneInt64(s.EarliestMtime)
	return c
}

func (s *State) setImages(images []domain.Image) {
	s.Images = images
	s.index = make(map[string]int, len(images))
	s.keys = make(map[domain.ImageKey]struct{}, len(images))
	for i, img := range images {
		if _, ok := s.index[img.UUID]; !ok {
			s.index[img.UUID] = i
		}
		s.keys[img.Key()] = struct{}{}
	}
}

func (s *State) selectImage(img domain.Image) {
	s.CurrentImageUUID = img.UUID
	s.CurrentImage = &img
}

func (s *State) clearSelection() {
	s.CurrentImageUUID = ""
	s.CurrentImage = nil
}

// syncCurrent refreshes CurrentImage from Images. A selection that is not
// in Images (set from outside) is left as it was.
func (s *State) syncCurrent() {
	if s.CurrentImageUUID == "" {
		s.CurrentImage = nil
		return
	}
	if i, ok := s.index[s.CurrentImageUUID]; ok {
		img := s.Images[i]
		s.CurrentImage = &img
	}
}

func cloneImage(img *domain.Image) *domain.Image {
	if img == nil {
		return nil
	}
	c := *img
	return &c
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
