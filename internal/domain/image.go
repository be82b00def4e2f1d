package domain

import (
	"cmp"
	"errors"
	"fmt"
)

// ObjectFit controls how gallery thumbnails fill their cell
type ObjectFit string

const (
	ObjectFitContain ObjectFit = "contain"
	ObjectFitCover   ObjectFit = "cover"
)

// ParseObjectFit converts a raw preference value into an ObjectFit
func ParseObjectFit(s string) (ObjectFit, error) {
	switch fit := ObjectFit(s); fit {
	case ObjectFitContain, ObjectFitCover:
		return fit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectFit, s)
	}
}

// Image represents a finalized or intermediate generation result
type Image struct {
	UUID   string `json:"uuid"`
	URL    string `json:"url"`
	Mtime  int64  `json:"mtime"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ImageKey identifies an image for deduplication
type ImageKey struct {
	URL   string
	Mtime int64
}

// Key returns the (url, mtime) pair two copies of the same asset share
func (i Image) Key() ImageKey {
	return ImageKey{URL: i.URL, Mtime: i.Mtime}
}

// Cursor is a position in the newest-first history order: mtime descending,
// ties broken by uuid ascending. mtime alone is not unique.
type Cursor struct {
	Mtime int64
	UUID  string
}

// Cursor returns the position of i in the history order
func (i Image) Cursor() Cursor {
	return Cursor{Mtime: i.Mtime, UUID: i.UUID}
}

// CompareNewestFirst orders images the way history pages are returned
func CompareNewestFirst(a, b Image) int {
	return a.Cursor().Compare(b.Cursor())
}

// Compare reports -1 when c comes before other in the history order
func (c Cursor) Compare(other Cursor) int {
	if n := cmp.Compare(other.Mtime, c.Mtime); n != 0 {
		return n
	}
	return cmp.Compare(c.UUID, other.UUID)
}

// Validate validates image invariants
func (i Image) Validate() error {
	if i.UUID == "" {
		return ErrInvalidImageID
	}
	if i.URL == "" {
		return ErrInvalidImageURL
	}
	return nil
}

// Domain errors
var (
	ErrInvalidImageID   = errors.New("invalid image id")
	ErrInvalidImageURL  = errors.New("invalid image url")
	ErrImageNotFound    = errors.New("image not found")
	ErrAssetNotFound    = errors.New("asset not found")
	ErrInvalidFormat    = errors.New("invalid image format")
	ErrInvalidObjectFit = errors.New("invalid object fit")
	ErrInvalidEvent     = errors.New("invalid gallery event")
)
