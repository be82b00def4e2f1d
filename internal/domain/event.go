package domain

import "fmt"

// EventType names a message on the gallery event feed
type EventType string

const (
	EventImageAdded          EventType = "image_added"
	EventIntermediateSet     EventType = "intermediate_set"
	EventIntermediateCleared EventType = "intermediate_cleared"
	EventImageRemoved        EventType = "image_removed"
)

// Event is a single entry of the generation feed. Image is set for
// image_added and intermediate_set, UUID for image_removed.
type Event struct {
	Type  EventType `json:"type"`
	Image *Image    `json:"image,omitempty"`
	UUID  string    `json:"uuid,omitempty"`
}

func (e Event) Validate() error {
	switch e.Type {
	case EventImageAdded, EventIntermediateSet:
		if e.Image == nil {
			return fmt.Errorf("%w: %s without image", ErrInvalidEvent, e.Type)
		}
		if err := e.Image.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
	case EventImageRemoved:
		if e.UUID == "" {
			return fmt.Errorf("%w: %s without uuid", ErrInvalidEvent, e.Type)
		}
	case EventIntermediateCleared:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	return nil
}
