package source

import "context"

// Item is one unit of captioning work: an image on disk paired with the
// prompt that produced it.
type Item struct {
	ID            string // identifier recorded in the output CSV
	Prompt        string // generation prompt paired with the image
	ImagePath     string // local path to the image file
	ImageFilename string // basename recorded in the output CSV
}

// Source defines the interface for captioning work-item sources.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	GetSourceID() string

	// LoadItems scans the source and returns the full work queue in the
	// order it should be processed. The queue for one run is bounded (a few
	// hundred items), so sources load eagerly rather than paginate.
	LoadItems(ctx context.Context) ([]Item, error)
}
