// Package search defines the contract of the remote photo search service and
// the random sampling applied to its results
package search

import (
	"context"

	"bitbucket.org/kleinnic74/tourist/domain/gps"
)

// Descriptor is a photo as returned by the remote search service
type Descriptor struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Searcher finds photos taken inside a geographic bounding box
type Searcher interface {
	Search(ctx context.Context, box gps.Rect) ([]Descriptor, error)
}

// SearcherFunc adapts a function to the Searcher interface
type SearcherFunc func(ctx context.Context, box gps.Rect) ([]Descriptor, error)

func (f SearcherFunc) Search(ctx context.Context, box gps.Rect) ([]Descriptor, error) {
	return f(ctx, box)
}
