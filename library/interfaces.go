package library

import (
	"context"

	"bitbucket.org/kleinnic74/tourist/search"
)

// Store is the persistent storage of markers, their albums and favorites.
// Every mutation is one transaction and publishes its changes after commit.
type Store interface {
	CreateMarker(ctx context.Context, m Marker) error
	GetMarker(ctx context.Context, id MarkerID) (*Marker, error)
	// DeleteMarker removes the marker and all of its photos and returns the
	// deleted photos
	DeleteMarker(ctx context.Context, id MarkerID) ([]Photo, error)
	FindAllMarkers(ctx context.Context) ([]Marker, error)

	DeletePhotos(ctx context.Context, marker MarkerID) ([]Photo, error)
	InsertPhotos(ctx context.Context, marker MarkerID, descriptors []search.Descriptor) ([]Photo, error)
	DeletePhoto(ctx context.Context, marker MarkerID, id PhotoID) (*Photo, error)
	GetPhoto(ctx context.Context, marker MarkerID, id PhotoID) (*Photo, error)
	// FindPhotos returns the album of a marker by ascending photo id
	FindPhotos(ctx context.Context, marker MarkerID) ([]Photo, error)

	AddFavorite(ctx context.Context, f Favorite) (*Favorite, error)
	GetFavorite(ctx context.Context, id FavoriteID) (*Favorite, error)
	DeleteFavorite(ctx context.Context, id FavoriteID) (*Favorite, error)
	// FindFavorites returns all favorites, newest first
	FindFavorites(ctx context.Context) ([]Favorite, error)
}

// ClosableStore is a Store that can be closed
type ClosableStore interface {
	Store

	Close() error
}
