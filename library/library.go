// Package library holds markers, their photo albums and favorites and
// serializes every change to them on a single writer
package library

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"bitbucket.org/kleinnic74/tourist/domain/gps"
	"bitbucket.org/kleinnic74/tourist/imagecache"
	"bitbucket.org/kleinnic74/tourist/logging"
	"bitbucket.org/kleinnic74/tourist/search"
	"bitbucket.org/kleinnic74/tourist/tasks"
	"go.uber.org/zap"
)

// Library is the entry point for reading and changing markers, albums and
// favorites. Mutations run on the executor, reads go to the store directly.
type Library struct {
	store    Store
	cache    *imagecache.Cache
	loader   *imagecache.Loader
	executor tasks.Executor
	now      func() time.Time
}

func NewLibrary(store Store, cache *imagecache.Cache, fetcher imagecache.Fetcher, executor tasks.Executor) *Library {
	lib := &Library{
		store:    store,
		cache:    cache,
		executor: executor,
		now:      time.Now,
	}
	lib.loader = imagecache.NewLoader(cache, fetcher, executor, lib.ownerExists)
	return lib
}

func (lib *Library) CreateMarker(ctx context.Context, lat, lon float64) (*Marker, error) {
	if _, err := gps.NewCoordinates(lat, lon); err != nil {
		return nil, err
	}
	m := Marker{ID: NewMarkerID(), Latitude: lat, Longitude: lon, Created: lib.now().UTC()}
	err := tasks.Do(ctx, lib.executor, fmt.Sprintf("Create marker %s", m.ID), func(ctx context.Context) error {
		return lib.store.CreateMarker(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	logging.From(ctx).Info("Marker created", zap.Stringer("marker", m.ID), zap.Float64("lat", lat), zap.Float64("lon", lon))
	m.RecentDrop = true
	return &m, nil
}

// DeleteMarker removes the marker, its album and all cached album images
func (lib *Library) DeleteMarker(ctx context.Context, id MarkerID) error {
	return tasks.Do(ctx, lib.executor, fmt.Sprintf("Delete marker %s", id), func(ctx context.Context) error {
		return lib.deleteMarker(ctx, id)
	})
}

func (lib *Library) deleteMarker(ctx context.Context, id MarkerID) error {
	photos, err := lib.store.DeleteMarker(ctx, id)
	if err != nil {
		return err
	}
	lib.cache.DeleteNamespace(PhotoNamespace(id))
	logging.From(ctx).Info("Marker deleted", zap.Stringer("marker", id), zap.Int("photos", len(photos)))
	return nil
}

// DeleteAllMarkers removes every marker with its album. Favorites are kept.
func (lib *Library) DeleteAllMarkers(ctx context.Context) (int, error) {
	count := 0
	err := tasks.Do(ctx, lib.executor, "Delete all markers", func(ctx context.Context) error {
		markers, err := lib.store.FindAllMarkers(ctx)
		if err != nil {
			return err
		}
		for _, m := range markers {
			if err := lib.deleteMarker(ctx, m.ID); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

// ClearAlbum deletes all photos of a marker as one batch
func (lib *Library) ClearAlbum(ctx context.Context, id MarkerID) ([]Photo, error) {
	var deleted []Photo
	err := tasks.Do(ctx, lib.executor, fmt.Sprintf("Clear album of %s", id), func(ctx context.Context) (err error) {
		deleted, err = lib.clearAlbum(ctx, id)
		return
	})
	return deleted, err
}

func (lib *Library) clearAlbum(ctx context.Context, id MarkerID) ([]Photo, error) {
	deleted, err := lib.store.DeletePhotos(ctx, id)
	if err != nil {
		return nil, err
	}
	lib.cache.DeleteNamespace(PhotoNamespace(id))
	return deleted, nil
}

// ReplacePhotoAlbum deletes the current album of a marker and inserts photos
// for the given descriptors. The deletion is committed and published before
// the insertion starts.
func (lib *Library) ReplacePhotoAlbum(ctx context.Context, id MarkerID, descriptors []search.Descriptor) ([]Photo, error) {
	var inserted []Photo
	err := tasks.Do(ctx, lib.executor, fmt.Sprintf("Replace album of %s", id), func(ctx context.Context) error {
		if _, err := lib.clearAlbum(ctx, id); err != nil {
			return err
		}
		if len(descriptors) == 0 {
			inserted = []Photo{}
			return nil
		}
		var err error
		inserted, err = lib.store.InsertPhotos(ctx, id, descriptors)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// AddFavorite stars a photo of a marker's album. The favorite is a copy and
// receives its own copy of the cached image, if any.
func (lib *Library) AddFavorite(ctx context.Context, marker MarkerID, id PhotoID) (*Favorite, error) {
	var added *Favorite
	err := tasks.Do(ctx, lib.executor, fmt.Sprintf("Add favorite %s/%s", marker, id), func(ctx context.Context) error {
		p, err := lib.store.GetPhoto(ctx, marker, id)
		if err != nil {
			return err
		}
		added, err = lib.store.AddFavorite(ctx, NewFavorite(*p, lib.now().UTC()))
		if err != nil {
			return err
		}
		if img, found := lib.cache.Get(p.ImageKey()); found {
			if err := lib.cache.Put(added.ImageKey(), img); err != nil {
				logging.From(ctx).Warn("Failed to copy image to favorite", zap.Stringer("favorite", added.ID), zap.Error(err))
			}
		}
		return nil
	})
	return added, err
}

func (lib *Library) DeletePhoto(ctx context.Context, marker MarkerID, id PhotoID) error {
	return tasks.Do(ctx, lib.executor, fmt.Sprintf("Delete photo %s/%s", marker, id), func(ctx context.Context) error {
		p, err := lib.store.DeletePhoto(ctx, marker, id)
		if err != nil {
			return err
		}
		return lib.cache.Delete(p.ImageKey())
	})
}

func (lib *Library) DeleteFavorite(ctx context.Context, id FavoriteID) error {
	return tasks.Do(ctx, lib.executor, fmt.Sprintf("Delete favorite %s", id), func(ctx context.Context) error {
		f, err := lib.store.DeleteFavorite(ctx, id)
		if err != nil {
			return err
		}
		return lib.cache.Delete(f.ImageKey())
	})
}

func (lib *Library) FetchAllMarkers(ctx context.Context) ([]Marker, error) {
	return lib.store.FindAllMarkers(ctx)
}

func (lib *Library) GetMarker(ctx context.Context, id MarkerID) (*Marker, error) {
	return lib.store.GetMarker(ctx, id)
}

func (lib *Library) FetchPhotos(ctx context.Context, marker MarkerID) ([]Photo, error) {
	return lib.store.FindPhotos(ctx, marker)
}

func (lib *Library) GetPhoto(ctx context.Context, marker MarkerID, id PhotoID) (*Photo, error) {
	return lib.store.GetPhoto(ctx, marker, id)
}

func (lib *Library) FetchFavorites(ctx context.Context) ([]Favorite, error) {
	return lib.store.FindFavorites(ctx)
}

func (lib *Library) GetFavorite(ctx context.Context, id FavoriteID) (*Favorite, error) {
	return lib.store.GetFavorite(ctx, id)
}

// PhotoImage returns the image of a photo, from the cache or downloaded
func (lib *Library) PhotoImage(ctx context.Context, marker MarkerID, id PhotoID) (image.Image, error) {
	p, err := lib.store.GetPhoto(ctx, marker, id)
	if err != nil {
		return nil, err
	}
	return lib.loader.Load(ctx, p.ImageKey(), p.URL)
}

// FavoriteImage returns the image of a favorite, from the cache or downloaded
func (lib *Library) FavoriteImage(ctx context.Context, id FavoriteID) (image.Image, error) {
	f, err := lib.store.GetFavorite(ctx, id)
	if err != nil {
		return nil, err
	}
	return lib.loader.Load(ctx, f.ImageKey(), f.URL)
}

func (lib *Library) CacheStats() imagecache.Stats {
	return lib.cache.Stats()
}

// ownerExists tells the loader whether the entity owning a cache key is
// still in the store
func (lib *Library) ownerExists(ctx context.Context, key imagecache.Key) bool {
	if key.Namespace == favoriteNamespace {
		id, err := ParseFavoriteID(key.Name)
		if err != nil {
			return false
		}
		_, err = lib.store.GetFavorite(ctx, id)
		return err == nil
	}
	marker := strings.TrimPrefix(key.Namespace, "photos/")
	if marker == key.Namespace {
		return false
	}
	id, err := ParsePhotoID(key.Name)
	if err != nil {
		return false
	}
	_, err = lib.store.GetPhoto(ctx, MarkerID(marker), id)
	return err == nil
}
