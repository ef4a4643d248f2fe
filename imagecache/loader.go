package imagecache

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"bitbucket.org/kleinnic74/tourist/logging"
	"bitbucket.org/kleinnic74/tourist/tasks"
	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	_ "golang.org/x/image/webp"
)

// Fetcher retrieves the binary content found at url
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// UnsupportedContentError is returned when fetched content is not an image
type UnsupportedContentError struct {
	MIME string
}

func (e UnsupportedContentError) Error() string {
	if e.MIME == "" {
		return "Fetched content is not a known file type"
	}
	return fmt.Sprintf("Fetched content is not an image but '%s'", e.MIME)
}

// KeepFunc reports whether a freshly fetched image for key should still be
// stored. It runs on the executor, serialized with all other writes.
type KeepFunc func(ctx context.Context, key Key) bool

// Loader returns images from the cache, fetching and storing them on a miss.
// Concurrent loads of the same key share one fetch.
type Loader struct {
	cache    *Cache
	fetcher  Fetcher
	executor tasks.Executor
	keep     KeepFunc
	group    singleflight.Group
}

func NewLoader(cache *Cache, fetcher Fetcher, executor tasks.Executor, keep KeepFunc) *Loader {
	return &Loader{cache: cache, fetcher: fetcher, executor: executor, keep: keep}
}

func (l *Loader) Load(ctx context.Context, key Key, url string) (image.Image, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if img, found := l.cache.Get(key); found {
		return img, nil
	}
	ch := l.group.DoChan(key.String(), func() (interface{}, error) {
		return l.fetch(context.WithoutCancel(ctx), key, url)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) fetch(ctx context.Context, key Key, url string) (image.Image, error) {
	log, ctx := logging.FromWithNameAndFields(ctx, "loader", zap.Stringer("key", key))
	data, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if !filetype.IsImage(data) {
		kind, _ := filetype.Match(data)
		return nil, UnsupportedContentError{MIME: kind.MIME.Value}
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", key, err)
	}
	err = tasks.Do(ctx, l.executor, fmt.Sprintf("Caching image %s", key), func(ctx context.Context) error {
		if l.keep != nil && !l.keep(ctx, key) {
			log.Debug("Owner gone, not caching image")
			return nil
		}
		return l.cache.Put(key, img)
	})
	if err != nil {
		log.Warn("Failed to cache image", zap.Error(err))
	}
	return img, nil
}
