// Package imagecache implements a two tier image cache: decoded images in a
// bounded memory tier backed by JPEG files on disk
package imagecache

import (
	"context"
	"image"
	"os"

	"bitbucket.org/kleinnic74/tourist/logging"
	"go.uber.org/zap"
)

type Options struct {
	MemoryEntries int
}

type Cache struct {
	stats  *internalStats
	memory *memoryTier
	disk   *diskTier
}

// New creates a cache storing its files below root
func New(root string, o Options) (*Cache, error) {
	disk, err := newDiskTier(root)
	if err != nil {
		return nil, err
	}
	stats := &internalStats{}
	return &Cache{
		stats:  stats,
		memory: newMemoryTier(o.MemoryEntries, stats.eviction),
		disk:   disk,
	}, nil
}

// Get looks up key in the memory tier, then on disk. A disk hit is copied
// into the memory tier. Unreadable files are misses.
func (c *Cache) Get(key Key) (image.Image, bool) {
	if key.Validate() != nil {
		c.stats.miss()
		return nil, false
	}
	if img, found := c.memory.Get(key); found {
		c.stats.hit(false)
		return img, true
	}
	img, err := c.disk.Get(key)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.From(context.Background()).Named("imagecache").Warn("Unreadable cache file",
				zap.Stringer("key", key), zap.Error(err))
		}
		c.stats.miss()
		return nil, false
	}
	c.memory.Put(key, img)
	c.stats.hit(true)
	return img, true
}

// Put stores img in both tiers, a nil img removes the entry
func (c *Cache) Put(key Key, img image.Image) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if img == nil {
		return c.Delete(key)
	}
	c.memory.Put(key, img)
	if err := c.disk.Put(key, img); err != nil {
		return err
	}
	c.stats.write()
	return nil
}

// Delete removes key from both tiers, disk errors are only logged
func (c *Cache) Delete(key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	c.memory.Delete(key)
	if err := c.disk.Delete(key); err != nil {
		logging.From(context.Background()).Named("imagecache").Info("Failed to remove cache file",
			zap.Stringer("key", key), zap.Error(err))
	}
	return nil
}

// DeleteNamespace removes every entry of ns, including nested namespaces
func (c *Cache) DeleteNamespace(ns string) error {
	if err := validateNamespace(ns); err != nil {
		return err
	}
	c.memory.DeleteNamespace(ns)
	if err := c.disk.DeleteNamespace(ns); err != nil {
		logging.From(context.Background()).Named("imagecache").Info("Failed to remove cache directory",
			zap.String("namespace", ns), zap.Error(err))
	}
	return nil
}

// PathFor returns the file backing key on disk
func (c *Cache) PathFor(key Key) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	return c.disk.path(key), nil
}

func (c *Cache) Stats() Stats {
	s := c.stats.snapshot()
	s.MemoryEntries = c.memory.Len()
	return s
}
