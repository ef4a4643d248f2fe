package imagecache

import (
	"errors"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const JPEGQuality = 90

type diskTier struct {
	root string
}

func newDiskTier(root string) (*diskTier, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	return &diskTier{root: root}, nil
}

func (d *diskTier) path(key Key) string {
	return filepath.Join(d.root, filepath.FromSlash(key.Namespace), key.Name+".jpg")
}

func (d *diskTier) Get(key Key) (image.Image, error) {
	return imaging.Open(d.path(key))
}

// Put encodes img as JPEG into a temporary file next to the final path and
// renames it into place
func (d *diskTier) Put(key Key, img image.Image) error {
	target := d.path(key)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*.jpg")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (d *diskTier) Delete(key Key) error {
	err := os.Remove(d.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (d *diskTier) DeleteNamespace(ns string) error {
	return os.RemoveAll(filepath.Join(d.root, filepath.FromSlash(ns)))
}
