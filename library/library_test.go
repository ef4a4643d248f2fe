package library_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"bitbucket.org/kleinnic74/tourist/imagecache"
	"bitbucket.org/kleinnic74/tourist/library"
	"bitbucket.org/kleinnic74/tourist/library/boltstore"
	"bitbucket.org/kleinnic74/tourist/search"
	"bitbucket.org/kleinnic74/tourist/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func pngFetcher(t *testing.T) fetcherFunc {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return func(ctx context.Context, url string) ([]byte, error) {
		return buf.Bytes(), nil
	}
}

func newLibrary(t *testing.T) (*library.Library, *imagecache.Cache) {
	dir := t.TempDir()
	db, err := boltstore.Open(dir, boltstore.DefaultName)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := boltstore.NewBoltStore(db, nil)
	require.NoError(t, err)
	cache, err := imagecache.New(filepath.Join(dir, "images"), imagecache.Options{})
	require.NoError(t, err)
	return library.NewLibrary(store, cache, pngFetcher(t), tasks.NewDirectExecutor()), cache
}

func descriptors(ids ...int64) []search.Descriptor {
	out := make([]search.Descriptor, len(ids))
	for i, id := range ids {
		out[i] = search.Descriptor{ID: id, Title: fmt.Sprint(id), URL: fmt.Sprintf("https://img/%d.png", id)}
	}
	return out
}

func TestCreateMarkerValidates(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()
	for _, c := range [][2]float64{{91, 0}, {-90.5, 0}, {0, 180.01}, {0, -181}} {
		_, err := lib.CreateMarker(ctx, c[0], c[1])
		assert.True(t, errors.Is(err, library.ErrInvalidCoordinates), "Expected invalid coordinates for %v", c)
	}
	m, err := lib.CreateMarker(ctx, 90, -180)
	require.NoError(t, err)
	assert.True(t, m.RecentDrop)

	stored, err := lib.GetMarker(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, stored.RecentDrop)
}

func TestReplaceAlbumEvictsOldImages(t *testing.T) {
	lib, cache := newLibrary(t)
	ctx := context.Background()
	m, err := lib.CreateMarker(ctx, 48.2, 16.4)
	require.NoError(t, err)
	_, err = lib.ReplacePhotoAlbum(ctx, m.ID, descriptors(1, 2))
	require.NoError(t, err)

	_, err = lib.PhotoImage(ctx, m.ID, 1)
	require.NoError(t, err)
	_, found := cache.Get(library.PhotoImageKey(m.ID, 1))
	require.True(t, found)

	photos, err := lib.ReplacePhotoAlbum(ctx, m.ID, descriptors(3))
	require.NoError(t, err)
	assert.Len(t, photos, 1)
	_, found = cache.Get(library.PhotoImageKey(m.ID, 1))
	assert.False(t, found)

	photos, err = lib.FetchPhotos(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, library.PhotoID(3), photos[0].ID)
}

func TestFavoriteSurvivesPhotoDeletion(t *testing.T) {
	lib, cache := newLibrary(t)
	ctx := context.Background()
	m, err := lib.CreateMarker(ctx, 10, 10)
	require.NoError(t, err)
	_, err = lib.ReplacePhotoAlbum(ctx, m.ID, descriptors(5))
	require.NoError(t, err)
	_, err = lib.PhotoImage(ctx, m.ID, 5)
	require.NoError(t, err)

	f, err := lib.AddFavorite(ctx, m.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, library.PhotoID(5), f.PhotoID)
	assert.Equal(t, "https://img/5.png", f.URL)
	_, found := cache.Get(f.ImageKey())
	assert.True(t, found, "Favorite must receive a copy of the cached image")

	require.NoError(t, lib.DeletePhoto(ctx, m.ID, 5))
	_, found = cache.Get(library.PhotoImageKey(m.ID, 5))
	assert.False(t, found)
	_, found = cache.Get(f.ImageKey())
	assert.True(t, found)

	require.NoError(t, lib.DeleteMarker(ctx, m.ID))
	favorites, err := lib.FetchFavorites(ctx)
	require.NoError(t, err)
	assert.Len(t, favorites, 1)

	require.NoError(t, lib.DeleteFavorite(ctx, f.ID))
	_, found = cache.Get(f.ImageKey())
	assert.False(t, found)
}

func TestFavoriteImageLoadedOnDemand(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()
	m, err := lib.CreateMarker(ctx, 10, 10)
	require.NoError(t, err)
	_, err = lib.ReplacePhotoAlbum(ctx, m.ID, descriptors(5))
	require.NoError(t, err)
	f, err := lib.AddFavorite(ctx, m.ID, 5)
	require.NoError(t, err)

	img, err := lib.FavoriteImage(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
}

func TestImageOfUnknownPhoto(t *testing.T) {
	lib, cache := newLibrary(t)
	ctx := context.Background()
	_, err := lib.PhotoImage(ctx, library.NewMarkerID(), 1)
	assert.True(t, errors.Is(err, library.ErrNotFound))
	assert.Equal(t, 0, cache.Stats().Writes)
}

func TestDeleteAllMarkers(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		m, err := lib.CreateMarker(ctx, float64(i), float64(i))
		require.NoError(t, err)
		_, err = lib.ReplacePhotoAlbum(ctx, m.ID, descriptors(int64(i+1)))
		require.NoError(t, err)
	}
	count, err := lib.DeleteAllMarkers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	markers, err := lib.FetchAllMarkers(ctx)
	require.NoError(t, err)
	assert.Empty(t, markers)
}

func TestClearAlbum(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()
	m, err := lib.CreateMarker(ctx, 1, 1)
	require.NoError(t, err)
	_, err = lib.ReplacePhotoAlbum(ctx, m.ID, descriptors(1, 2, 3))
	require.NoError(t, err)

	deleted, err := lib.ClearAlbum(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, deleted, 3)
	stored, err := lib.GetMarker(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasAlbum)
}

func loadAlbumImages(t *testing.T, lib *library.Library, m library.MarkerID, ids ...int64) {
	ctx := context.Background()
	_, err := lib.ReplacePhotoAlbum(ctx, m, descriptors(ids...))
	require.NoError(t, err)
	for _, id := range ids {
		_, err := lib.PhotoImage(ctx, m, library.PhotoID(id))
		require.NoError(t, err)
	}
}

func assertEvicted(t *testing.T, cache *imagecache.Cache, m library.MarkerID, ids ...int64) {
	for _, id := range ids {
		key := library.PhotoImageKey(m, library.PhotoID(id))
		_, found := cache.Get(key)
		assert.False(t, found, "%s still cached", key)
		path, err := cache.PathFor(key)
		require.NoError(t, err)
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err), "%s still on disk", path)
	}
}

func TestDeleteMarkerEvictsAlbumImages(t *testing.T) {
	lib, cache := newLibrary(t)
	ctx := context.Background()
	m, err := lib.CreateMarker(ctx, 10, 10)
	require.NoError(t, err)
	other, err := lib.CreateMarker(ctx, 11, 11)
	require.NoError(t, err)
	loadAlbumImages(t, lib, m.ID, 1, 2, 3)
	loadAlbumImages(t, lib, other.ID, 1)

	key := library.PhotoImageKey(m.ID, 2)
	_, found := cache.Get(key)
	require.True(t, found)

	require.NoError(t, lib.DeleteMarker(ctx, m.ID))
	assertEvicted(t, cache, m.ID, 1, 2, 3)
	_, found = cache.Get(library.PhotoImageKey(other.ID, 1))
	assert.True(t, found, "Images of other markers must stay cached")
}

func TestDeleteAllMarkersEvictsAlbumImages(t *testing.T) {
	lib, cache := newLibrary(t)
	ctx := context.Background()
	var markers []library.MarkerID
	for i := 0; i < 2; i++ {
		m, err := lib.CreateMarker(ctx, float64(i), float64(i))
		require.NoError(t, err)
		loadAlbumImages(t, lib, m.ID, 7, 8)
		markers = append(markers, m.ID)
	}
	_, err := lib.DeleteAllMarkers(ctx)
	require.NoError(t, err)
	for _, m := range markers {
		assertEvicted(t, cache, m, 7, 8)
	}
}

func TestReplaceAlbumDropsDuplicateIDs(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()
	m, err := lib.CreateMarker(ctx, 1, 1)
	require.NoError(t, err)
	photos, err := lib.ReplacePhotoAlbum(ctx, m.ID, descriptors(4, 2, 4, 2, 9))
	require.NoError(t, err)
	ids := make([]library.PhotoID, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	assert.Equal(t, []library.PhotoID{2, 4, 9}, ids)
}
