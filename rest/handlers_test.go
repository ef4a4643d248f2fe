package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"bitbucket.org/kleinnic74/tourist/album"
	"bitbucket.org/kleinnic74/tourist/domain/gps"
	"bitbucket.org/kleinnic74/tourist/events"
	"bitbucket.org/kleinnic74/tourist/imagecache"
	"bitbucket.org/kleinnic74/tourist/library"
	"bitbucket.org/kleinnic74/tourist/library/boltstore"
	"bitbucket.org/kleinnic74/tourist/search"
	"bitbucket.org/kleinnic74/tourist/tasks"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

type api struct {
	lib    *library.Library
	router *mux.Router
}

func newAPI(t *testing.T, found int) api {
	dir := t.TempDir()
	db, err := boltstore.Open(dir, boltstore.DefaultName)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := boltstore.NewBoltStore(db, nil)
	require.NoError(t, err)
	cache, err := imagecache.New(filepath.Join(dir, "images"), imagecache.Options{})
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	fetcher := fetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return buf.Bytes(), nil
	})
	lib := library.NewLibrary(store, cache, fetcher, tasks.NewDirectExecutor())

	searcher := search.SearcherFunc(func(ctx context.Context, box gps.Rect) ([]search.Descriptor, error) {
		out := make([]search.Descriptor, found)
		for i := range out {
			out[i] = search.Descriptor{ID: int64(i + 1), Title: fmt.Sprint(i + 1), URL: fmt.Sprintf("https://img/%d.png", i+1)}
		}
		return out, nil
	})
	sync := album.NewSynchronizer(lib, searcher, album.Options{})

	router := mux.NewRouter()
	NewMarkersHandler(lib, sync).InitRoutes(router)
	NewFavoritesHandler(lib).InitRoutes(router)
	NewMapView(lib).InitRoutes(router)
	return api{lib: lib, router: router}
}

func (a api) do(t *testing.T, method, url string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
	}
	res := httptest.NewRecorder()
	a.router.ServeHTTP(res, req)
	return res
}

func (a api) createMarker(t *testing.T) *library.Marker {
	res := a.do(t, http.MethodPost, "/markers", `{"lat": 48.5, "lon": 16.5}`)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var result struct {
		Marker *library.Marker `json:"marker"`
		State  album.State     `json:"state"`
		Photos []library.Photo `json:"photos"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	require.NotNil(t, result.Marker)
	return result.Marker
}

func TestCreateMarkerEndpoint(t *testing.T) {
	a := newAPI(t, 12)
	res := a.do(t, http.MethodPost, "/markers", `{"lat": 48.5, "lon": 16.5}`)
	require.Equal(t, http.StatusCreated, res.Code)

	var result struct {
		Marker  library.Marker  `json:"marker"`
		State   album.State     `json:"state"`
		Message string          `json:"message"`
		Photos  []library.Photo `json:"photos"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	assert.Equal(t, album.Done, result.State)
	assert.Empty(t, result.Message)
	assert.True(t, result.Marker.RecentDrop)
	assert.True(t, result.Marker.HasAlbum)
	assert.Len(t, result.Photos, album.DefaultAlbumSize)

	res = a.do(t, http.MethodGet, "/markers/"+result.Marker.ID.String(), "")
	require.Equal(t, http.StatusOK, res.Code)
	var stored library.Marker
	require.NoError(t, json.NewDecoder(res.Body).Decode(&stored))
	assert.False(t, stored.RecentDrop)
}

func TestCreateMarkerWithoutResults(t *testing.T) {
	a := newAPI(t, 0)
	res := a.do(t, http.MethodPost, "/markers", `{"lat": 10, "lon": 10}`)
	require.Equal(t, http.StatusCreated, res.Code)
	var result struct {
		State   album.State `json:"state"`
		Message string      `json:"message"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	assert.Equal(t, album.Failed, result.State)
	assert.Equal(t, album.MessageNoPhotos, result.Message)
}

func TestCreateMarkerBadInput(t *testing.T) {
	a := newAPI(t, 1)
	data := []struct {
		Body   string
		Status int
	}{
		{`{"lat": 48.5}`, http.StatusBadRequest},
		{`{"lat": 100, "lon": 0}`, http.StatusBadRequest},
		{`{"lat": 0, "lon": -181}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for i, d := range data {
		res := a.do(t, http.MethodPost, "/markers", d.Body)
		assert.Equal(t, d.Status, res.Code, "#%d: %s", i, d.Body)
		assert.Contains(t, res.Body.String(), `"error"`, "#%d", i)
	}
	markers, err := a.lib.FetchAllMarkers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, markers)
}

func TestUnknownResources(t *testing.T) {
	a := newAPI(t, 3)
	m := a.createMarker(t)
	data := []struct {
		Method string
		URL    string
		Status int
	}{
		{http.MethodGet, "/markers/nope", http.StatusNotFound},
		{http.MethodDelete, "/markers/nope", http.StatusNotFound},
		{http.MethodPost, "/markers/nope/album", http.StatusNotFound},
		{http.MethodGet, "/markers/nope/photos", http.StatusNotFound},
		{http.MethodGet, "/markers/" + m.ID.String() + "/photos/999", http.StatusNotFound},
		{http.MethodGet, "/markers/" + m.ID.String() + "/photos/abc", http.StatusBadRequest},
		{http.MethodGet, "/favorites/42", http.StatusNotFound},
		{http.MethodGet, "/favorites/abc", http.StatusBadRequest},
	}
	for i, d := range data {
		res := a.do(t, d.Method, d.URL, "")
		assert.Equal(t, d.Status, res.Code, "#%d: %s %s", i, d.Method, d.URL)
	}
}

func TestPhotoImageAndFavorite(t *testing.T) {
	a := newAPI(t, 3)
	m := a.createMarker(t)
	photos, err := a.lib.FetchPhotos(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, photos, 3)
	photoURL := fmt.Sprintf("/markers/%s/photos/%s", m.ID, photos[0].ID)

	res := a.do(t, http.MethodGet, photoURL+"/image", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "image/jpeg", res.Header().Get("Content-Type"))
	_, _, err = image.Decode(res.Body)
	assert.NoError(t, err)

	res = a.do(t, http.MethodPost, photoURL+"/favorite", "")
	require.Equal(t, http.StatusCreated, res.Code)
	var fav library.Favorite
	require.NoError(t, json.NewDecoder(res.Body).Decode(&fav))
	assert.Equal(t, photos[0].ID, fav.PhotoID)

	res = a.do(t, http.MethodDelete, photoURL, "")
	assert.Equal(t, http.StatusNoContent, res.Code)

	res = a.do(t, http.MethodGet, "/favorites", "")
	require.Equal(t, http.StatusOK, res.Code)
	var listed struct {
		Data []library.Favorite `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, fav.ID, listed.Data[0].ID)

	res = a.do(t, http.MethodGet, fmt.Sprintf("/favorites/%s/image", fav.ID), "")
	assert.Equal(t, http.StatusOK, res.Code)

	res = a.do(t, http.MethodDelete, fmt.Sprintf("/favorites/%s", fav.ID), "")
	assert.Equal(t, http.StatusNoContent, res.Code)
	res = a.do(t, http.MethodGet, fmt.Sprintf("/favorites/%s", fav.ID), "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestDeleteAllMarkersEndpoint(t *testing.T) {
	a := newAPI(t, 2)
	a.createMarker(t)
	a.createMarker(t)

	res := a.do(t, http.MethodDelete, "/markers", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"deleted": 2}`, res.Body.String())

	res = a.do(t, http.MethodGet, "/markers", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"data": []}`, res.Body.String())
}

func TestMapView(t *testing.T) {
	a := newAPI(t, 1)
	m := a.createMarker(t)

	for _, url := range []string{"/map.svg", "/map.svg?fit=true"} {
		res := a.do(t, http.MethodGet, url, "")
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "image/svg+xml", res.Header().Get("Content-Type"))
		body := res.Body.String()
		assert.Contains(t, body, "<svg")
		assert.Contains(t, body, m.ID.String())
		assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "</svg>"))
	}
}

func TestWriteBatch(t *testing.T) {
	var buf bytes.Buffer
	b := events.Batch{
		Seq:        7,
		Collection: "markers",
		Changes:    []events.Change{{Kind: events.Delete, ID: "a", OldIndex: 0}},
	}
	require.NoError(t, writeBatch(&buf, b))
	frames := strings.Split(strings.TrimSuffix(buf.String(), "\n\n"), "\n\n")
	require.Len(t, frames, 3)
	assert.True(t, strings.HasPrefix(frames[0], "event: begin\nid: 7\ndata: "))
	assert.Contains(t, frames[0], `"count":1`)
	assert.True(t, strings.HasPrefix(frames[1], "event: change\nid: 7\ndata: "))
	assert.True(t, strings.HasPrefix(frames[2], "event: end\nid: 7\ndata: "))
}
