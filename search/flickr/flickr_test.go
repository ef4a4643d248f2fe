package flickr

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitbucket.org/kleinnic74/tourist/domain/gps"
	"bitbucket.org/kleinnic74/tourist/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okResponse = `{"photos":{"page":1,"pages":1,"perpage":250,"total":3,"photo":[
{"id":"52000000001","owner":"x","title":"Harbour","url_m":"https://live.staticflickr.com/1/52000000001_m.jpg"},
{"id":"52000000002","owner":"x","title":"No medium size"},
{"id":"abc","owner":"x","title":"Broken id","url_m":"https://live.staticflickr.com/1/abc_m.jpg"},
{"id":52000000003,"owner":"x","title":"Numeric id","url_m":"https://live.staticflickr.com/1/52000000003_m.jpg"}
]},"stat":"ok"}`

func TestSearchRequestParameters(t *testing.T) {
	var query map[string][]string
	testClient := newTestClient(func(r *http.Request) *http.Response {
		query = r.URL.Query()
		return respond(http.StatusOK, okResponse)
	})
	c := NewClientWithHTTP(testClient, Options{APIKey: "secret", BaseURL: "http://flickr.test/rest/"})
	box := gps.BoundingBoxAround(gps.MustNewCoordinates(48.5, 16.5), gps.DefaultHalfWidth)
	_, err := c.Search(context.Background(), box)
	require.NoError(t, err)

	expected := map[string]string{
		"method":         "flickr.photos.search",
		"api_key":        "secret",
		"bbox":           "16,48,17,49",
		"safe_search":    "1",
		"extras":         "url_m",
		"format":         "json",
		"nojsoncallback": "1",
		"per_page":       "250",
		"sort":           "interestingness-desc",
	}
	for k, v := range expected {
		assert.Equal(t, []string{v}, query[k], "Bad value for parameter %s", k)
	}
}

func TestSearchSkipsUnusablePhotos(t *testing.T) {
	testClient := newTestClient(func(r *http.Request) *http.Response {
		return respond(http.StatusOK, okResponse)
	})
	c := NewClientWithHTTP(testClient, Options{})
	descriptors, err := c.Search(context.Background(), gps.RectFrom(0, 0, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, []search.Descriptor{
		{ID: 52000000001, Title: "Harbour", URL: "https://live.staticflickr.com/1/52000000001_m.jpg"},
		{ID: 52000000003, Title: "Numeric id", URL: "https://live.staticflickr.com/1/52000000003_m.jpg"},
	}, descriptors)
}

func TestSearchEmptyResult(t *testing.T) {
	testClient := newTestClient(func(r *http.Request) *http.Response {
		return respond(http.StatusOK, `{"photos":{"page":1,"pages":0,"perpage":250,"total":0,"photo":[]},"stat":"ok"}`)
	})
	c := NewClientWithHTTP(testClient, Options{})
	descriptors, err := c.Search(context.Background(), gps.RectFrom(0, 0, 1, 1))
	require.NoError(t, err)
	assert.NotNil(t, descriptors)
	assert.Empty(t, descriptors)
}

func TestSearchErrors(t *testing.T) {
	data := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"not found", http.StatusNotFound, "", func(t *testing.T, err error) {
			assert.True(t, search.IsNotFound(err))
		}},
		{"server error", http.StatusInternalServerError, "", func(t *testing.T, err error) {
			var statusErr *search.HTTPStatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, 500, statusErr.Code)
			assert.Equal(t, search.UnknownStatus, statusErr.Kind())
		}},
		{"bad json", http.StatusOK, "{not json", func(t *testing.T, err error) {
			var decodeErr *search.DecodeError
			assert.True(t, errors.As(err, &decodeErr))
		}},
		{"no photos key", http.StatusOK, `{"stat":"ok"}`, func(t *testing.T, err error) {
			var decodeErr *search.DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, "Could not find photos key in data", decodeErr.Reason)
		}},
		{"no photo key", http.StatusOK, `{"photos":{"page":1},"stat":"ok"}`, func(t *testing.T, err error) {
			var decodeErr *search.DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, "Could not find photo key in data", decodeErr.Reason)
		}},
		{"api failure", http.StatusOK, `{"stat":"fail","code":100,"message":"Invalid API Key (Key has invalid format)"}`, func(t *testing.T, err error) {
			var apiErr *search.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "fail", apiErr.Stat)
			assert.Equal(t, 100, apiErr.Code)
			assert.Equal(t, "Invalid API Key (Key has invalid format)", apiErr.Message)
		}},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			testClient := newTestClient(func(r *http.Request) *http.Response {
				return respond(d.status, d.body)
			})
			c := NewClientWithHTTP(testClient, Options{})
			descriptors, err := c.Search(context.Background(), gps.RectFrom(0, 0, 1, 1))
			require.Error(t, err)
			assert.Nil(t, descriptors)
			d.check(t, err)
		})
	}
}

func TestSearchTransportError(t *testing.T) {
	testClient := &http.Client{Transport: failingTransport{errors.New("connection refused")}}
	c := NewClientWithHTTP(testClient, Options{})
	_, err := c.Search(context.Background(), gps.RectFrom(0, 0, 1, 1))
	var transportErr *search.TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestSearchHonorsDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Search(ctx, gps.RectFrom(0, 0, 1, 1))
	var transportErr *search.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestFetch(t *testing.T) {
	content := []byte{0xff, 0xd8, 0xff, 0xe0, 1, 2, 3}
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		if r.URL.Path == "/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(content)
	}))
	defer server.Close()

	c := NewClient(Options{})
	data, err := c.Fetch(context.Background(), server.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/photo.jpg", requestedPath)
	assert.Equal(t, content, data)

	_, err = c.Fetch(context.Background(), server.URL+"/missing.jpg")
	assert.True(t, search.IsNotFound(err))
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

type RoundTripperFunc func(*http.Request) *http.Response

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func newTestClient(roundTripFunc RoundTripperFunc) *http.Client {
	return &http.Client{
		Transport: roundTripFunc,
	}
}

type failingTransport struct {
	err error
}

func (f failingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return nil, f.err
}
