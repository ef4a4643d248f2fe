// Package flickr implements photo search and image download against the
// Flickr REST API
package flickr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bitbucket.org/kleinnic74/tourist/domain/gps"
	"bitbucket.org/kleinnic74/tourist/logging"
	"bitbucket.org/kleinnic74/tourist/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://api.flickr.com/services/rest/"
	DefaultPageSize = 250
	DefaultTimeout  = 15 * time.Second

	methodPhotoSearch = "flickr.photos.search"
	sortOrder         = "interestingness-desc"
	mediumURLExtra    = "url_m"
	userAgent         = "Tourist/0.1"

	maxImageSize = 32 << 20
)

var (
	requestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "flickr",
		Name:      "requests_total",
		Help:      "Total number of requests sent to Flickr",
	}, []string{"kind"})
	errorCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "flickr",
		Name:      "errors_total",
		Help:      "Total number of failed Flickr requests",
	}, []string{"kind"})
)

// Options configure a Client, zero values are replaced by defaults
type Options struct {
	APIKey   string
	BaseURL  string
	PageSize int
	Timeout  time.Duration
}

// Client searches photos through the Flickr REST API and downloads their
// binary content. It is stateless and safe for concurrent use.
type Client struct {
	apiKey   string
	baseURL  string
	pageSize int
	client   *http.Client
}

func NewClient(o Options) *Client {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return NewClientWithHTTP(&http.Client{Timeout: o.Timeout}, o)
}

func NewClientWithHTTP(client *http.Client, o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.PageSize <= 0 || o.PageSize > DefaultPageSize {
		o.PageSize = DefaultPageSize
	}
	return &Client{
		apiKey:   o.APIKey,
		baseURL:  o.BaseURL,
		pageSize: o.PageSize,
		client:   client,
	}
}

type flexID string

// Flickr sends ids as strings, tolerate numbers as well
func (id *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}

type photo struct {
	ID    flexID `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url_m"`
}

type photos struct {
	Photo *[]photo `json:"photo"`
}

type envelope struct {
	Stat    string  `json:"stat"`
	Code    int     `json:"code"`
	Message string  `json:"message"`
	Photos  *photos `json:"photos"`
}

func (c *Client) searchURL(box gps.Rect) string {
	params := url.Values{}
	params.Set("method", methodPhotoSearch)
	params.Set("api_key", c.apiKey)
	params.Set("bbox", box.String())
	params.Set("safe_search", "1")
	params.Set("extras", mediumURLExtra)
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")
	params.Set("per_page", strconv.Itoa(c.pageSize))
	params.Set("sort", sortOrder)
	return c.baseURL + "?" + params.Encode()
}

// Search returns the photos inside box, sorted by descending interestingness
func (c *Client) Search(ctx context.Context, box gps.Rect) (descriptors []search.Descriptor, err error) {
	logger, ctx := logging.FromWithNameAndFields(ctx, "flickr", zap.Stringer("bbox", box))
	requestCount.WithLabelValues("search").Inc()
	defer func() {
		if err != nil {
			errorCount.WithLabelValues("search").Inc()
			logger.Info("Search failed", zap.Error(err))
		}
	}()

	data, err := c.get(ctx, c.searchURL(box))
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &search.DecodeError{Reason: "Failed parsing JSON data", Err: err}
	}
	if env.Stat != "ok" {
		return nil, &search.APIError{Stat: env.Stat, Code: env.Code, Message: env.Message}
	}
	if env.Photos == nil {
		return nil, &search.DecodeError{Reason: "Could not find photos key in data"}
	}
	if env.Photos.Photo == nil {
		return nil, &search.DecodeError{Reason: "Could not find photo key in data"}
	}
	candidates := *env.Photos.Photo
	descriptors = make([]search.Descriptor, 0, len(candidates))
	for _, p := range candidates {
		id, err := strconv.ParseInt(string(p.ID), 10, 64)
		if err != nil {
			logger.Debug("Skipping photo with non-numeric id", zap.String("id", string(p.ID)))
			continue
		}
		if p.URL == "" {
			logger.Debug("Skipping photo without medium size URL", zap.Int64("id", id))
			continue
		}
		descriptors = append(descriptors, search.Descriptor{ID: id, Title: p.Title, URL: p.URL})
	}
	logger.Debug("Search done", zap.Int("candidates", len(candidates)), zap.Int("usable", len(descriptors)))
	return descriptors, nil
}

// Fetch downloads the binary content at the given URL
func (c *Client) Fetch(ctx context.Context, imageURL string) (data []byte, err error) {
	requestCount.WithLabelValues("fetch").Inc()
	defer func() {
		if err != nil {
			errorCount.WithLabelValues("fetch").Inc()
		}
	}()
	return c.get(ctx, imageURL)
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &search.TransportError{Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	res, err := c.client.Do(req)
	if err != nil {
		return nil, &search.TransportError{Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, &search.HTTPStatusError{Code: res.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageSize+1))
	if err != nil {
		return nil, &search.TransportError{Err: err}
	}
	if len(data) > maxImageSize {
		return nil, &search.TransportError{Err: errors.New("Response too large")}
	}
	if len(data) == 0 {
		return nil, &search.DecodeError{Reason: "Request returned no data"}
	}
	return data, nil
}

func (c *Client) String() string {
	return fmt.Sprintf("flickr(%s, pageSize=%d)", c.baseURL, c.pageSize)
}
