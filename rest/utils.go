package rest

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"

	"bitbucket.org/kleinnic74/tourist/imagecache"
	"bitbucket.org/kleinnic74/tourist/library"
	"bitbucket.org/kleinnic74/tourist/search"
	"github.com/disintegration/imaging"
)

type Responder interface {
	WithJSON(http.ResponseWriter, int, interface{})
	WithError(http.ResponseWriter, int, error)
}

type encoderFunc func(*json.Encoder) *json.Encoder

type responder struct {
	encoderOptions encoderFunc
}

var (
	pretty  Responder
	compact Responder
)

func init() {
	pretty = responder{func(encoder *json.Encoder) *json.Encoder {
		encoder.SetIndent("", "  ")
		return encoder
	}}
	compact = responder{func(e *json.Encoder) *json.Encoder { return e }}
}

func Respond(r *http.Request) Responder {
	if r.URL.Query().Get("pretty") == "true" {
		return pretty
	}
	return compact
}

func (r responder) WithError(w http.ResponseWriter, status int, err error) {
	r.WithJSON(w, status, map[string]string{"error": err.Error()})
}

func (r responder) WithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := r.encoderOptions(json.NewEncoder(w))
	encoder.Encode(payload)
}

func respondWithImage(w http.ResponseWriter, img image.Image) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "max-age=86400")
	w.WriteHeader(http.StatusOK)
	imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(imagecache.JPEGQuality))
}

type simplePayload struct {
	Data interface{} `json:"data"`
}

// statusFor maps an error to the HTTP status reported to the client
func statusFor(err error) int {
	var (
		persistence *library.PersistenceError
		transport   *search.TransportError
		status      *search.HTTPStatusError
		decode      *search.DecodeError
		api         *search.APIError
		unsupported imagecache.UnsupportedContentError
	)
	switch {
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrInvalidCoordinates), errors.Is(err, imagecache.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.As(err, &persistence):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &transport), errors.As(err, &status), errors.As(err, &decode),
		errors.As(err, &api), errors.As(err, &unsupported):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondWithFailure(w http.ResponseWriter, r *http.Request, err error) {
	Respond(r).WithError(w, statusFor(err), err)
}
