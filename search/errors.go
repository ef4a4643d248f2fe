package search

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResult is returned when a search succeeded without any usable photo
var ErrEmptyResult = errors.New("No photos found")

// TransportError is a failure to reach the remote service at all
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Connection could not be established: %s", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type StatusKind int

const (
	UnknownStatus = StatusKind(iota)
	BadRequest
	Forbidden
	NotFound
)

func (k StatusKind) String() string {
	switch k {
	case BadRequest:
		return "bad request"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// HTTPStatusError is returned for any non-2xx response
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Kind() StatusKind {
	switch e.Code {
	case http.StatusBadRequest:
		return BadRequest
	case http.StatusForbidden:
		return Forbidden
	case http.StatusNotFound:
		return NotFound
	default:
		return UnknownStatus
	}
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("Request returned status code %d (%s)", e.Code, e.Kind())
}

// DecodeError is returned when the response is not the expected JSON document
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// APIError is a well-formed response reporting a failure
type APIError struct {
	Stat    string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("Remote API returned an error (stat=%s, code=%d): %s", e.Stat, e.Code, e.Message)
	}
	return fmt.Sprintf("Remote API returned an error (stat=%s)", e.Stat)
}

// IsNotFound reports whether err is, or wraps, an HTTP 404 response
func IsNotFound(err error) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.Kind() == NotFound
}
