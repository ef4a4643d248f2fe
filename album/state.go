package album

import (
	"bitbucket.org/kleinnic74/tourist/library"
)

// State is the phase an album synchronization is in
type State string

const (
	Idle       = State("idle")
	Clearing   = State("clearing")
	Fetching   = State("fetching")
	Sampling   = State("sampling")
	Persisting = State("persisting")
	Done       = State("done")
	Failed     = State("failed")
)

const (
	MessageNotFound   = "Data not found"
	MessageUnknown    = "An unknown error has occurred"
	MessageNoPhotos   = "Could not find any photos in that location"
	MessagePersisting = "Could not save the photo album"
)

// Policy decides when the current album of a marker is removed
type Policy int

const (
	// StageThenSwap keeps the current album until a search succeeded
	StageThenSwap Policy = iota
	// ClearFirst removes the album before searching, a failed search leaves
	// the marker without photos
	ClearFirst
)

func (p Policy) String() string {
	if p == ClearFirst {
		return "clear-first"
	}
	return "stage-then-swap"
}

// Result is the outcome of one synchronization. Message is meant for the
// user and only set when State is Failed.
type Result struct {
	Marker  *library.Marker `json:"marker"`
	State   State           `json:"state"`
	Message string          `json:"message,omitempty"`
	Photos  []library.Photo `json:"photos"`
	Err     error           `json:"-"`
}

func (r Result) Failed() bool {
	return r.State == Failed
}
