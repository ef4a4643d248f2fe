package library

import (
	"errors"
	"fmt"

	"bitbucket.org/kleinnic74/tourist/domain/gps"
)

var (
	ErrNotFound           = errors.New("Not found")
	ErrInvalidCoordinates = gps.ErrInvalidCoordinates
)

// NotFoundError is returned when an entity does not exist. It matches
// ErrNotFound with errors.Is.
type NotFoundError struct {
	Kind string
	ID   string
}

func NotFound(kind string, id fmt.Stringer) error {
	return NotFoundError{Kind: kind, ID: id.String()}
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("No %s with id %s", e.Kind, e.ID)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError wraps a failure of the underlying storage
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
