package imagecache

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidKey = errors.New("Invalid cache key")

// Key identifies a cached image. Namespace may contain '/' separated
// segments, Name is a single segment.
type Key struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

func (k Key) String() string {
	return k.Namespace + "/" + k.Name
}

func (k Key) Validate() error {
	if err := validateNamespace(k.Namespace); err != nil {
		return err
	}
	if !validSegment(k.Name) {
		return fmt.Errorf("%w: bad name '%s'", ErrInvalidKey, k.Name)
	}
	return nil
}

func validateNamespace(ns string) error {
	if ns == "" {
		return fmt.Errorf("%w: empty namespace", ErrInvalidKey)
	}
	for _, segment := range strings.Split(ns, "/") {
		if !validSegment(segment) {
			return fmt.Errorf("%w: bad namespace '%s'", ErrInvalidKey, ns)
		}
	}
	return nil
}

func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\:\x00")
}
