package library

import (
	"time"

	"bitbucket.org/kleinnic74/tourist/domain/gps"
	"github.com/google/uuid"
)

const MarkersCollection = "markers"

// MarkerID is the opaque, stable identity of a Marker
type MarkerID string

func NewMarkerID() MarkerID {
	return MarkerID(uuid.New().String())
}

func (id MarkerID) String() string {
	return string(id)
}

// Marker is a user-placed location owning an album of photos
type Marker struct {
	ID        MarkerID  `json:"id"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Created   time.Time `json:"created"`

	// RecentDrop is only set on the value returned when the marker is created
	RecentDrop bool `json:"recentDrop"`
	// HasAlbum is true when the marker owns at least one photo
	HasAlbum bool `json:"hasAlbum"`
}

func (m Marker) Coordinates() gps.Coordinates {
	return gps.MustNewCoordinates(m.Latitude, m.Longitude)
}

// SearchBox is the area searched for photos of this marker
func (m Marker) SearchBox() gps.Rect {
	return gps.BoundingBoxAround(m.Coordinates(), gps.DefaultHalfWidth)
}
