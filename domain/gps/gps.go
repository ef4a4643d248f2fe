package gps

import (
	"errors"
	"fmt"
)

const (
	MinLat  = -90.0
	MaxLat  = 90.0
	MinLong = -180.0
	MaxLong = 180.0
)

var ErrInvalidCoordinates = errors.New("Coordinates out of range")

// Coordinates is a validated WGS84 position in degrees
type Coordinates struct {
	lat  float64
	long float64
}

// NewCoordinates returns the coordinates for lat/long or ErrInvalidCoordinates
// if one of them is outside of its valid range
func NewCoordinates(lat, long float64) (Coordinates, error) {
	if !ValidLatLong(lat, long) {
		return Coordinates{}, fmt.Errorf("%w: lat=%f, long=%f", ErrInvalidCoordinates, lat, long)
	}
	return Coordinates{lat: lat, long: long}, nil
}

func MustNewCoordinates(lat, long float64) Coordinates {
	c, err := NewCoordinates(lat, long)
	if err != nil {
		panic(err)
	}
	return c
}

// ValidLatLong checks the ranges, NaN is never valid
func ValidLatLong(lat, long float64) bool {
	return lat >= MinLat && lat <= MaxLat && long >= MinLong && long <= MaxLong
}

func (c Coordinates) Lat() float64 {
	return c.lat
}

func (c Coordinates) Long() float64 {
	return c.long
}

func (c Coordinates) Point() Point {
	return PointFromLatLon(c.lat, c.long)
}

func (c Coordinates) String() string {
	return fmt.Sprintf("[%f;%f]", c.lat, c.long)
}
