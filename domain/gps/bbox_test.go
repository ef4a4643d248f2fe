package gps

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxAround(t *testing.T) {
	data := []struct {
		lat, long float64
		expected  Rect
	}{
		{37.7749, -122.4194, Rect{-122.9194, 37.2749, -121.9194, 38.2749}},
		{90, 0, Rect{-0.5, 89.5, 0.5, 90}},
		{-90, 180, Rect{179.5, -90, 180, -89.5}},
		{0, -180, Rect{-180, -0.5, -179.5, 0.5}},
		{89.8, 179.9, Rect{179.4, 89.3, 180, 90}},
	}
	for _, d := range data {
		t.Run(fmt.Sprintf("%f,%f", d.lat, d.long), func(t *testing.T) {
			box := BoundingBoxAround(MustNewCoordinates(d.lat, d.long), DefaultHalfWidth)
			for i := range box {
				assert.InDelta(t, d.expected[i], box[i], 1e-9, "Bad edge %d", i)
			}
		})
	}
}

func TestBoundingBoxAlwaysValid(t *testing.T) {
	for lat := -90.0; lat <= 90.0; lat += 2.5 {
		for long := -180.0; long <= 180.0; long += 2.5 {
			box := BoundingBoxAround(MustNewCoordinates(lat, long), DefaultHalfWidth)
			if box.X0() > box.X1() || box.Y0() > box.Y1() {
				t.Fatalf("Inverted box for [%f;%f]: %v", lat, long, box)
			}
			if !WorldBounds.Contains(box) {
				t.Fatalf("Box for [%f;%f] outside of world: %v", lat, long, box)
			}
		}
	}
}

func TestNewCoordinatesValidation(t *testing.T) {
	_, err := NewCoordinates(91, 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	_, err = NewCoordinates(0, -180.5)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	_, err = NewCoordinates(math.NaN(), 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	c, err := NewCoordinates(-90, 180)
	assert.NoError(t, err)
	assert.Equal(t, -90.0, c.Lat())
	assert.Equal(t, 180.0, c.Long())
}
