package gps_test

import (
	"testing"

	"bitbucket.org/kleinnic74/tourist/domain/gps"
	"github.com/stretchr/testify/assert"
)

func TestCoordinatesAsPoint(t *testing.T) {
	p := gps.MustNewCoordinates(48.5, 16.25).Point()
	assert.Equal(t, 16.25, p.X())
	assert.Equal(t, 48.5, p.Y())
	assert.Equal(t, gps.Point{16.25, 48.5}, gps.PointFromLatLon(48.5, 16.25))
}

func TestRectString(t *testing.T) {
	r := gps.Rect{-122.9194, 37.2749, -121.9194, 38.2749}
	assert.Equal(t, "-122.9194,37.2749,-121.9194,38.2749", r.String())
	assert.Equal(t, "-180,-90,180,90", gps.WorldBounds.String())
}

func TestClampTo(t *testing.T) {
	r := gps.Rect{-200, -95, 10, 20}
	assert.Equal(t, gps.Rect{-180, -90, 10, 20}, r.ClampTo(gps.WorldBounds))
}
