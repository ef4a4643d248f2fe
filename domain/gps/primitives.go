package gps

import (
	"math"
	"strconv"
	"strings"
)

// Rect is [x0, y0, x1, y1], i.e. [lonMin, latMin, lonMax, latMax] for geographic rects
type Rect [4]float64

var WorldBounds = Rect{MinLong, MinLat, MaxLong, MaxLat}

func RectFrom(x0, y0, x1, y1 float64) Rect {
	return Rect([4]float64{math.Min(x0, x1), math.Min(y0, y1), math.Max(x0, x1), math.Max(y0, y1)})
}

func (r Rect) W() float64 {
	return r[2] - r[0]
}

func (r Rect) H() float64 {
	return r[3] - r[1]
}

func (r Rect) X0() float64 {
	return r[0]
}

func (r Rect) Y0() float64 {
	return r[1]
}

func (r Rect) X1() float64 {
	return r[2]
}

func (r Rect) Y1() float64 {
	return r[3]
}

// Contains is inclusive on all edges
func (r Rect) Contains(other Rect) bool {
	return other[0] >= r[0] && other[2] <= r[2] && other[1] >= r[1] && other[3] <= r[3]
}

// ClampTo returns the intersection of r with bounds
func (r Rect) ClampTo(bounds Rect) Rect {
	return Rect{
		math.Max(r[0], bounds[0]),
		math.Max(r[1], bounds[1]),
		math.Min(r[2], bounds[2]),
		math.Min(r[3], bounds[3]),
	}
}

// String formats the rect as "x0,y0,x1,y1" with the shortest exact decimal
// representation of each value
func (r Rect) String() string {
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Point is [x, y], i.e. [lon, lat] for geographic points
type Point [2]float64

func PointFromLatLon(lat, lon float64) Point {
	return Point{lon, lat}
}

func (p Point) X() float64 {
	return p[0]
}

func (p Point) Y() float64 {
	return p[1]
}
