package gps

// DefaultHalfWidth is the distance in degrees from a marker to each edge of
// its search box
const DefaultHalfWidth = 0.5

// BoundingBoxAround returns the box extending halfWidth degrees in every
// direction from c, clamped to the valid coordinate ranges. The box never
// wraps around the antimeridian.
func BoundingBoxAround(c Coordinates, halfWidth float64) Rect {
	if halfWidth < 0 {
		halfWidth = -halfWidth
	}
	box := Rect{
		c.long - halfWidth,
		c.lat - halfWidth,
		c.long + halfWidth,
		c.lat + halfWidth,
	}
	return box.ClampTo(WorldBounds)
}
