package geometry

// AABB is an axis-aligned bounding box, Min is the lower-left corner.
type AABB struct {
	Min Vector2D
	Max Vector2D
}

// NewSquare returns the square of half-width halfWidth centered on center.
func NewSquare(center Vector2D, halfWidth float64) AABB {
	return AABB{
		Min: Vector2D{X: center.X - halfWidth, Y: center.Y - halfWidth},
		Max: Vector2D{X: center.X + halfWidth, Y: center.Y + halfWidth},
	}
}

// Overlaps reports whether the two boxes intersect. Touching edges count.
func (b AABB) Overlaps(other AABB) bool {
	return b.Min.X <= other.Max.X && other.Min.X <= b.Max.X &&
		b.Min.Y <= other.Max.Y && other.Min.Y <= b.Max.Y
}

// Contains reports whether p lies inside the box, edges included.
func (b AABB) Contains(p Vector2D) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Center returns the middle of the box.
func (b AABB) Center() Vector2D {
	return b.Min.Lerp(b.Max, 0.5)
}
