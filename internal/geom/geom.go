// Package geom converts between device pixel coordinates and the
// page-relative unit square, and rotates unit-square points by quarter
// turns. Annotations are stored in unit-square coordinates so they survive
// window resizes, zoom changes and layout switches without re-authoring.
package geom

import "math"

// Point is a coordinate pair, either normalized ([0,1] page-relative) or in
// device pixels depending on context.
type Point struct {
	X, Y float64
}

// Distance returns the Euclidean distance to other.
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is a pixel rectangle identified by its top-left origin and size.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies within the rectangle, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// DistanceTo returns the distance from p to the nearest point of the
// rectangle, zero when p is inside it.
func (r Rect) DistanceTo(p Point) float64 {
	dx := math.Max(math.Max(r.X-p.X, 0), p.X-(r.X+r.W))
	dy := math.Max(math.Max(r.Y-p.Y, 0), p.Y-(r.Y+r.H))
	return math.Sqrt(dx*dx + dy*dy)
}

// ToNormalized maps a device pixel point inside the placement rectangle to
// the page's unit square. Points slightly outside the rectangle (pointer
// events at the edges overshoot by a pixel or two) map slightly outside
// [0,1]; callers decide whether that matters.
func ToNormalized(px, py, originX, originY, width, height float64) (nx, ny float64) {
	return (px - originX) / width, (py - originY) / height
}

// ToDevice maps a unit-square point to device pixels within the placement
// rectangle. Inverse of ToNormalized.
func ToDevice(nx, ny, originX, originY, width, height float64) (px, py float64) {
	return originX + nx*width, originY + ny*height
}

// NormalizeDegrees reduces an arbitrary multiple of 90 to one of
// 0, 90, 180, 270.
func NormalizeDegrees(degrees int) int {
	d := degrees % 360
	if d < 0 {
		d += 360
	}
	return d
}

// quarterTurns returns how many 90° CW steps degrees is worth.
func quarterTurns(degrees int) int {
	return NormalizeDegrees(degrees) / 90
}

// RotateUnit rotates a unit-square point clockwise about the square's
// center (0.5, 0.5). degrees must be a multiple of 90; any multiple is
// accepted and reduced modulo 360. One 90° CW step maps (nx, ny) to
// (1-ny, nx), so four steps are the identity and the center is fixed.
func RotateUnit(nx, ny float64, degrees int) (float64, float64) {
	for i := 0; i < quarterTurns(degrees); i++ {
		nx, ny = 1-ny, nx
	}
	return nx, ny
}

// RotatePoint is RotateUnit over a Point value.
func RotatePoint(p Point, degrees int) Point {
	x, y := RotateUnit(p.X, p.Y, degrees)
	return Point{X: x, Y: y}
}
