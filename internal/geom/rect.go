package geom

import "math"

// Point is a position or vector in a 2D coordinate frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the normalized rect spanning a and b.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// ContainsPoint is Contains for a Point value.
func (r Rect) ContainsPoint(p Point) bool {
	return r.Contains(p.X, p.Y)
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// IsNull reports whether both dimensions are zero. A null rect contributes
// nothing to a union, while a zero-area line still does.
func (r Rect) IsNull() bool {
	return r.Width == 0 && r.Height == 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsNull() {
		return other
	}
	if other.IsNull() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.Right(), other.Right())
	maxY := max(r.Bottom(), other.Bottom())

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Intersects reports whether the two rects overlap or touch.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.Right() && other.X <= r.Right() &&
		r.Y <= other.Bottom() && other.Y <= r.Bottom()
}

// Inflate grows the rect by dx on each horizontal side and dy on each vertical side.
func (r Rect) Inflate(dx, dy float64) Rect {
	return Rect{X: r.X - dx, Y: r.Y - dy, Width: r.Width + 2*dx, Height: r.Height + 2*dy}
}

// ApproxEqual compares two rects within eps.
func (r Rect) ApproxEqual(other Rect, eps float64) bool {
	return math.Abs(r.X-other.X) <= eps &&
		math.Abs(r.Y-other.Y) <= eps &&
		math.Abs(r.Width-other.Width) <= eps &&
		math.Abs(r.Height-other.Height) <= eps
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

func (r Rect) TopLeft() Point     { return Point{X: r.Left(), Y: r.Top()} }
func (r Rect) TopRight() Point    { return Point{X: r.Right(), Y: r.Top()} }
func (r Rect) BottomLeft() Point  { return Point{X: r.Left(), Y: r.Bottom()} }
func (r Rect) BottomRight() Point { return Point{X: r.Right(), Y: r.Bottom()} }
