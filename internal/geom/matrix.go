package geom

import "math"

// Matrix2D represents a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
//
// Where:
// - a, d = scale
// - b, c = skew/rotation
// - e, f = translation
type Matrix2D [6]float64

// Denominators smaller than this are treated as zero by SafeDiv.
const nearZero = 1e-6

// Identity returns the identity matrix.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale matrix.
func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// Rotate returns a rotation matrix (angle in radians).
func Rotate(radians float64) Matrix2D {
	sin, cos := math.Sincos(radians)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// Shear returns a shear matrix: x' = x + shx*y, y' = shy*x + y.
func Shear(shx, shy float64) Matrix2D {
	return Matrix2D{1, shy, shx, 1, 0, 0}
}

// About conjugates m with a translation to center: T(center) · m · T(-center).
// The result applies m as if center were the origin.
func About(center Point, m Matrix2D) Matrix2D {
	return Translate(center.X, center.Y).Multiply(m).Multiply(Translate(-center.X, -center.Y))
}

// Multiply multiplies this matrix by another: result = m * other
// This applies 'other' first, then 'm'.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],        // a
		m[1]*other[0] + m[3]*other[1],        // b
		m[0]*other[2] + m[2]*other[3],        // c
		m[1]*other[2] + m[3]*other[3],        // d
		m[0]*other[4] + m[2]*other[5] + m[4], // e
		m[1]*other[4] + m[3]*other[5] + m[5], // f
	}
}

// Translated returns m · T(delta).
func (m Matrix2D) Translated(delta Point) Matrix2D {
	return m.Multiply(Translate(delta.X, delta.Y))
}

// RotatedAbout returns m · (T(center) · R(angle) · T(-center)).
func (m Matrix2D) RotatedAbout(radians float64, center Point) Matrix2D {
	return m.Multiply(About(center, Rotate(radians)))
}

// ScaledAbout returns m · (T(center) · S(sx, sy) · T(-center)).
func (m Matrix2D) ScaledAbout(sx, sy float64, center Point) Matrix2D {
	return m.Multiply(About(center, Scale(sx, sy)))
}

// ShearedAbout returns m · (T(center) · Sh(shx, shy) · T(-center)).
func (m Matrix2D) ShearedAbout(shx, shy float64, center Point) Matrix2D {
	return m.Multiply(About(center, Shear(shx, shy)))
}

// RotatedAroundAnchor rotates about the anchor resolved against bounds.
func (m Matrix2D) RotatedAroundAnchor(radians float64, anchor Anchor, bounds Rect) Matrix2D {
	return m.RotatedAbout(radians, AnchorToPoint(anchor, bounds))
}

// ScaledAroundAnchor scales about the anchor resolved against bounds.
func (m Matrix2D) ScaledAroundAnchor(sx, sy float64, anchor Anchor, bounds Rect) Matrix2D {
	return m.ScaledAbout(sx, sy, AnchorToPoint(anchor, bounds))
}

// ShearedAroundAnchor shears about the anchor resolved against bounds.
func (m Matrix2D) ShearedAroundAnchor(shx, shy float64, anchor Anchor, bounds Rect) Matrix2D {
	return m.ShearedAbout(shx, shy, AnchorToPoint(anchor, bounds))
}

// TransformPoint applies the matrix to a point.
func (m Matrix2D) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Apply is TransformPoint for a Point value.
func (m Matrix2D) Apply(p Point) Point {
	x, y := m.TransformPoint(p.X, p.Y)
	return Point{X: x, Y: y}
}

// TransformRect transforms a rectangle and returns its axis-aligned bounding box.
func (m Matrix2D) TransformRect(r Rect) Rect {
	// Transform all four corners
	x0, y0 := m.TransformPoint(r.X, r.Y)
	x1, y1 := m.TransformPoint(r.X+r.Width, r.Y)
	x2, y2 := m.TransformPoint(r.X+r.Width, r.Y+r.Height)
	x3, y3 := m.TransformPoint(r.X, r.Y+r.Height)

	minX := min(x0, x1, x2, x3)
	minY := min(y0, y1, y2, y3)
	maxX := max(x0, x1, x2, x3)
	maxY := max(y0, y1, y2, y3)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// TransformQuad returns the four transformed corners of r in
// top-left, top-right, bottom-right, bottom-left order.
func (m Matrix2D) TransformQuad(r Rect) [4]Point {
	return [4]Point{
		m.Apply(r.TopLeft()),
		m.Apply(r.TopRight()),
		m.Apply(r.BottomRight()),
		m.Apply(r.BottomLeft()),
	}
}

// Determinant returns the determinant of the matrix.
func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// IsInvertible reports whether the matrix has a usable inverse.
func (m Matrix2D) IsInvertible() bool {
	return math.Abs(m.Determinant()) > 1e-12
}

// Invert returns the inverse of the matrix, or Identity if not invertible.
func (m Matrix2D) Invert() Matrix2D {
	if !m.IsInvertible() {
		return Identity()
	}

	invDet := 1.0 / m.Determinant()
	return Matrix2D{
		m[3] * invDet,
		-m[1] * invDet,
		-m[2] * invDet,
		m[0] * invDet,
		(m[2]*m[5] - m[3]*m[4]) * invDet,
		(m[1]*m[4] - m[0]*m[5]) * invDet,
	}
}

// ToSlice returns the matrix as a float64 slice for JSON serialization.
func (m Matrix2D) ToSlice() []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}

// ApproxEqual compares two matrices component-wise within eps.
func (m Matrix2D) ApproxEqual(other Matrix2D, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-other[i]) > eps {
			return false
		}
	}
	return true
}

// --- Decomposition ---
//
// The accessors below read the matrix as T · R · S · H (translate, rotate,
// scale, x-shear). They are for display only; composition never goes through
// them.

// Rotation returns the rotation component in radians.
func (m Matrix2D) Rotation() float64 {
	return math.Atan2(m[1], m[0])
}

// ScaleFactors returns the per-axis scale. sy carries the sign of the
// determinant, so a mirrored matrix reports a negative sy.
func (m Matrix2D) ScaleFactors() (sx, sy float64) {
	sx = math.Hypot(m[0], m[1])
	if sx == 0 {
		return 0, math.Hypot(m[2], m[3])
	}
	return sx, m.Determinant() / sx
}

// ShearFactors returns the x-shear left after removing rotation and scale.
// The y component is always zero in this decomposition.
func (m Matrix2D) ShearFactors() (shx, shy float64) {
	sx, _ := m.ScaleFactors()
	if sx == 0 {
		return 0, 0
	}
	return (m[0]*m[2] + m[1]*m[3]) / (sx * sx), 0
}

// Translation returns the translation component.
func (m Matrix2D) Translation() Point {
	return Point{X: m[4], Y: m[5]}
}

// --- Numeric policy ---

// SafeDiv returns a/b, or 1 when |b| is too small to divide by.
func SafeDiv(a, b float64) float64 {
	if math.Abs(b) < nearZero {
		return 1.0
	}
	return a / b
}

// ClampScale bounds the magnitude of a scale factor to [lo, hi] and keeps its
// sign. Zero and NaN collapse to lo.
func ClampScale(f, lo, hi float64) float64 {
	if math.IsNaN(f) || f == 0 {
		return lo
	}
	sign := 1.0
	if f < 0 {
		sign = -1.0
	}
	mag := math.Abs(f)
	if mag < lo {
		mag = lo
	}
	if mag > hi {
		mag = hi
	}
	return sign * mag
}

// NormalizeAngle maps an angle in radians into (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
