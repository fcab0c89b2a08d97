package snap

import "github.com/vectorflow/vectorflow/internal/geom"

// PointKind classifies an object snap point.
type PointKind int

const (
	PointCorner PointKind = iota
	PointCenter
	PointLeft
	PointRight
	PointTop
	PointBottom
)

var pointDescriptions = [...]string{
	PointCorner: "corner",
	PointCenter: "center",
	PointLeft:   "left edge",
	PointRight:  "right edge",
	PointTop:    "top edge",
	PointBottom: "bottom edge",
}

func (k PointKind) String() string {
	if k < 0 || int(k) >= len(pointDescriptions) {
		return "unknown"
	}
	return pointDescriptions[k]
}

// Point is a candidate snap target on a shape's bounding box.
type Point struct {
	Pos     geom.Point
	Kind    PointKind
	ShapeID string
}

// Points returns the nine snap candidates of r: four corners, the center
// and the four edge midpoints.
func Points(shapeID string, r geom.Rect) []Point {
	c := r.Center()
	return []Point{
		{Pos: r.TopLeft(), Kind: PointCorner, ShapeID: shapeID},
		{Pos: r.TopRight(), Kind: PointCorner, ShapeID: shapeID},
		{Pos: r.BottomLeft(), Kind: PointCorner, ShapeID: shapeID},
		{Pos: r.BottomRight(), Kind: PointCorner, ShapeID: shapeID},
		{Pos: c, Kind: PointCenter, ShapeID: shapeID},
		{Pos: geom.Pt(r.Left(), c.Y), Kind: PointLeft, ShapeID: shapeID},
		{Pos: geom.Pt(r.Right(), c.Y), Kind: PointRight, ShapeID: shapeID},
		{Pos: geom.Pt(c.X, r.Top()), Kind: PointTop, ShapeID: shapeID},
		{Pos: geom.Pt(c.X, r.Bottom()), Kind: PointBottom, ShapeID: shapeID},
	}
}
