package document

import (
	"time"

	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/typeid"
)

// NewSampleDrawing returns a small drawing with one of each shape type, a
// two-member group and a pair of guides.
func NewSampleDrawing(drawingID string) *Drawing {
	now := time.Now().UTC().Format(time.RFC3339)

	rectID := typeid.NewShapeID()
	ellipseID := typeid.NewShapeID()
	triangleID := typeid.NewShapeID()
	groupID := typeid.NewGroupID()
	badgeRectID := typeid.NewShapeID()
	badgeDotID := typeid.NewShapeID()

	return &Drawing{
		ID:         drawingID,
		Name:       "Untitled",
		Version:    CurrentVersion,
		Width:      1280,
		Height:     720,
		Background: "#ffffff",
		CreatedAt:  now,
		UpdatedAt:  now,
		Shapes: []ShapeNode{
			{
				ID:        rectID,
				Type:      ShapeTypeRect,
				Name:      "Rectangle",
				Bounds:    geom.Rect{X: 0, Y: 0, Width: 200, Height: 150},
				Pos:       geom.Pt(200, 200),
				Transform: geom.Identity(),
				Style:     Style{Fill: "#e94560", Stroke: "#000000", StrokeWidth: 2, Opacity: 1},
				Visible:   true,
			},
			{
				ID:        ellipseID,
				Type:      ShapeTypeEllipse,
				Name:      "Ellipse",
				Bounds:    geom.Rect{X: -120, Y: -80, Width: 240, Height: 160},
				Pos:       geom.Pt(640, 360),
				Transform: geom.Identity(),
				Style:     Style{Fill: "#0f3460", Stroke: "#16213e", StrokeWidth: 2, Opacity: 1},
				Visible:   true,
			},
			{
				ID:        triangleID,
				Type:      ShapeTypePath,
				Name:      "Triangle",
				Bounds:    geom.Rect{X: 0, Y: 0, Width: 200, Height: 150},
				Pos:       geom.Pt(900, 200),
				Transform: geom.Identity(),
				Style:     Style{Fill: "#53d769", Stroke: "#2d6a4f", StrokeWidth: 2, Opacity: 1},
				Points:    []geom.Point{{X: 0, Y: 150}, {X: 100, Y: 0}, {X: 200, Y: 150}},
				Visible:   true,
			},
			{
				ID:        groupID,
				Type:      ShapeTypeGroup,
				Name:      "Badge",
				Transform: geom.Identity(),
				Style:     Style{Opacity: 1},
				Visible:   true,
				Members:   []string{badgeRectID, badgeDotID},
			},
			{
				ID:        badgeRectID,
				Type:      ShapeTypeRect,
				Bounds:    geom.Rect{X: 0, Y: 0, Width: 60, Height: 100},
				Pos:       geom.Pt(470, 400),
				Transform: geom.Identity(),
				Style:     Style{Fill: "#f5a623", Stroke: "#000000", StrokeWidth: 1, Opacity: 1},
				Visible:   true,
				Group:     groupID,
			},
			{
				ID:        badgeDotID,
				Type:      ShapeTypeEllipse,
				Bounds:    geom.Rect{X: -20, Y: -20, Width: 40, Height: 40},
				Pos:       geom.Pt(500, 450),
				Transform: geom.Identity(),
				Style:     Style{Fill: "#ffffff", Stroke: "#000000", StrokeWidth: 1, Opacity: 1},
				Visible:   true,
				Group:     groupID,
			},
		},
		Guides: []Guide{
			{ID: typeid.NewGuideID(), Orientation: geom.Vertical, Position: 640, Visible: true, Color: "#00a2ff"},
			{ID: typeid.NewGuideID(), Orientation: geom.Horizontal, Position: 100, Visible: true, Color: "#00a2ff"},
		},
		Grid: Grid{Size: 20, Snap: true},
	}
}
