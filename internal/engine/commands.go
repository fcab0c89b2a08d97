package engine

import (
	"encoding/json"

	"github.com/vectorflow/vectorflow/internal/document"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/handle"
	"github.com/vectorflow/vectorflow/internal/scene"
	"github.com/vectorflow/vectorflow/internal/session"
	"github.com/vectorflow/vectorflow/internal/snap"
)

// Draw command ops.
const (
	OpPath    = "path"
	OpText    = "text"
	OpGrid    = "grid"
	OpGuide   = "guide"
	OpOutline = "outline"
	OpHandle  = "handle"
	OpMarker  = "marker"
	OpBand    = "band"
	OpSnap    = "snap"
)

// Overlay colors.
const (
	selectionColor = "#00a2ff"
	handleFill     = "#ffffff"
	handleActive   = "#ffd166"
	markerColor    = "#ff3366"
	bandFill       = "rgba(0, 162, 255, 0.1)"
	gridColor      = "#e6e6e6"
	snapColor      = "#ff00ff"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
// Overlay ops carry scene-space paths and no transform.
type DrawCommand struct {
	Op          string        `json:"op"`
	ObjectID    string        `json:"objectId,omitempty"`
	Transform   []float64     `json:"transform,omitempty"` // [a, b, c, d, e, f]
	Path        []PathCommand `json:"path,omitempty"`
	Fill        string        `json:"fill,omitempty"`
	Stroke      string        `json:"stroke,omitempty"`
	StrokeWidth float64       `json:"strokeWidth,omitempty"`
	Opacity     float64       `json:"opacity,omitempty"`
	Dash        []float64     `json:"dash,omitempty"`
	DashOffset  float64       `json:"dashOffset,omitempty"`
	Text        string        `json:"text,omitempty"`
	Handle      string        `json:"handle,omitempty"`
	Cursor      string        `json:"cursor,omitempty"`
	Size        float64       `json:"size,omitempty"`
}

// PathCommand is one path segment in Canvas2D form: ["M", x, y], ["L", x, y],
// ["C", x1, y1, x2, y2, x, y] or ["Z"].
type PathCommand []any

// Verb returns the segment letter.
func (p PathCommand) Verb() string {
	if len(p) == 0 {
		return ""
	}
	v, _ := p[0].(string)
	return v
}

// Coords returns the numeric arguments of the segment.
func (p PathCommand) Coords() []float64 {
	out := make([]float64, 0, len(p))
	for _, v := range p[min(1, len(p)):] {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case int:
			out = append(out, float64(n))
		}
	}
	return out
}

// compileShapes emits one command per visible drawable shape in painter's
// order. Groups draw nothing themselves; their members carry the group
// placement in their scene transform.
func compileShapes(sc *scene.Scene) []DrawCommand {
	var commands []DrawCommand
	for _, s := range sc.Shapes() {
		if !visibleInScene(sc, s) || s.Kind() == scene.KindGroup {
			continue
		}
		st := s.Style()
		cmd := DrawCommand{
			Op:          OpPath,
			ObjectID:    s.ID(),
			Transform:   s.SceneTransform().ToSlice(),
			Path:        shapePath(s),
			Fill:        st.Fill,
			Stroke:      st.Stroke,
			StrokeWidth: st.StrokeWidth,
			Opacity:     st.Opacity,
		}
		if s.Kind() == scene.KindText {
			cmd.Op = OpText
			cmd.Text = s.Text()
		}
		commands = append(commands, cmd)
	}
	return commands
}

func visibleInScene(sc *scene.Scene, s *scene.Shape) bool {
	for s != nil {
		if !s.Visible() {
			return false
		}
		parent, ok := sc.Shape(s.GroupID())
		if !ok {
			return true
		}
		s = parent
	}
	return true
}

// shapePath returns the local-frame outline of a primitive shape.
func shapePath(s *scene.Shape) []PathCommand {
	switch s.Kind() {
	case scene.KindEllipse:
		return ellipsePath(s.LocalBounds())
	case scene.KindPath:
		return polylinePath(s.Points())
	default:
		return rectPath(s.LocalBounds())
	}
}

func rectPath(r geom.Rect) []PathCommand {
	return []PathCommand{
		{"M", r.Left(), r.Top()},
		{"L", r.Right(), r.Top()},
		{"L", r.Right(), r.Bottom()},
		{"L", r.Left(), r.Bottom()},
		{"Z"},
	}
}

// ellipsePath approximates the ellipse inscribed in r with four cubic curves.
func ellipsePath(r geom.Rect) []PathCommand {
	c := r.Center()
	rx, ry := r.Width/2, r.Height/2

	// k = 4 * (sqrt(2) - 1) / 3
	const k = 0.5522847498
	kx, ky := rx*k, ry*k

	return []PathCommand{
		{"M", c.X + rx, c.Y},
		{"C", c.X + rx, c.Y + ky, c.X + kx, c.Y + ry, c.X, c.Y + ry},
		{"C", c.X - kx, c.Y + ry, c.X - rx, c.Y + ky, c.X - rx, c.Y},
		{"C", c.X - rx, c.Y - ky, c.X - kx, c.Y - ry, c.X, c.Y - ry},
		{"C", c.X + kx, c.Y - ry, c.X + rx, c.Y - ky, c.X + rx, c.Y},
		{"Z"},
	}
}

func polylinePath(points []geom.Point) []PathCommand {
	if len(points) == 0 {
		return nil
	}
	path := make([]PathCommand, 0, len(points))
	path = append(path, PathCommand{"M", points[0].X, points[0].Y})
	for _, p := range points[1:] {
		path = append(path, PathCommand{"L", p.X, p.Y})
	}
	return path
}

func quadPath(q [4]geom.Point) []PathCommand {
	return []PathCommand{
		{"M", q[0].X, q[0].Y},
		{"L", q[1].X, q[1].Y},
		{"L", q[2].X, q[2].Y},
		{"L", q[3].X, q[3].Y},
		{"Z"},
	}
}

func linePath(a, b geom.Point) []PathCommand {
	return []PathCommand{{"M", a.X, a.Y}, {"L", b.X, b.Y}}
}

// crossPath draws an x-shaped marker of half-size r around p.
func crossPath(p geom.Point, r float64) []PathCommand {
	return []PathCommand{
		{"M", p.X - r, p.Y - r}, {"L", p.X + r, p.Y + r},
		{"M", p.X - r, p.Y + r}, {"L", p.X + r, p.Y - r},
	}
}

// overlay is the editor state the overlay compiler reads.
type overlay struct {
	drawing   document.Drawing
	scene     *scene.Scene
	handles   *handle.Set
	aids      *session.Aids
	band      *geom.Rect
	snap      snap.Result
	viewScale float64
}

// compileOverlay emits editor chrome on top of the shapes: grid, guides,
// selection outlines, handles, session aids, rubber band and snap marker.
func compileOverlay(o overlay) []DrawCommand {
	var commands []DrawCommand
	px := 1 / o.viewScale

	if g := o.scene.Grid(); g.Visible && g.Size > 0 {
		commands = append(commands, DrawCommand{
			Op:          OpGrid,
			Path:        rectPath(geom.Rect{Width: o.drawing.Width, Height: o.drawing.Height}),
			Stroke:      gridColor,
			StrokeWidth: px,
			Size:        g.Size,
		})
	}

	if o.scene.GuidesShown() {
		for _, g := range o.scene.VisibleGuides() {
			var a, b geom.Point
			if g.Orientation == geom.Vertical {
				a, b = geom.Pt(g.Position, 0), geom.Pt(g.Position, o.drawing.Height)
			} else {
				a, b = geom.Pt(0, g.Position), geom.Pt(o.drawing.Width, g.Position)
			}
			commands = append(commands, DrawCommand{
				Op:          OpGuide,
				ObjectID:    g.ID,
				Path:        linePath(a, b),
				Stroke:      g.Color,
				StrokeWidth: px,
			})
		}
	}

	if o.aids != nil {
		for _, q := range o.aids.Quads {
			commands = append(commands, DrawCommand{
				Op:          OpOutline,
				Path:        quadPath(q),
				Stroke:      selectionColor,
				StrokeWidth: px,
				Dash:        session.DashPattern[:],
				DashOffset:  o.aids.DashOffset,
			})
		}
		commands = append(commands,
			DrawCommand{
				Op:          OpOutline,
				Path:        rectPath(o.aids.Outline),
				Stroke:      selectionColor,
				StrokeWidth: px,
				Dash:        session.DashPattern[:],
				DashOffset:  o.aids.DashOffset,
			},
			DrawCommand{Op: OpMarker, Text: "anchor", Path: crossPath(o.aids.Anchor, 4*px), Stroke: markerColor, StrokeWidth: px},
			DrawCommand{Op: OpMarker, Text: "drag", Path: crossPath(o.aids.DragPoint, 4*px), Stroke: markerColor, StrokeWidth: px},
		)
	} else {
		for _, s := range o.scene.SelectedShapes() {
			commands = append(commands, DrawCommand{
				Op:          OpOutline,
				ObjectID:    s.ID(),
				Path:        quadPath(scene.SceneQuad(s)),
				Stroke:      selectionColor,
				StrokeWidth: px,
			})
		}
	}

	if o.handles != nil && o.handles.Visible() {
		for _, h := range o.handles.Handles() {
			fill := handleFill
			if h.Highlighted {
				fill = handleActive
			}
			commands = append(commands, DrawCommand{
				Op:          OpHandle,
				Path:        rectPath(h.Rect(o.handles.Size(), o.viewScale)),
				Fill:        fill,
				Stroke:      selectionColor,
				StrokeWidth: px,
				Handle:      h.Kind.String(),
				Cursor:      string(h.Kind.Cursor()),
			})
		}
	}

	if o.band != nil {
		commands = append(commands, DrawCommand{
			Op:          OpBand,
			Path:        rectPath(*o.band),
			Fill:        bandFill,
			Stroke:      selectionColor,
			StrokeWidth: px,
			Dash:        session.DashPattern[:],
		})
	}

	if o.snap.Snapped() {
		commands = append(commands, DrawCommand{
			Op:          OpSnap,
			ObjectID:    snapSourceID(o.snap),
			Path:        crossPath(o.snap.Pos, 6*px),
			Stroke:      snapColor,
			StrokeWidth: px,
			Text:        snapLabel(o.snap),
		})
	}
	return commands
}

func snapSourceID(r snap.Result) string {
	switch r.Source {
	case snap.SourceObject:
		return r.Object.ShapeID
	case snap.SourceGuide:
		return r.Guide.Guide.ID
	default:
		return ""
	}
}

// snapLabel describes a snap match for UI feedback, e.g. "object: left edge".
func snapLabel(r snap.Result) string {
	switch r.Source {
	case snap.SourceObject:
		return r.Source.String() + ": " + r.Object.Kind.String()
	case snap.SourceGuide:
		return r.Source.String() + ": " + r.Guide.Orientation.String()
	default:
		return r.Source.String()
	}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r geom.Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
