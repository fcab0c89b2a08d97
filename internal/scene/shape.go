package scene

import (
	"fmt"

	"github.com/vectorflow/vectorflow/internal/document"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/typeid"
)

// Kind is the closed set of shape variants.
type Kind int

const (
	KindRect Kind = iota
	KindEllipse
	KindPath
	KindText
	KindGroup
)

var kindTypes = [...]document.ShapeType{
	KindRect:    document.ShapeTypeRect,
	KindEllipse: document.ShapeTypeEllipse,
	KindPath:    document.ShapeTypePath,
	KindText:    document.ShapeTypeText,
	KindGroup:   document.ShapeTypeGroup,
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindTypes) {
		return "unknown"
	}
	return string(kindTypes[k])
}

// Type returns the document type name for k.
func (k Kind) Type() document.ShapeType {
	return document.ShapeType(k.String())
}

// KindOf maps a document type name to a Kind.
func KindOf(t document.ShapeType) (Kind, error) {
	for k, name := range kindTypes {
		if name == t {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown shape type %q", t)
}

// Shape is an entry of the scene arena. Its geometry is a local bounding box
// placed by T(pos) · transform inside its parent frame.
type Shape struct {
	id        string
	kind      Kind
	name      string
	local     geom.Rect
	pos       geom.Point
	transform geom.Matrix2D
	style     document.Style
	points    []geom.Point
	text      string
	visible   bool
	locked    bool
	selected  bool

	group   string   // owning persistent group, "" at top level
	members []string // KindGroup only

	scene *Scene
}

// NewShape creates a visible shape with an identity transform and a fresh ID.
func NewShape(kind Kind, local geom.Rect) *Shape {
	id := typeid.NewShapeID()
	if kind == KindGroup {
		id = typeid.NewGroupID()
	}
	return &Shape{
		id:        id,
		kind:      kind,
		local:     local,
		transform: geom.Identity(),
		style:     document.Style{Opacity: 1},
		visible:   true,
	}
}

// NewPath creates a path shape whose local bounds enclose points.
func NewPath(points []geom.Point) *Shape {
	s := NewShape(KindPath, boundsOfPoints(points))
	s.points = append([]geom.Point(nil), points...)
	return s
}

func boundsOfPoints(points []geom.Point) geom.Rect {
	if len(points) == 0 {
		return geom.Rect{}
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo.X, lo.Y = min(lo.X, p.X), min(lo.Y, p.Y)
		hi.X, hi.Y = max(hi.X, p.X), max(hi.Y, p.Y)
	}
	return geom.RectFromPoints(lo, hi)
}

func (s *Shape) ID() string   { return s.id }
func (s *Shape) Kind() Kind   { return s.kind }
func (s *Shape) Name() string { return s.name }

func (s *Shape) SetName(name string) { s.name = name }

func (s *Shape) Style() document.Style         { return s.style }
func (s *Shape) SetStyle(style document.Style) { s.style = style }

// Points returns the path vertices in local coordinates.
func (s *Shape) Points() []geom.Point { return s.points }

func (s *Shape) Text() string { return s.text }

func (s *Shape) SetText(text string) { s.text = text }

func (s *Shape) Visible() bool           { return s.visible }
func (s *Shape) SetVisible(visible bool) { s.visible = visible }
func (s *Shape) Locked() bool            { return s.locked }
func (s *Shape) SetLocked(locked bool)   { s.locked = locked }

// GroupID returns the persistent group that owns s, or "".
func (s *Shape) GroupID() string { return s.group }

// Alive reports whether s still belongs to a scene.
func (s *Shape) Alive() bool { return s.scene != nil }

// LocalBounds returns the bounding box in the shape's own frame. For a group
// it is the union of its members placed in the group frame.
func (s *Shape) LocalBounds() geom.Rect {
	return LocalBounds(s)
}

func (s *Shape) Transform() geom.Matrix2D { return s.transform }

func (s *Shape) SetTransform(m geom.Matrix2D) { s.transform = m }

// ScenePos returns the shape's origin in scene coordinates.
func (s *Shape) ScenePos() geom.Point {
	return s.parentTransform().Apply(s.pos)
}

// Pos returns the position inside the parent frame.
func (s *Shape) Pos() geom.Point { return s.pos }

func (s *Shape) SetPos(p geom.Point) { s.pos = p }

// SceneTransform is parent · T(pos) · transform.
func (s *Shape) SceneTransform() geom.Matrix2D {
	return s.parentTransform().
		Multiply(geom.Translate(s.pos.X, s.pos.Y)).
		Multiply(s.transform)
}

func (s *Shape) parentTransform() geom.Matrix2D {
	sc := s.scene
	if sc == nil {
		return geom.Identity()
	}
	if s.group != "" {
		if g, ok := sc.shapes[s.group]; ok {
			return g.SceneTransform()
		}
	}
	if sg := sc.active; sg != nil && sg.members[s.id] {
		return sg.transform
	}
	return geom.Identity()
}

func (s *Shape) MapToScene(p geom.Point) geom.Point {
	return s.SceneTransform().Apply(p)
}

func (s *Shape) MapFromScene(p geom.Point) geom.Point {
	return s.SceneTransform().Invert().Apply(p)
}

// SceneBounds returns the axis-aligned box of the shape in scene coordinates.
func (s *Shape) SceneBounds() geom.Rect {
	return SceneBounds(s)
}

func (s *Shape) IsSelected() bool { return s.selected }

// SetSelected changes the selection flag and notifies the scene.
func (s *Shape) SetSelected(selected bool) {
	if s.scene == nil {
		s.selected = selected
		return
	}
	s.scene.setSelected(s, selected)
}

// Selectable reports whether the shape can be picked on its own.
func (s *Shape) Selectable() bool {
	return s.scene != nil && s.visible && !s.locked && s.group == ""
}

// Contains reports whether the scene point p falls on the shape.
func (s *Shape) Contains(p geom.Point) bool {
	if !s.visible {
		return false
	}
	if g, ok := s.AsGroup(); ok {
		for _, m := range g.Members() {
			if m.Contains(p) {
				return true
			}
		}
		return false
	}
	m := s.SceneTransform()
	if !m.IsInvertible() {
		return SceneBounds(s).ContainsPoint(p)
	}
	return s.local.ContainsPoint(m.Invert().Apply(p))
}

// Group is the capability view of a KindGroup shape.
type Group struct {
	*Shape
}

// AsGroup returns the group view when s is a group.
func (s *Shape) AsGroup() (Group, bool) {
	if s.kind != KindGroup {
		return Group{}, false
	}
	return Group{s}, true
}

// MemberIDs returns the member IDs in z-order.
func (g Group) MemberIDs() []string {
	return append([]string(nil), g.members...)
}

// Members returns the live member shapes in z-order.
func (g Group) Members() []*Shape {
	if g.scene == nil {
		return nil
	}
	out := make([]*Shape, 0, len(g.members))
	for _, id := range g.members {
		if m, ok := g.scene.shapes[id]; ok {
			out = append(out, m)
		}
	}
	return out
}
