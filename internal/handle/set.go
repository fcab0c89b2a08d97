// Package handle places the eight scale handles and the rotation handle
// around a shape or the selection, hit-tests them and tracks a drag.
package handle

import (
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/scene"
)

// Resolver looks up the shapes a Set is bound to. *scene.Scene implements it.
type Resolver interface {
	Shape(id string) (*scene.Shape, bool)
	SelectedShapes() []*scene.Shape
}

// Handle is one placed handle in scene coordinates.
type Handle struct {
	Kind        Kind       `json:"kind"`
	Pos         geom.Point `json:"pos"`
	Highlighted bool       `json:"highlighted,omitempty"`
}

// Rect returns the handle's hit area. The size is given in screen pixels and
// converted to scene units so handles keep a constant on-screen size.
func (h Handle) Rect(size, viewScale float64) geom.Rect {
	if viewScale <= 0 {
		viewScale = 1
	}
	half := size / viewScale / 2
	return geom.Rect{X: h.Pos.X - half, Y: h.Pos.Y - half, Width: 2 * half, Height: 2 * half}
}

type drag struct {
	kind    Kind
	start   geom.Point
	last    geom.Point
	targets []string
}

// Set is the group of handles for one target: a single shape or the current
// selection.
type Set struct {
	resolver     Resolver
	size         float64
	rotateOffset float64

	shapeID string // "" when bound to the selection
	handles []Handle
	bounds  geom.Rect
	visible bool

	drag *drag
}

// NewSet creates a hidden set bound to the selection.
func NewSet(r Resolver, size, rotateOffset float64) *Set {
	return &Set{resolver: r, size: size, rotateOffset: rotateOffset}
}

// BindSelection makes the set follow the selection's union bounds.
func (s *Set) BindSelection() {
	s.shapeID = ""
	s.Refresh()
}

// BindShape makes the set follow a single shape.
func (s *Set) BindShape(id string) {
	s.shapeID = id
	s.Refresh()
}

func (s *Set) Size() float64 { return s.size }

// Targets resolves the shapes the set is bound to.
func (s *Set) Targets() []*scene.Shape {
	if s.shapeID == "" {
		return s.resolver.SelectedShapes()
	}
	if sh, ok := s.resolver.Shape(s.shapeID); ok {
		return []*scene.Shape{sh}
	}
	return nil
}

// Refresh recomputes handle positions from the current target bounds. With
// no target the handles are cleared and Refresh returns false.
func (s *Set) Refresh() bool {
	targets := s.Targets()
	if len(targets) == 0 {
		s.handles = nil
		s.bounds = geom.Rect{}
		return false
	}
	s.place(scene.UnionBounds(targets))
	return true
}

// Place positions handles around explicit scene bounds, used while a
// transform preview is moving the targets.
func (s *Set) Place(bounds geom.Rect) {
	s.place(bounds)
}

func (s *Set) place(bounds geom.Rect) {
	var highlighted Kind
	for _, h := range s.handles {
		if h.Highlighted {
			highlighted = h.Kind
		}
	}

	s.bounds = bounds
	s.handles = s.handles[:0]
	for _, k := range Kinds {
		s.handles = append(s.handles, Handle{
			Kind:        k,
			Pos:         Position(k, bounds, s.rotateOffset),
			Highlighted: k == highlighted,
		})
	}
}

// Position returns where handle k sits for bounds. The rotation handle is
// offset above the top edge in scene units.
func Position(k Kind, bounds geom.Rect, rotateOffset float64) geom.Point {
	if k == Rotate {
		return geom.Pt(bounds.Center().X, bounds.Top()-rotateOffset)
	}
	return geom.AnchorToPoint(k.Anchor(), bounds)
}

func (s *Set) Bounds() geom.Rect { return s.bounds }

func (s *Set) Show() { s.visible = true }
func (s *Set) Hide() { s.visible = false }

// Visible reports whether handles are shown and placed.
func (s *Set) Visible() bool { return s.visible && len(s.handles) > 0 }

// Handles returns the placed handles, or nil when hidden.
func (s *Set) Handles() []Handle {
	if !s.Visible() {
		return nil
	}
	return append([]Handle(nil), s.handles...)
}

// Handle returns the placed handle of kind k.
func (s *Set) Handle(k Kind) (Handle, bool) {
	for _, h := range s.handles {
		if h.Kind == k {
			return h, true
		}
	}
	return Handle{}, false
}

// HitTest returns the handle under pos, or None. Later handles win so the
// rotation handle is tested first.
func (s *Set) HitTest(pos geom.Point, viewScale float64) Kind {
	if !s.Visible() {
		return None
	}
	for i := len(s.handles) - 1; i >= 0; i-- {
		h := s.handles[i]
		if h.Rect(s.size, viewScale).ContainsPoint(pos) {
			return h.Kind
		}
	}
	return None
}

// Highlight marks k as hovered and clears any other highlight.
func (s *Set) Highlight(k Kind) {
	for i := range s.handles {
		s.handles[i].Highlighted = s.handles[i].Kind == k
	}
}

// --- Drag state ---

// BeginDrag starts tracking a drag of handle k. It fails when no handle of
// that kind is placed.
func (s *Set) BeginDrag(k Kind, pos geom.Point) bool {
	if _, ok := s.Handle(k); !ok || k == None {
		return false
	}
	d := &drag{kind: k, start: pos, last: pos}
	for _, t := range s.Targets() {
		d.targets = append(d.targets, t.ID())
	}
	s.drag = d
	s.Highlight(k)
	return true
}

// DragTo records a new pointer position. If any drag target has left the
// scene the drag is aborted and DragTo returns false.
func (s *Set) DragTo(pos geom.Point) bool {
	if s.drag == nil {
		return false
	}
	if !s.targetsAlive() {
		s.AbortDrag()
		return false
	}
	s.drag.last = pos
	return true
}

// EndDrag finishes the drag and returns the handle that was dragged.
func (s *Set) EndDrag() Kind {
	if s.drag == nil {
		return None
	}
	k := s.drag.kind
	s.drag = nil
	s.Highlight(None)
	return k
}

// AbortDrag drops the drag without further updates.
func (s *Set) AbortDrag() {
	s.drag = nil
	s.Highlight(None)
	s.Refresh()
}

// Dragging returns the handle being dragged.
func (s *Set) Dragging() (Kind, bool) {
	if s.drag == nil {
		return None, false
	}
	return s.drag.kind, true
}

// DragDelta returns the pointer movement since BeginDrag.
func (s *Set) DragDelta() geom.Point {
	if s.drag == nil {
		return geom.Point{}
	}
	return s.drag.last.Sub(s.drag.start)
}

func (s *Set) targetsAlive() bool {
	for _, id := range s.drag.targets {
		if _, ok := s.resolver.Shape(id); !ok {
			return false
		}
	}
	return len(s.drag.targets) > 0
}
