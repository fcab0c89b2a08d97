// Package scene holds the shape arena that the editor manipulates: shapes
// indexed by ID in z-order, selection state, persistent groups, guides and
// the transient selection group used during interactive transforms.
package scene

import (
	"slices"

	"github.com/vectorflow/vectorflow/internal/geom"
)

// Phase identifies a transform lifecycle notification.
type Phase int

const (
	PhaseBegin Phase = iota
	PhaseCommit
	PhaseCancel
)

func (p Phase) String() string {
	switch p {
	case PhaseBegin:
		return "begin"
	case PhaseCommit:
		return "commit"
	default:
		return "cancel"
	}
}

// TransformEvent is emitted around an interactive transform.
type TransformEvent struct {
	Phase Phase
	Kind  string
	IDs   []string
}

type Grid struct {
	Size    float64
	Visible bool
	Snap    bool
}

type Scene struct {
	shapes map[string]*Shape
	order  []string // back to front

	guides        []Guide
	guidesVisible bool
	grid          Grid

	active   *SelectionGroup
	modified bool

	selectionListeners []func()
	transformListeners []func(TransformEvent)
}

func New() *Scene {
	return &Scene{
		shapes:        make(map[string]*Shape),
		guidesVisible: true,
		grid:          Grid{Size: 20, Snap: true},
	}
}

// Add appends s at the front of the z-order. It fails if s already belongs
// to a scene or its ID is taken.
func (sc *Scene) Add(s *Shape) bool {
	if s == nil || s.scene != nil {
		return false
	}
	if _, taken := sc.shapes[s.id]; taken {
		return false
	}
	s.scene = sc
	sc.shapes[s.id] = s
	sc.order = append(sc.order, s.id)
	sc.modified = true
	return true
}

// Shape looks up a live shape by ID.
func (sc *Scene) Shape(id string) (*Shape, bool) {
	s, ok := sc.shapes[id]
	return s, ok
}

func (sc *Scene) Len() int { return len(sc.order) }

// Shapes returns every shape back to front, group members included.
func (sc *Scene) Shapes() []*Shape {
	out := make([]*Shape, 0, len(sc.order))
	for _, id := range sc.order {
		out = append(out, sc.shapes[id])
	}
	return out
}

// TopLevel returns shapes that are not group members, back to front.
func (sc *Scene) TopLevel() []*Shape {
	out := make([]*Shape, 0, len(sc.order))
	for _, id := range sc.order {
		if s := sc.shapes[id]; s.group == "" {
			out = append(out, s)
		}
	}
	return out
}

// Removed records what Remove took out so Restore can put it back.
type Removed struct {
	items       []removedItem // ascending order index
	root        string
	parent      string
	memberIndex int
	selected    []string
}

type removedItem struct {
	shape *Shape
	index int
}

func (r Removed) IDs() []string {
	ids := make([]string, len(r.items))
	for i, it := range r.items {
		ids[i] = it.shape.id
	}
	return ids
}

// Remove takes a shape, and every member if it is a group, out of the scene.
func (sc *Scene) Remove(id string) (Removed, bool) {
	s, ok := sc.shapes[id]
	if !ok {
		return Removed{}, false
	}

	r := Removed{root: id, parent: s.group}
	r.memberIndex = -1
	if p, ok := sc.shapes[s.group]; ok {
		r.memberIndex = slices.Index(p.members, id)
		p.members = slices.Delete(p.members, r.memberIndex, r.memberIndex+1)
	}

	doomed := map[string]bool{}
	sc.collect(s, doomed)
	for i, oid := range sc.order {
		if doomed[oid] {
			r.items = append(r.items, removedItem{shape: sc.shapes[oid], index: i})
		}
	}

	selectionChanged := false
	sc.order = slices.DeleteFunc(sc.order, func(oid string) bool { return doomed[oid] })
	for _, it := range r.items {
		if it.shape.selected {
			r.selected = append(r.selected, it.shape.id)
			it.shape.selected = false
			selectionChanged = true
		}
		delete(sc.shapes, it.shape.id)
		it.shape.scene = nil
	}

	sc.modified = true
	if selectionChanged {
		sc.emitSelectionChanged()
	}
	return r, true
}

func (sc *Scene) collect(s *Shape, into map[string]bool) {
	into[s.id] = true
	for _, m := range s.members {
		if child, ok := sc.shapes[m]; ok {
			sc.collect(child, into)
		}
	}
}

// Restore reinserts what Remove took out at the original z positions.
func (sc *Scene) Restore(r Removed) {
	for _, it := range r.items {
		idx := min(it.index, len(sc.order))
		sc.order = slices.Insert(sc.order, idx, it.shape.id)
		sc.shapes[it.shape.id] = it.shape
		it.shape.scene = sc
	}
	if p, ok := sc.shapes[r.parent]; ok && r.root != "" {
		idx := min(max(r.memberIndex, 0), len(p.members))
		p.members = slices.Insert(p.members, idx, r.root)
	}
	for _, id := range r.selected {
		sc.shapes[id].selected = true
	}
	sc.modified = true
	if len(r.selected) > 0 {
		sc.emitSelectionChanged()
	}
}

// ShapeAt returns the topmost selectable shape under p. Hits on group members
// resolve to the group.
func (sc *Scene) ShapeAt(p geom.Point) (*Shape, bool) {
	for i := len(sc.order) - 1; i >= 0; i-- {
		s := sc.shapes[sc.order[i]]
		if s.group != "" || !s.Selectable() {
			continue
		}
		if s.Contains(p) {
			return s, true
		}
	}
	return nil, false
}

// ShapesIn returns selectable shapes whose scene bounds intersect r.
func (sc *Scene) ShapesIn(r geom.Rect) []*Shape {
	var out []*Shape
	for _, s := range sc.TopLevel() {
		if s.Selectable() && SceneBounds(s).Intersects(r) {
			out = append(out, s)
		}
	}
	return out
}

func (sc *Scene) Grid() Grid { return sc.grid }

func (sc *Scene) SetGrid(g Grid) {
	sc.grid = g
	sc.modified = true
}

func (sc *Scene) Modified() bool { return sc.modified }

func (sc *Scene) SetModified(modified bool) { sc.modified = modified }

// --- Notifications ---

// OnSelectionChanged registers fn to run after every selection change.
func (sc *Scene) OnSelectionChanged(fn func()) {
	sc.selectionListeners = append(sc.selectionListeners, fn)
}

// OnTransform registers fn for transform begin/commit/cancel events.
func (sc *Scene) OnTransform(fn func(TransformEvent)) {
	sc.transformListeners = append(sc.transformListeners, fn)
}

// NotifyTransform delivers ev to listeners. A commit marks the scene modified.
func (sc *Scene) NotifyTransform(ev TransformEvent) {
	if ev.Phase == PhaseCommit {
		sc.modified = true
	}
	for _, fn := range sc.transformListeners {
		fn(ev)
	}
}

func (sc *Scene) emitSelectionChanged() {
	for _, fn := range sc.selectionListeners {
		fn()
	}
}
