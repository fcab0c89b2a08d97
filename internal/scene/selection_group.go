package scene

import "github.com/vectorflow/vectorflow/internal/geom"

// TransformChange is one shape's transform before and after a commit.
type TransformChange struct {
	ID     string        `json:"id"`
	Before geom.Matrix2D `json:"before"`
	After  geom.Matrix2D `json:"after"`
}

// Unchanged reports whether the commit left the transform bit-identical.
func (c TransformChange) Unchanged() bool { return c.Before == c.After }

// SelectionGroup temporarily parents a set of top-level shapes under one
// transform. Members keep their own transforms untouched until Commit bakes
// the group transform into them; Cancel discards it.
type SelectionGroup struct {
	scene     *Scene
	ids       []string
	members   map[string]bool
	initial   map[string]geom.Matrix2D
	transform geom.Matrix2D
	closed    bool
}

// BeginSelectionGroup parents shapes under a new selection group. It fails
// when another group is open or no shape qualifies.
func (sc *Scene) BeginSelectionGroup(shapes []*Shape) (*SelectionGroup, bool) {
	if sc.active != nil {
		return nil, false
	}
	g := &SelectionGroup{
		scene:     sc,
		members:   make(map[string]bool),
		initial:   make(map[string]geom.Matrix2D),
		transform: geom.Identity(),
	}
	for _, s := range shapes {
		if s == nil || s.scene != sc || s.group != "" || g.members[s.id] {
			continue
		}
		g.ids = append(g.ids, s.id)
		g.members[s.id] = true
		g.initial[s.id] = s.transform
	}
	if len(g.ids) == 0 {
		return nil, false
	}
	sc.active = g
	return g, true
}

// ActiveSelectionGroup returns the open selection group, if any.
func (sc *Scene) ActiveSelectionGroup() (*SelectionGroup, bool) {
	return sc.active, sc.active != nil
}

func (g *SelectionGroup) IDs() []string { return append([]string(nil), g.ids...) }

// Shapes returns the members that are still in the scene.
func (g *SelectionGroup) Shapes() []*Shape {
	out := make([]*Shape, 0, len(g.ids))
	for _, id := range g.ids {
		if s, ok := g.scene.shapes[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Intact reports whether every member is still in the scene.
func (g *SelectionGroup) Intact() bool {
	for _, id := range g.ids {
		if _, ok := g.scene.shapes[id]; !ok {
			return false
		}
	}
	return true
}

// InitialTransform returns a member's transform at the time the group opened.
func (g *SelectionGroup) InitialTransform(id string) (geom.Matrix2D, bool) {
	m, ok := g.initial[id]
	return m, ok
}

func (g *SelectionGroup) Transform() geom.Matrix2D { return g.transform }

// SetTransform replaces the group transform.
func (g *SelectionGroup) SetTransform(m geom.Matrix2D) {
	if g.closed {
		return
	}
	g.transform = m
}

// Bounds returns the union of member scene bounds under the current group
// transform.
func (g *SelectionGroup) Bounds() geom.Rect {
	return UnionBounds(g.Shapes())
}

func (g *SelectionGroup) Closed() bool { return g.closed }

// Commit bakes the group transform into each live member and closes the
// group. Members stay selected.
func (g *SelectionGroup) Commit() []TransformChange {
	if g.closed {
		return nil
	}
	changes := make([]TransformChange, 0, len(g.ids))
	for _, s := range g.Shapes() {
		before := g.initial[s.id]
		after := Bake(g.transform, s.pos, before)
		s.transform = after
		s.selected = s.Selectable()
		changes = append(changes, TransformChange{ID: s.id, Before: before, After: after})
	}
	g.close()
	return changes
}

// Cancel restores every member to its initial transform and closes the group.
func (g *SelectionGroup) Cancel() {
	if g.closed {
		return
	}
	for _, s := range g.Shapes() {
		s.transform = g.initial[s.id]
	}
	g.transform = geom.Identity()
	g.close()
}

func (g *SelectionGroup) close() {
	g.closed = true
	if g.scene.active == g {
		g.scene.active = nil
	}
}
