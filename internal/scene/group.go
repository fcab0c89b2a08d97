package scene

import (
	"slices"

	"github.com/vectorflow/vectorflow/internal/document"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/typeid"
)

// Bake folds a parent-frame delta into a child's own transform so that
// delta · T(pos) · m == T(pos) · Bake(delta, pos, m). An exact identity
// delta returns m untouched.
func Bake(delta geom.Matrix2D, pos geom.Point, m geom.Matrix2D) geom.Matrix2D {
	if delta == geom.Identity() {
		return m
	}
	return geom.Translate(-pos.X, -pos.Y).
		Multiply(delta).
		Multiply(geom.Translate(pos.X, pos.Y)).
		Multiply(m)
}

// Group creates a persistent group from the selectable top-level shapes in
// ids. The group is placed in z-order just above its topmost member and
// becomes the selection.
func (sc *Scene) Group(ids []string) (*Shape, bool) {
	return sc.GroupWithID(typeid.NewGroupID(), ids)
}

// GroupWithID is Group with a caller-chosen ID, used to replay a grouping.
func (sc *Scene) GroupWithID(gid string, ids []string) (*Shape, bool) {
	if sc.active != nil || gid == "" {
		return nil, false
	}
	if _, taken := sc.shapes[gid]; taken {
		return nil, false
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var members []*Shape
	top := -1
	for i, id := range sc.order {
		s := sc.shapes[id]
		if want[id] && s.Selectable() {
			members = append(members, s)
			top = i
		}
	}
	if len(members) == 0 {
		return nil, false
	}

	g := &Shape{
		id:        gid,
		kind:      KindGroup,
		transform: geom.Identity(),
		style:     document.Style{Opacity: 1},
		visible:   true,
		scene:     sc,
	}
	for _, m := range members {
		m.group = gid
		m.selected = false
		g.members = append(g.members, m.id)
	}
	sc.shapes[gid] = g
	sc.order = slices.Insert(sc.order, top+1, gid)

	sc.clear("")
	g.selected = true
	sc.modified = true
	sc.emitSelectionChanged()
	return g, true
}

// UngroupRecord holds what Regroup needs to reverse an Ungroup.
type UngroupRecord struct {
	group   *Shape
	index   int
	changes []TransformChange
}

// Changes returns the member transforms before and after baking.
func (r UngroupRecord) Changes() []TransformChange { return r.changes }

// Ungroup bakes the group's placement into each member and deletes the group.
// Members move to the group's parent and become selected when top level.
func (sc *Scene) Ungroup(id string) (UngroupRecord, bool) {
	g, ok := sc.shapes[id]
	if !ok || g.kind != KindGroup || sc.active != nil {
		return UngroupRecord{}, false
	}

	rec := UngroupRecord{group: g, index: slices.Index(sc.order, id)}
	place := geom.Translate(g.pos.X, g.pos.Y).Multiply(g.transform)

	sc.clear("")
	for _, mid := range g.members {
		m, ok := sc.shapes[mid]
		if !ok {
			continue
		}
		before := m.transform
		m.transform = Bake(place, m.pos, m.transform)
		m.group = g.group
		m.selected = g.group == "" && m.Selectable()
		rec.changes = append(rec.changes, TransformChange{ID: mid, Before: before, After: m.transform})
	}

	if p, ok := sc.shapes[g.group]; ok {
		i := slices.Index(p.members, id)
		p.members = slices.Replace(p.members, i, i+1, g.members...)
	}

	sc.order = slices.Delete(sc.order, rec.index, rec.index+1)
	delete(sc.shapes, id)
	g.scene = nil
	g.selected = false

	sc.modified = true
	sc.emitSelectionChanged()
	return rec, true
}

// Regroup reverses Ungroup: member transforms are restored and the group
// shape is reinserted.
func (sc *Scene) Regroup(rec UngroupRecord) bool {
	g := rec.group
	if g == nil || g.scene != nil || sc.active != nil {
		return false
	}
	if _, taken := sc.shapes[g.id]; taken {
		return false
	}

	before := make(map[string]geom.Matrix2D, len(rec.changes))
	for _, c := range rec.changes {
		before[c.ID] = c.Before
	}

	sc.clear("")
	for _, mid := range g.members {
		m, ok := sc.shapes[mid]
		if !ok {
			continue
		}
		if t, ok := before[mid]; ok {
			m.transform = t
		}
		m.group = g.id
		m.selected = false
	}

	if p, ok := sc.shapes[g.group]; ok {
		at := len(p.members)
		isMember := func(id string) bool { return slices.Contains(g.members, id) }
		if i := slices.IndexFunc(p.members, isMember); i >= 0 {
			at = i
		}
		p.members = slices.DeleteFunc(p.members, isMember)
		p.members = slices.Insert(p.members, min(at, len(p.members)), g.id)
	}

	sc.order = slices.Insert(sc.order, min(max(rec.index, 0), len(sc.order)), g.id)
	sc.shapes[g.id] = g
	g.scene = sc
	g.selected = g.Selectable()

	sc.modified = true
	sc.emitSelectionChanged()
	return true
}
