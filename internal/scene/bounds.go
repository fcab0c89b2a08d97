package scene

import "github.com/vectorflow/vectorflow/internal/geom"

// LocalBounds returns s's bounding box in its own frame. A group's box is the
// union of its members' boxes mapped through T(pos) · transform.
func LocalBounds(s *Shape) geom.Rect {
	g, ok := s.AsGroup()
	if !ok {
		return s.local
	}
	var r geom.Rect
	for _, m := range g.Members() {
		place := geom.Translate(m.pos.X, m.pos.Y).Multiply(m.transform)
		r = r.Union(place.TransformRect(LocalBounds(m)))
	}
	return r
}

// SceneBounds returns s's axis-aligned box in scene coordinates. Groups use
// the union of their members so rotated members are not padded twice.
func SceneBounds(s *Shape) geom.Rect {
	if g, ok := s.AsGroup(); ok {
		return UnionBounds(g.Members())
	}
	return s.SceneTransform().TransformRect(s.local)
}

// SceneQuad returns the four corners of the local box in scene coordinates.
func SceneQuad(s *Shape) [4]geom.Point {
	return s.SceneTransform().TransformQuad(LocalBounds(s))
}

// UnionBounds returns the union of the scene bounds of shapes. Null boxes do
// not contribute; the result is the zero Rect when nothing does.
func UnionBounds(shapes []*Shape) geom.Rect {
	var r geom.Rect
	for _, s := range shapes {
		r = r.Union(SceneBounds(s))
	}
	return r
}
