package scene

import (
	"fmt"

	"github.com/vectorflow/vectorflow/internal/document"
)

// FromDocument builds a scene from a validated drawing.
func FromDocument(d *document.Drawing) (*Scene, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("load drawing: %w", err)
	}

	sc := New()
	for _, n := range d.Shapes {
		kind, err := KindOf(n.Type)
		if err != nil {
			return nil, fmt.Errorf("shape %s: %w", n.ID, err)
		}
		s := &Shape{
			id:        n.ID,
			kind:      kind,
			name:      n.Name,
			local:     n.Bounds,
			pos:       n.Pos,
			transform: n.Transform,
			style:     n.Style,
			points:    n.Points,
			text:      n.Text,
			visible:   n.Visible,
			locked:    n.Locked,
			group:     n.Group,
			members:   append([]string(nil), n.Members...),
			scene:     sc,
		}
		if len(s.points) > 0 && s.local.IsNull() {
			s.local = boundsOfPoints(s.points)
		}
		sc.shapes[s.id] = s
		sc.order = append(sc.order, s.id)
	}

	for _, g := range d.Guides {
		sc.guides = append(sc.guides, Guide{
			ID:          g.ID,
			Orientation: g.Orientation,
			Position:    g.Position,
			Visible:     g.Visible,
			Color:       g.Color,
		})
	}
	if d.Grid.Size > 0 {
		sc.grid = Grid{Size: d.Grid.Size, Visible: d.Grid.Visible, Snap: d.Grid.Snap}
	}
	return sc, nil
}

// ToDocument writes the committed scene state into a copy of header. An open
// selection group is not reflected; members report their pre-grab transforms.
func (sc *Scene) ToDocument(header document.Drawing) *document.Drawing {
	d := header
	d.Version = document.CurrentVersion
	d.Shapes = make([]document.ShapeNode, 0, len(sc.order))
	for _, id := range sc.order {
		s := sc.shapes[id]
		transform := s.transform
		if sg := sc.active; sg != nil {
			if m, ok := sg.initial[id]; ok {
				transform = m
			}
		}
		d.Shapes = append(d.Shapes, document.ShapeNode{
			ID:        s.id,
			Type:      s.kind.Type(),
			Name:      s.name,
			Bounds:    s.local,
			Pos:       s.pos,
			Transform: transform,
			Style:     s.style,
			Points:    s.points,
			Text:      s.text,
			Visible:   s.visible,
			Locked:    s.locked,
			Group:     s.group,
			Members:   append([]string(nil), s.members...),
		})
	}

	d.Guides = make([]document.Guide, 0, len(sc.guides))
	for _, g := range sc.guides {
		d.Guides = append(d.Guides, document.Guide(g))
	}
	d.Grid = document.Grid{Size: sc.grid.Size, Visible: sc.grid.Visible, Snap: sc.grid.Snap}
	return &d
}
