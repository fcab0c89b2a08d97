package scene

// SelectedShapes returns the selected shapes back to front.
func (sc *Scene) SelectedShapes() []*Shape {
	var out []*Shape
	for _, id := range sc.order {
		if s := sc.shapes[id]; s.selected {
			out = append(out, s)
		}
	}
	return out
}

// SelectedIDs returns the IDs of SelectedShapes.
func (sc *Scene) SelectedIDs() []string {
	var ids []string
	for _, s := range sc.SelectedShapes() {
		ids = append(ids, s.id)
	}
	return ids
}

// Select marks id selected. Unless additive, everything else is deselected.
func (sc *Scene) Select(id string, additive bool) bool {
	s, ok := sc.shapes[id]
	if !ok || !s.Selectable() {
		return false
	}
	changed := false
	if !additive {
		changed = sc.clear(id)
	}
	if !s.selected {
		s.selected = true
		changed = true
	}
	if changed {
		sc.emitSelectionChanged()
	}
	return true
}

// Toggle flips the selection of id.
func (sc *Scene) Toggle(id string) bool {
	s, ok := sc.shapes[id]
	if !ok || !s.Selectable() {
		return false
	}
	sc.setSelected(s, !s.selected)
	return true
}

// SetSelection replaces the selection with ids, skipping unselectable ones.
func (sc *Scene) SetSelection(ids []string) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if s, ok := sc.shapes[id]; ok && s.Selectable() {
			want[id] = true
		}
	}
	changed := false
	for _, s := range sc.shapes {
		if s.selected != want[s.id] {
			s.selected = want[s.id]
			changed = true
		}
	}
	if changed {
		sc.emitSelectionChanged()
	}
}

// SelectAll selects every selectable top-level shape.
func (sc *Scene) SelectAll() {
	var ids []string
	for _, s := range sc.TopLevel() {
		ids = append(ids, s.id)
	}
	sc.SetSelection(ids)
}

func (sc *Scene) ClearSelection() {
	if sc.clear("") {
		sc.emitSelectionChanged()
	}
}

func (sc *Scene) clear(keep string) bool {
	changed := false
	for id, s := range sc.shapes {
		if id != keep && s.selected {
			s.selected = false
			changed = true
		}
	}
	return changed
}

func (sc *Scene) setSelected(s *Shape, selected bool) {
	if selected && !s.Selectable() {
		return
	}
	if s.selected == selected {
		return
	}
	s.selected = selected
	sc.emitSelectionChanged()
}
