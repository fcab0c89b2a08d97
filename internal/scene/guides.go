package scene

import (
	"math"
	"slices"

	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/typeid"
)

const DefaultGuideColor = "#00a2ff"

// guideMatch is how close a position must be to address an existing guide.
const guideMatch = 1.0

type Guide struct {
	ID          string
	Orientation geom.Orientation
	Position    float64
	Visible     bool
	Color       string
}

// AddGuide creates a visible guide at position.
func (sc *Scene) AddGuide(o geom.Orientation, position float64) Guide {
	g := Guide{
		ID:          typeid.NewGuideID(),
		Orientation: o,
		Position:    position,
		Visible:     true,
		Color:       DefaultGuideColor,
	}
	sc.guides = append(sc.guides, g)
	sc.modified = true
	return g
}

// RemoveGuide deletes the first guide of orientation o within one unit of
// position.
func (sc *Scene) RemoveGuide(o geom.Orientation, position float64) bool {
	i := sc.findGuide(o, position)
	if i < 0 {
		return false
	}
	sc.guides = slices.Delete(sc.guides, i, i+1)
	sc.modified = true
	return true
}

// SetGuideVisible shows or hides the guide matched like RemoveGuide.
func (sc *Scene) SetGuideVisible(o geom.Orientation, position float64, visible bool) bool {
	i := sc.findGuide(o, position)
	if i < 0 {
		return false
	}
	sc.guides[i].Visible = visible
	sc.modified = true
	return true
}

func (sc *Scene) ClearGuides() {
	if len(sc.guides) == 0 {
		return
	}
	sc.guides = nil
	sc.modified = true
}

// ToggleGuides flips whether guides are shown at all.
func (sc *Scene) ToggleGuides() bool {
	sc.guidesVisible = !sc.guidesVisible
	return sc.guidesVisible
}

func (sc *Scene) GuidesShown() bool { return sc.guidesVisible }

func (sc *Scene) SetGuidesShown(shown bool) { sc.guidesVisible = shown }

// Guides returns every guide, hidden ones included.
func (sc *Scene) Guides() []Guide {
	return slices.Clone(sc.guides)
}

// VisibleGuides returns guides that take part in drawing and snapping.
func (sc *Scene) VisibleGuides() []Guide {
	if !sc.guidesVisible {
		return nil
	}
	var out []Guide
	for _, g := range sc.guides {
		if g.Visible {
			out = append(out, g)
		}
	}
	return out
}

func (sc *Scene) findGuide(o geom.Orientation, position float64) int {
	return slices.IndexFunc(sc.guides, func(g Guide) bool {
		return g.Orientation == o && math.Abs(g.Position-position) < guideMatch
	})
}
