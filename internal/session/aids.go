package session

import (
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/scene"
)

const dashStep = 0.5

// DashPattern is the marching-ants dash and gap length.
var DashPattern = [2]float64{4, 2}

// Aids are the visual helpers shown while a session is grabbed: the fixed
// anchor, the current drag point and the dashed outline of the targets.
type Aids struct {
	Anchor     geom.Point      `json:"anchor"`
	DragPoint  geom.Point      `json:"dragPoint"`
	Outline    geom.Rect       `json:"outline"`
	Quads      [][4]geom.Point `json:"quads"`
	DashOffset float64         `json:"dashOffset"`
}

func newAids() *Aids {
	return &Aids{}
}

func (a *Aids) advanceDash() {
	a.DashOffset += dashStep
	if period := DashPattern[0] + DashPattern[1]; a.DashOffset >= period {
		a.DashOffset -= period
	}
}

// Aids returns a snapshot of the visual helpers, or false when idle.
func (s *Session) Aids() (Aids, bool) {
	if s.aids == nil {
		return Aids{}, false
	}
	out := *s.aids
	out.Quads = append([][4]geom.Point(nil), s.aids.Quads...)
	return out, true
}

func (s *Session) updateAids() {
	if s.aids == nil || s.group == nil {
		return
	}
	s.aids.Anchor = s.anchor
	s.aids.DragPoint = s.lastPos
	s.aids.Outline = s.group.Bounds()
	s.aids.Quads = s.aids.Quads[:0]
	for _, sh := range s.group.Shapes() {
		s.aids.Quads = append(s.aids.Quads, scene.SceneQuad(sh))
	}
}
