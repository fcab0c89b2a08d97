// Package session implements the grab/transform/ungrab protocol that turns a
// pointer drag on a handle (or on the selection body) into a transform of the
// selected shapes.
//
// A session opens a scene.SelectionGroup over the selection, replaces the
// group transform on every pointer move, and on release either bakes that
// transform into each shape or discards it. The anchor and the grab-time
// bounds are fixed for the whole session.
package session

import (
	"log/slog"
	"math"
	"time"

	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/handle"
	"github.com/vectorflow/vectorflow/internal/input"
	"github.com/vectorflow/vectorflow/internal/scene"
	"github.com/vectorflow/vectorflow/internal/schedule"
)

type State int

const (
	Idle State = iota
	Grabbed
)

func (s State) String() string {
	if s == Grabbed {
		return "GRABBED"
	}
	return "IDLE"
}

type Mode int

const (
	ModeNone Mode = iota
	ModeScale
	ModeRotate
	ModeMove
)

func (m Mode) String() string {
	switch m {
	case ModeScale:
		return "scale"
	case ModeRotate:
		return "rotate"
	case ModeMove:
		return "move"
	default:
		return "none"
	}
}

type Config struct {
	MinScale     float64
	MaxScale     float64
	DashInterval time.Duration
}

func ConfigFromEditor(ed config.Editor) Config {
	return Config{MinScale: ed.MinScale, MaxScale: ed.MaxScale, DashInterval: ed.DashInterval}
}

// Commit describes a finished session for the undo stack.
type Commit struct {
	Mode    Mode
	Handle  handle.Kind
	Changes []scene.TransformChange
}

// Name is a human-readable label for the commit.
func (c Commit) Name() string {
	switch c.Mode {
	case ModeScale:
		return "Scale"
	case ModeRotate:
		return "Rotate"
	case ModeMove:
		return "Move"
	default:
		return "Transform"
	}
}

type Session struct {
	scene *scene.Scene
	queue *schedule.Queue
	cfg   Config

	state   State
	mode    Mode
	handle  handle.Kind
	grabPos geom.Point
	lastPos geom.Point
	bounds  geom.Rect
	anchor  geom.Point

	rotation  float64
	lastAngle float64

	group     *scene.SelectionGroup
	aids      *Aids
	dashTimer *schedule.Timer

	commitListeners []func(Commit)
}

func New(sc *scene.Scene, q *schedule.Queue, cfg Config) *Session {
	return &Session{scene: sc, queue: q, cfg: cfg}
}

// OnCommit registers fn to receive every applied session.
func (s *Session) OnCommit(fn func(Commit)) {
	s.commitListeners = append(s.commitListeners, fn)
}

func (s *Session) State() State        { return s.state }
func (s *Session) Active() bool        { return s.state == Grabbed }
func (s *Session) Mode() Mode          { return s.mode }
func (s *Session) Handle() handle.Kind { return s.handle }

// Bounds returns the union bounds of the targets captured at grab time.
func (s *Session) Bounds() geom.Rect { return s.bounds }

// Anchor returns the fixed scale anchor, rotation pivot or move origin.
func (s *Session) Anchor() geom.Point { return s.anchor }

// Rotation returns the accumulated rotation in radians.
func (s *Session) Rotation() float64 { return s.rotation }

// GroupTransform returns the current group transform, identity when idle.
func (s *Session) GroupTransform() geom.Matrix2D {
	if s.group == nil {
		return geom.Identity()
	}
	return s.group.Transform()
}

// TargetIDs returns the shapes being transformed.
func (s *Session) TargetIDs() []string {
	if s.group == nil {
		return nil
	}
	return s.group.IDs()
}

// LiveBounds returns the current union bounds of the targets, including the
// in-flight group transform.
func (s *Session) LiveBounds() geom.Rect {
	if s.group == nil {
		return geom.Rect{}
	}
	return s.group.Bounds()
}

// Grab starts a scale or rotate session on handle k. It returns false, and
// leaves the session idle, when k is not a transform handle or nothing is
// selected. A session already in progress is committed first.
func (s *Session) Grab(k handle.Kind, pos geom.Point, mods input.Modifiers) bool {
	switch {
	case k == handle.Rotate:
		return s.grab(ModeRotate, k, pos, mods)
	case k.IsScale():
		return s.grab(ModeScale, k, pos, mods)
	default:
		return false
	}
}

// GrabMove starts a translate session from a press on the selection body.
func (s *Session) GrabMove(pos geom.Point, mods input.Modifiers) bool {
	return s.grab(ModeMove, handle.None, pos, mods)
}

func (s *Session) grab(mode Mode, k handle.Kind, pos geom.Point, mods input.Modifiers) bool {
	if s.state == Grabbed {
		s.Ungrab(true)
	}

	group, ok := s.scene.BeginSelectionGroup(s.scene.SelectedShapes())
	if !ok {
		return false
	}

	s.group = group
	s.state = Grabbed
	s.mode = mode
	s.handle = k
	s.grabPos = pos
	s.lastPos = pos
	s.bounds = group.Bounds()
	s.rotation = 0
	s.anchor = s.resolveAnchor(mods)
	if mode == ModeRotate {
		s.lastAngle = angleOf(pos.Sub(s.anchor))
	}

	s.aids = newAids()
	s.updateAids()
	if s.queue != nil && s.cfg.DashInterval > 0 {
		s.dashTimer = s.queue.Every(s.cfg.DashInterval, s.aids.advanceDash)
	}

	s.scene.NotifyTransform(scene.TransformEvent{Phase: scene.PhaseBegin, Kind: mode.String(), IDs: group.IDs()})
	slog.Debug("transform grab", "mode", mode, "handle", k, "targets", len(group.IDs()))
	return true
}

// resolveAnchor fixes the session anchor from the grab-time bounds. Scaling
// pins the opposite handle, or the center with Alt. Rotation always pivots on
// the center: the rotation handle has no opposite, so Shift lands there too.
func (s *Session) resolveAnchor(mods input.Modifiers) geom.Point {
	switch s.mode {
	case ModeScale:
		if mods.Has(input.Alt) {
			return s.bounds.Center()
		}
		return handle.Position(s.handle.Opposite(), s.bounds, 0)
	case ModeRotate:
		return s.bounds.Center()
	default:
		return s.grabPos
	}
}

// Transform updates the group transform for a new pointer position. It
// returns false when idle or when the session had to abort because a target
// left the scene.
func (s *Session) Transform(pos geom.Point, mods input.Modifiers) bool {
	if s.state != Grabbed {
		return false
	}
	if !s.group.Intact() {
		s.abort()
		return false
	}

	var m geom.Matrix2D
	switch s.mode {
	case ModeRotate:
		v := pos.Sub(s.anchor)
		if v.X == 0 && v.Y == 0 {
			return true
		}
		a := angleOf(v)
		s.rotation += geom.NormalizeAngle(a - s.lastAngle)
		s.lastAngle = a
		m = geom.About(s.anchor, geom.Rotate(s.rotation))
	case ModeScale:
		sx, sy := s.scaleFactors(pos, mods)
		m = geom.About(s.anchor, geom.Scale(sx, sy))
	case ModeMove:
		d := pos.Sub(s.grabPos)
		if mods.Has(input.Shift) {
			if math.Abs(d.X) >= math.Abs(d.Y) {
				d.Y = 0
			} else {
				d.X = 0
			}
		}
		m = geom.Translate(d.X, d.Y)
	default:
		return false
	}

	s.group.SetTransform(m)
	s.lastPos = pos
	s.updateAids()
	return true
}

// scaleFactors maps the pointer to per-axis factors relative to the grab
// position. Edge handles keep the orthogonal factor at 1.
func (s *Session) scaleFactors(pos geom.Point, mods input.Modifiers) (sx, sy float64) {
	sx, sy = 1, 1
	if s.handle.ScalesX() {
		sx = geom.ClampScale(geom.SafeDiv(pos.X-s.anchor.X, s.grabPos.X-s.anchor.X), s.cfg.MinScale, s.cfg.MaxScale)
	}
	if s.handle.ScalesY() {
		sy = geom.ClampScale(geom.SafeDiv(pos.Y-s.anchor.Y, s.grabPos.Y-s.anchor.Y), s.cfg.MinScale, s.cfg.MaxScale)
	}
	if mods.Has(input.Shift) && s.handle.IsCorner() {
		mag := max(math.Abs(sx), math.Abs(sy))
		sx = math.Copysign(mag, sx)
		sy = math.Copysign(mag, sy)
	}
	return sx, sy
}

// Ungrab ends the session. With apply the group transform is baked into each
// target; otherwise every target returns to its pre-grab transform. It
// returns false when there was nothing to end or a target had vanished.
func (s *Session) Ungrab(apply bool) (Commit, bool) {
	if s.state != Grabbed {
		return Commit{}, false
	}
	if !s.group.Intact() {
		s.abort()
		return Commit{}, false
	}

	c := Commit{Mode: s.mode, Handle: s.handle}
	ids := s.group.IDs()
	phase := scene.PhaseCancel
	if apply {
		c.Changes = s.group.Commit()
		phase = scene.PhaseCommit
	} else {
		s.group.Cancel()
	}
	s.teardown()

	s.scene.NotifyTransform(scene.TransformEvent{Phase: phase, Kind: c.Mode.String(), IDs: ids})
	slog.Debug("transform ungrab", "mode", c.Mode, "apply", apply, "targets", len(ids))
	if apply {
		for _, fn := range s.commitListeners {
			fn(c)
		}
	}
	return c, true
}

// Abort cancels the session without notifying commit listeners.
func (s *Session) Abort() {
	if s.state == Grabbed {
		s.abort()
	}
}

func (s *Session) abort() {
	mode, ids := s.mode, s.group.IDs()
	s.group.Cancel()
	s.teardown()
	s.scene.NotifyTransform(scene.TransformEvent{Phase: scene.PhaseCancel, Kind: mode.String(), IDs: ids})
	slog.Debug("transform aborted", "mode", mode)
}

func (s *Session) teardown() {
	if s.dashTimer != nil {
		s.dashTimer.Stop()
		s.dashTimer = nil
	}
	s.aids = nil
	s.group = nil
	s.state = Idle
	s.mode = ModeNone
	s.handle = handle.None
	s.rotation = 0
}

func angleOf(v geom.Point) float64 {
	return math.Atan2(v.Y, v.X)
}
