// Package snap adjusts pointer positions to the grid, to guides and to the
// key points of other shapes. Each source is independent and becomes a no-op
// returning the input position when disabled.
package snap

import (
	"math"

	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/scene"
)

type Config struct {
	Enabled         bool
	GridSize        float64
	GridSnap        bool
	Tolerance       float64
	ObjectSnap      bool
	ObjectTolerance float64
	Guides          bool
}

// ConfigFromEditor derives snapping settings from the editor configuration.
func ConfigFromEditor(ed config.Editor) Config {
	return Config{
		Enabled:         ed.SnapEnabled,
		GridSize:        ed.GridSize,
		GridSnap:        ed.GridSnap,
		Tolerance:       ed.SnapTolerance,
		ObjectSnap:      ed.ObjectSnap,
		ObjectTolerance: ed.ObjectSnapTolerance,
		Guides:          ed.GuidesEnabled,
	}
}

type Source int

const (
	SourceNone Source = iota
	SourceGrid
	SourceGuide
	SourceObject
)

func (s Source) String() string {
	switch s {
	case SourceGrid:
		return "grid"
	case SourceGuide:
		return "guide"
	case SourceObject:
		return "object"
	default:
		return "none"
	}
}

type GridResult struct {
	Pos      geom.Point
	SnappedX bool
	SnappedY bool
}

func (r GridResult) Snapped() bool { return r.SnappedX || r.SnappedY }

type GuideResult struct {
	Pos         geom.Point
	Snapped     bool
	Orientation geom.Orientation
	Guide       scene.Guide
	Distance    float64
}

type ObjectResult struct {
	Pos      geom.Point
	Snapped  bool
	Kind     PointKind
	ShapeID  string
	Distance float64
}

// Result is the combined outcome of Snap. Source names the highest-priority
// source that moved the position.
type Result struct {
	Pos    geom.Point
	Source Source
	Grid   GridResult
	Guide  GuideResult
	Object ObjectResult
}

func (r Result) Snapped() bool { return r.Source != SourceNone }

type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) SetConfig(cfg Config) { e.cfg = cfg }

// SnapToGrid snaps each axis independently to the nearest grid line when it
// lies within the tolerance.
func (e *Engine) SnapToGrid(pos geom.Point) GridResult {
	res := GridResult{Pos: pos}
	if !e.cfg.Enabled || !e.cfg.GridSnap || e.cfg.GridSize <= 0 {
		return res
	}
	g, tol := e.cfg.GridSize, e.cfg.Tolerance

	if gx := math.Round(pos.X/g) * g; math.Abs(pos.X-gx) <= tol {
		res.Pos.X = gx
		res.SnappedX = true
	}
	if gy := math.Round(pos.Y/g) * g; math.Abs(pos.Y-gy) <= tol {
		res.Pos.Y = gy
		res.SnappedY = true
	}
	return res
}

// SnapToGuides moves the axis perpendicular to the nearest visible guide
// within tolerance. Ties keep the guide listed first.
func (e *Engine) SnapToGuides(pos geom.Point, guides []scene.Guide) GuideResult {
	res := GuideResult{Pos: pos}
	if !e.cfg.Enabled || !e.cfg.Guides {
		return res
	}

	best := math.Inf(1)
	for _, g := range guides {
		if !g.Visible {
			continue
		}
		var d float64
		if g.Orientation == geom.Vertical {
			d = math.Abs(pos.X - g.Position)
		} else {
			d = math.Abs(pos.Y - g.Position)
		}
		if d > e.cfg.Tolerance || d >= best {
			continue
		}
		best = d
		res = GuideResult{Pos: pos, Snapped: true, Orientation: g.Orientation, Guide: g, Distance: d}
		if g.Orientation == geom.Vertical {
			res.Pos.X = g.Position
		} else {
			res.Pos.Y = g.Position
		}
	}
	return res
}

// SnapToObjects snaps to the nearest key point of a visible top-level shape
// other than those in exclude, measured by Euclidean distance.
func (e *Engine) SnapToObjects(pos geom.Point, sc *scene.Scene, exclude ...string) ObjectResult {
	res := ObjectResult{Pos: pos}
	if !e.cfg.ObjectSnap || sc == nil {
		return res
	}

	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	best := math.Inf(1)
	for _, s := range sc.TopLevel() {
		if skip[s.ID()] || !s.Visible() {
			continue
		}
		for _, p := range Points(s.ID(), s.SceneBounds()) {
			d := pos.Distance(p.Pos)
			if d > e.cfg.ObjectTolerance || d >= best {
				continue
			}
			best = d
			res = ObjectResult{Pos: p.Pos, Snapped: true, Kind: p.Kind, ShapeID: s.ID(), Distance: d}
		}
	}
	return res
}

// Snap combines the three sources. An object match wins outright. Otherwise
// the grid snaps what it can and guides fill in axes the grid left alone.
func (e *Engine) Snap(pos geom.Point, sc *scene.Scene, exclude ...string) Result {
	res := Result{Pos: pos}

	res.Object = e.SnapToObjects(pos, sc, exclude...)
	if res.Object.Snapped {
		res.Pos = res.Object.Pos
		res.Source = SourceObject
		return res
	}

	res.Grid = e.SnapToGrid(pos)
	res.Pos = res.Grid.Pos
	if res.Grid.Snapped() {
		res.Source = SourceGrid
	}

	if sc == nil {
		return res
	}
	res.Guide = e.SnapToGuides(pos, sc.VisibleGuides())
	if !res.Guide.Snapped {
		return res
	}
	switch {
	case res.Guide.Orientation == geom.Vertical && !res.Grid.SnappedX:
		res.Pos.X = res.Guide.Pos.X
	case res.Guide.Orientation == geom.Horizontal && !res.Grid.SnappedY:
		res.Pos.Y = res.Guide.Pos.Y
	default:
		return res
	}
	if res.Source == SourceNone {
		res.Source = SourceGuide
	}
	return res
}

// AlignToGrid moves r so its top-left corner sits on the nearest grid point.
func AlignToGrid(r geom.Rect, gridSize float64) geom.Rect {
	if gridSize <= 0 {
		return r
	}
	r.X = math.Round(r.X/gridSize) * gridSize
	r.Y = math.Round(r.Y/gridSize) * gridSize
	return r
}
