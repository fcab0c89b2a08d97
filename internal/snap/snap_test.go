package snap

import (
	"testing"

	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/scene"
)

func testConfig() Config {
	return ConfigFromEditor(config.DefaultEditor())
}

func TestSnapToGridBoundary(t *testing.T) {
	tests := []struct {
		name      string
		grid, tol float64
		x         float64
		wantX     float64
		snapped   bool
	}{
		{"below line", 20, 10, 109, 100, true},
		{"nearest is next line", 20, 10, 111, 120, true},
		{"exactly tolerance", 20, 10, 110, 120, true},
		{"tolerance plus one", 50, 10, 111, 111, false},
		{"tolerance minus one", 50, 10, 109, 100, true},
		{"negative axis", 20, 3, -41, -40, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.GridSize, cfg.Tolerance = tt.grid, tt.tol
			res := New(cfg).SnapToGrid(geom.Pt(tt.x, 0))
			if res.Pos.X != tt.wantX || res.SnappedX != tt.snapped {
				t.Fatalf("got (%v, %v), want (%v, %v)", res.Pos.X, res.SnappedX, tt.wantX, tt.snapped)
			}
		})
	}
}

func TestSnapToGridAxesIndependent(t *testing.T) {
	cfg := testConfig()
	cfg.GridSize, cfg.Tolerance = 50, 5
	res := New(cfg).SnapToGrid(geom.Pt(102, 125))
	if !res.SnappedX || res.SnappedY {
		t.Fatalf("got snappedX=%v snappedY=%v", res.SnappedX, res.SnappedY)
	}
	if res.Pos != geom.Pt(100, 125) {
		t.Fatalf("got %+v", res.Pos)
	}
}

func TestDisabledIsNoop(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	cfg.ObjectSnap = false
	e := New(cfg)

	sc := scene.New()
	sc.AddGuide(geom.Vertical, 101)
	pos := geom.Pt(99, 99)

	if res := e.SnapToGrid(pos); res.Snapped() || res.Pos != pos {
		t.Fatalf("grid snapped while disabled: %+v", res)
	}
	if res := e.SnapToGuides(pos, sc.VisibleGuides()); res.Snapped || res.Pos != pos {
		t.Fatalf("guide snapped while disabled: %+v", res)
	}
	if res := e.Snap(pos, sc); res.Snapped() || res.Pos != pos {
		t.Fatalf("combined snapped while disabled: %+v", res)
	}
}

func TestSnapToGuidesPicksNearest(t *testing.T) {
	sc := scene.New()
	sc.AddGuide(geom.Vertical, 95)
	sc.AddGuide(geom.Horizontal, 203)
	sc.AddGuide(geom.Vertical, 104)

	res := New(testConfig()).SnapToGuides(geom.Pt(102, 200), sc.VisibleGuides())
	if !res.Snapped || res.Orientation != geom.Vertical || res.Guide.Position != 104 {
		t.Fatalf("got %+v, want vertical guide at 104", res)
	}
	if res.Pos != geom.Pt(104, 200) {
		t.Fatalf("only x should move, got %+v", res.Pos)
	}

	sc.SetGuideVisible(geom.Vertical, 104, false)
	res = New(testConfig()).SnapToGuides(geom.Pt(102, 200), sc.VisibleGuides())
	if res.Guide.Position != 203 || res.Pos != geom.Pt(102, 203) {
		t.Fatalf("hidden guide should be skipped, got %+v", res)
	}
}

func TestSnapToObjects(t *testing.T) {
	sc := scene.New()
	a := scene.NewShape(scene.KindRect, geom.Rect{Width: 100, Height: 100})
	a.SetPos(geom.Pt(200, 200))
	sc.Add(a)
	moving := scene.NewShape(scene.KindRect, geom.Rect{Width: 10, Height: 10})
	sc.Add(moving)

	e := New(testConfig())

	res := e.SnapToObjects(geom.Pt(254, 196), sc, moving.ID())
	if !res.Snapped || res.Kind != PointTop || res.ShapeID != a.ID() {
		t.Fatalf("got %+v, want top edge of a", res)
	}
	if res.Pos != geom.Pt(250, 200) {
		t.Fatalf("got %+v", res.Pos)
	}

	res = e.SnapToObjects(geom.Pt(5, 5), sc, moving.ID())
	if res.Snapped {
		t.Fatalf("excluded shape must not attract: %+v", res)
	}

	// 8 along x and 7 along y is within per-axis tolerance but beyond it by Euclidean distance
	res = e.SnapToObjects(geom.Pt(192, 193), sc, moving.ID())
	if res.Snapped {
		t.Fatalf("distance is Euclidean, got %+v", res)
	}
}

func TestSnapPriority(t *testing.T) {
	sc := scene.New()
	a := scene.NewShape(scene.KindRect, geom.Rect{Width: 30, Height: 30})
	a.SetPos(geom.Pt(203, 203))
	sc.Add(a)
	sc.AddGuide(geom.Horizontal, 57)

	e := New(testConfig())

	res := e.Snap(geom.Pt(205, 205), sc)
	if res.Source != SourceObject || res.Pos != geom.Pt(203, 203) {
		t.Fatalf("object should win over grid, got %+v", res)
	}

	cfg := testConfig()
	cfg.Tolerance = 4
	e.SetConfig(cfg)
	res = e.Snap(geom.Pt(61, 55), sc)
	if res.Source != SourceGrid || res.Pos != geom.Pt(60, 57) {
		t.Fatalf("grid x then guide y, got %+v", res)
	}

	res = e.Snap(geom.Pt(70, 55), sc)
	if res.Source != SourceGuide || res.Pos != geom.Pt(70, 57) {
		t.Fatalf("guide alone, got %+v", res)
	}
}

func TestPoints(t *testing.T) {
	pts := Points("s", geom.Rect{X: 0, Y: 0, Width: 10, Height: 20})
	if len(pts) != 9 {
		t.Fatalf("got %d points, want 9", len(pts))
	}
	counts := map[PointKind]int{}
	for _, p := range pts {
		counts[p.Kind]++
	}
	if counts[PointCorner] != 4 || counts[PointCenter] != 1 {
		t.Fatalf("got %v", counts)
	}
	if PointLeft.String() != "left edge" {
		t.Fatalf("got %q", PointLeft.String())
	}
}

func TestAlignToGrid(t *testing.T) {
	got := AlignToGrid(geom.Rect{X: 31, Y: 9, Width: 7, Height: 7}, 20)
	if got != (geom.Rect{X: 40, Y: 0, Width: 7, Height: 7}) {
		t.Fatalf("got %+v", got)
	}
}
