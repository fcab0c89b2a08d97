package engine

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/document"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/input"
	"github.com/vectorflow/vectorflow/internal/scene"
	"github.com/vectorflow/vectorflow/internal/session"
	"github.com/vectorflow/vectorflow/internal/snap"
	"github.com/vectorflow/vectorflow/internal/typeid"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestEngine loads two rects: a at (100,100)-(200,200) and b at
// (300,100)-(400,150). Snapping is off unless snapOn is set.
func newTestEngine(t *testing.T, snapOn bool) (e *Engine, a, b string) {
	t.Helper()
	cfg := config.DefaultEditor()
	cfg.SnapEnabled = snapOn
	cfg.ObjectSnap = false

	a, b = typeid.NewShapeID(), typeid.NewShapeID()
	d := document.NewEmptyDrawing(typeid.NewDrawingID(), "test")
	d.Shapes = []document.ShapeNode{
		{ID: a, Type: document.ShapeTypeRect, Bounds: geom.Rect{Width: 100, Height: 100}, Pos: geom.Pt(100, 100), Transform: geom.Identity(), Visible: true},
		{ID: b, Type: document.ShapeTypeRect, Bounds: geom.Rect{Width: 100, Height: 50}, Pos: geom.Pt(300, 100), Transform: geom.Identity(), Visible: true},
	}

	e = NewEngine(cfg)
	if err := e.LoadDrawing(d); err != nil {
		t.Fatalf("LoadDrawing: %v", err)
	}
	e.Tick(epoch)
	return e, a, b
}

func down(e *Engine, x, y float64, mods input.Modifiers) bool {
	return e.PointerDown(input.PointerEvent{Pos: geom.Pt(x, y), Button: input.ButtonLeft, Modifiers: mods})
}

func move(e *Engine, x, y float64, mods input.Modifiers) bool {
	return e.PointerMove(input.PointerEvent{Pos: geom.Pt(x, y), Modifiers: mods})
}

func up(e *Engine, x, y float64) bool {
	return e.PointerUp(input.PointerEvent{Pos: geom.Pt(x, y)})
}

func key(e *Engine, k input.Key, mods input.Modifiers) bool {
	return e.KeyDown(input.KeyEvent{Key: k, Modifiers: mods})
}

func boundsOf(t *testing.T, e *Engine, id string) geom.Rect {
	t.Helper()
	s, ok := e.Scene().Shape(id)
	if !ok {
		t.Fatalf("shape %s missing", id)
	}
	return s.SceneBounds()
}

func TestDragRightHandleCommitsAndUndoes(t *testing.T) {
	e, a, _ := newTestEngine(t, false)
	e.SetSelection([]string{a})

	if !down(e, 200, 150, 0) {
		t.Fatal("press on the right handle should be consumed")
	}
	if got := e.State().Session; got != "GRABBED" {
		t.Fatalf("session got %s", got)
	}
	move(e, 250, 170, 0)
	up(e, 250, 170)

	want := geom.Rect{X: 100, Y: 100, Width: 150, Height: 100}
	if got := boundsOf(t, e, a); !got.ApproxEqual(want, 1e-9) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	st := e.State()
	if !st.CanUndo || st.UndoName != "Scale" || !st.Modified {
		t.Fatalf("unexpected state %+v", st)
	}

	if !key(e, input.KeyZ, input.Ctrl) {
		t.Fatal("undo not handled")
	}
	if got := boundsOf(t, e, a); !got.ApproxEqual(geom.Rect{X: 100, Y: 100, Width: 100, Height: 100}, 1e-9) {
		t.Fatalf("undo left %+v", got)
	}
	if !key(e, input.KeyZ, input.Ctrl|input.Shift) {
		t.Fatal("redo not handled")
	}
	if got := boundsOf(t, e, a); !got.ApproxEqual(want, 1e-9) {
		t.Fatalf("redo left %+v", got)
	}
}

func TestEscapeCancelsDrag(t *testing.T) {
	e, a, _ := newTestEngine(t, false)
	e.SetSelection([]string{a})
	s, _ := e.Scene().Shape(a)
	before := s.Transform()

	down(e, 200, 100, 0) // top-right corner
	move(e, 260, 40, 0)
	if !key(e, input.KeyEscape, 0) {
		t.Fatal("escape not handled")
	}

	if s.Transform() != before {
		t.Fatalf("transform changed to %v", s.Transform())
	}
	if e.State().CanUndo {
		t.Fatal("cancelled drag must not reach the undo stack")
	}
	if up(e, 260, 40) {
		t.Fatal("release after cancel should not be consumed")
	}
}

func TestClickSelectsAndMoves(t *testing.T) {
	e, a, b := newTestEngine(t, false)

	if !down(e, 150, 150, 0) {
		t.Fatal("press on a shape should be consumed")
	}
	if sel := e.Selection(); len(sel) != 1 || sel[0] != a {
		t.Fatalf("selection got %v", sel)
	}
	move(e, 160, 170, 0)
	up(e, 160, 170)

	if got := boundsOf(t, e, a); got.X != 110 || got.Y != 120 {
		t.Fatalf("got %+v", got)
	}
	if got := boundsOf(t, e, b); got.X != 300 {
		t.Fatalf("unselected shape moved: %+v", got)
	}
	if e.State().UndoName != "Move" {
		t.Fatalf("undo name got %q", e.State().UndoName)
	}
}

func TestCtrlClickToggles(t *testing.T) {
	e, a, b := newTestEngine(t, false)
	down(e, 150, 150, 0)
	up(e, 150, 150)
	down(e, 350, 120, input.Ctrl)
	up(e, 350, 120)

	if got := e.Selection(); len(got) != 2 {
		t.Fatalf("selection got %v, want both", got)
	}
	down(e, 150, 150, input.Ctrl)
	if got := e.Selection(); len(got) != 1 || got[0] != b {
		t.Fatalf("selection got %v, want only %s (a=%s)", got, b, a)
	}
}

func TestEmptyPressStartsRubberBand(t *testing.T) {
	e, a, b := newTestEngine(t, false)
	e.SetSelection([]string{a})

	if down(e, 50, 50, 0) {
		t.Fatal("press on empty canvas must not be consumed")
	}
	if len(e.Selection()) != 0 {
		t.Fatal("press on empty canvas should clear the selection")
	}
	move(e, 450, 130, 0)

	var bands int
	for _, c := range e.DrawCommands() {
		if c.Op == OpBand {
			bands++
		}
	}
	if bands != 1 {
		t.Fatalf("got %d band commands", bands)
	}

	up(e, 450, 130)
	got := e.Selection()
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("band selected %v", got)
	}
}

func TestNudge(t *testing.T) {
	e, a, _ := newTestEngine(t, false)
	e.SetSelection([]string{a})

	key(e, input.KeyRight, 0)
	key(e, input.KeyDown, input.Shift)
	if got := boundsOf(t, e, a); got.X != 101 || got.Y != 110 {
		t.Fatalf("got %+v", got)
	}
	key(e, input.KeyZ, input.Ctrl)
	if got := boundsOf(t, e, a); got.X != 101 || got.Y != 100 {
		t.Fatalf("after undo got %+v", got)
	}
}

func TestDeleteAndUndo(t *testing.T) {
	e, a, _ := newTestEngine(t, false)
	e.SetSelection([]string{a})

	if !key(e, input.KeyDelete, 0) {
		t.Fatal("delete not handled")
	}
	if e.Scene().Len() != 1 {
		t.Fatalf("len got %d", e.Scene().Len())
	}
	key(e, input.KeyZ, input.Ctrl)
	if e.Scene().Len() != 2 {
		t.Fatalf("undo should restore the shape, len %d", e.Scene().Len())
	}
	if got := e.Selection(); len(got) != 1 || got[0] != a {
		t.Fatalf("restored selection got %v", got)
	}
}

func TestGroupAndUngroupShortcuts(t *testing.T) {
	e, a, b := newTestEngine(t, false)
	e.SelectAll()

	if !key(e, input.KeyG, input.Ctrl) {
		t.Fatal("group not handled")
	}
	sel := e.Selection()
	if len(sel) != 1 || typeid.Prefix(sel[0]) != typeid.PrefixGroup {
		t.Fatalf("selection after group got %v", sel)
	}
	if got := e.HitTest(150, 150); got != sel[0] {
		t.Fatalf("hit on a member should resolve to the group, got %q", got)
	}

	if !key(e, input.KeyG, input.Ctrl|input.Shift) {
		t.Fatal("ungroup not handled")
	}
	if got := e.Selection(); len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("selection after ungroup got %v", got)
	}
	if e.Scene().Len() != 2 {
		t.Fatalf("group shape should be gone, len %d", e.Scene().Len())
	}
}

func TestMoveSnapsToGrid(t *testing.T) {
	e, a, _ := newTestEngine(t, true)

	down(e, 150, 150, 0)
	move(e, 157, 163, 0)
	if r := e.LastSnap(); r.Source != snap.SourceGrid {
		t.Fatalf("snap source got %v", r.Source)
	}
	up(e, 157, 163)

	if got := boundsOf(t, e, a); got.X != 100 || got.Y != 120 {
		t.Fatalf("top-left should land on the grid, got %+v", got)
	}
}

func TestTargetRemovedDuringDragAborts(t *testing.T) {
	e, a, _ := newTestEngine(t, false)
	e.SetSelection([]string{a})

	down(e, 200, 150, 0)
	move(e, 230, 150, 0)
	e.Scene().Remove(a)
	move(e, 240, 150, 0)

	if e.Session().State() != session.Idle {
		t.Fatal("session should abort when its target disappears")
	}
	if up(e, 240, 150) {
		t.Fatal("release after abort should not be consumed")
	}
	if e.State().CanUndo {
		t.Fatal("aborted drag must not reach the undo stack")
	}
}

func TestHandleRefreshIsDeferred(t *testing.T) {
	e, a, _ := newTestEngine(t, false)
	e.SetSelection([]string{a})
	if got := e.HandleAt(200, 150); got != "none" {
		t.Fatalf("handles placed before the tick: %s", got)
	}
	e.Tick(epoch.Add(16 * time.Millisecond))
	if got := e.HandleAt(200, 150); got != "right" {
		t.Fatalf("got %s", got)
	}
	if got := e.Cursor(150, 80); got != "crosshair" {
		t.Fatalf("rotate cursor got %s", got)
	}
	if got := e.Cursor(150, 150); got != "move" {
		t.Fatalf("body cursor got %s", got)
	}
}

func TestRenderOverlay(t *testing.T) {
	e, a, _ := newTestEngine(t, false)
	e.SetSelection([]string{a})
	e.Tick(epoch.Add(10 * time.Millisecond))

	counts := map[string]int{}
	for _, c := range e.DrawCommands() {
		counts[c.Op]++
	}
	if counts[OpPath] != 2 || counts[OpHandle] != 9 || counts[OpOutline] != 1 {
		t.Fatalf("got %v", counts)
	}

	down(e, 200, 200, 0)
	move(e, 220, 220, 0)
	e.Tick(epoch.Add(90 * time.Millisecond))
	e.Tick(epoch.Add(170 * time.Millisecond))

	var cmds []DrawCommand
	if err := json.Unmarshal([]byte(e.Render()), &cmds); err != nil {
		t.Fatalf("render json: %v", err)
	}
	var dashed, markers int
	for _, c := range cmds {
		if c.Op == OpOutline && len(c.Dash) == 2 {
			dashed++
			if c.DashOffset != 1 {
				t.Fatalf("dash offset got %v", c.DashOffset)
			}
		}
		if c.Op == OpMarker {
			markers++
		}
	}
	if dashed != 2 || markers != 2 {
		t.Fatalf("got %d dashed outlines, %d markers", dashed, markers)
	}
	up(e, 220, 220)
}

func TestDocumentIgnoresInFlightSession(t *testing.T) {
	e, a, _ := newTestEngine(t, false)
	e.SetSelection([]string{a})
	down(e, 200, 150, 0)
	move(e, 400, 150, 0)

	d := e.Document()
	for _, n := range d.Shapes {
		if n.ID == a && !n.Transform.IsIdentity() {
			t.Fatalf("document leaked preview transform %v", n.Transform)
		}
	}
	e.Cancel()
}

func TestGuidesAPI(t *testing.T) {
	e, _, _ := newTestEngine(t, false)
	g := e.AddGuide(geom.Vertical, 250)
	if g.Color != scene.DefaultGuideColor {
		t.Fatalf("color got %s", g.Color)
	}
	if !e.SetGuideVisible(geom.Vertical, 250.5, false) {
		t.Fatal("guide within one unit should match")
	}
	if e.RemoveGuide(geom.Vertical, 252) {
		t.Fatal("guide two units away should not match")
	}
	if !e.RemoveGuide(geom.Vertical, 250) {
		t.Fatal("remove failed")
	}
	key(e, input.KeySemicolon, input.Ctrl)
	if e.Scene().GuidesShown() {
		t.Fatal("ctrl+; should hide guides")
	}
}

func TestAlignSelectionToGrid(t *testing.T) {
	e, a, _ := newTestEngine(t, false)
	e.SetGrid(40, true, true)
	e.SetSelection([]string{a})
	if !e.AlignSelectionToGrid() {
		t.Fatal("align failed")
	}
	if got := boundsOf(t, e, a); got.X != 120 || got.Y != 120 {
		t.Fatalf("got %+v", got)
	}
}

func TestPressDuringDragCommitsFirst(t *testing.T) {
	t.Run("rotate handle", func(t *testing.T) {
		e, a, _ := newTestEngine(t, false)
		e.SetSelection([]string{a})

		down(e, 200, 150, 0) // right handle
		move(e, 250, 150, 0)

		// rotation handle of the scaled bounds, pressed without releasing
		if !down(e, 175, 80, 0) {
			t.Fatal("press on the rotation handle should be consumed")
		}
		scaled := geom.Rect{X: 100, Y: 100, Width: 150, Height: 100}
		if got := boundsOf(t, e, a); !got.ApproxEqual(scaled, 1e-9) {
			t.Fatalf("scale not baked before rotating: %+v", got)
		}
		if st := e.State(); st.Session != "GRABBED" || st.Mode != session.ModeRotate.String() {
			t.Fatalf("second session got %s/%s", st.Session, st.Mode)
		}

		move(e, 245, 150, 0) // quarter turn about (175, 150)
		up(e, 245, 150)

		want := geom.Rect{X: 125, Y: 75, Width: 100, Height: 150}
		if got := boundsOf(t, e, a); !got.ApproxEqual(want, 1e-6) {
			t.Fatalf("got %+v, want %+v", got, want)
		}
		if sel := e.Selection(); len(sel) != 1 || sel[0] != a {
			t.Fatalf("selection got %v", sel)
		}
		if e.band != nil {
			t.Fatal("rubber band left behind")
		}

		// two commands: undoing the rotation leaves the scale
		if e.State().UndoName != "Rotate" || !e.Undo() {
			t.Fatalf("undo name got %q", e.State().UndoName)
		}
		if got := boundsOf(t, e, a); !got.ApproxEqual(scaled, 1e-9) {
			t.Fatalf("after undo got %+v", got)
		}
	})

	t.Run("other shape", func(t *testing.T) {
		e, a, b := newTestEngine(t, false)

		down(e, 150, 150, 0)
		move(e, 160, 150, 0)
		if !down(e, 350, 120, 0) {
			t.Fatal("press on b should be consumed")
		}
		if sel := e.Selection(); len(sel) != 1 || sel[0] != b {
			t.Fatalf("selection after pressing b got %v, want only b", sel)
		}
		move(e, 360, 120, 0)
		up(e, 360, 120)

		if got := boundsOf(t, e, a); got.X != 110 || got.Y != 100 {
			t.Fatalf("a got %+v, want moved by 10 once", got)
		}
		if got := boundsOf(t, e, b); got.X != 310 || got.Y != 100 {
			t.Fatalf("b got %+v", got)
		}
		if sel := e.Selection(); len(sel) != 1 || sel[0] != b {
			t.Fatalf("final selection got %v", sel)
		}
		if e.band != nil {
			t.Fatal("rubber band left behind")
		}
	})

	t.Run("empty canvas", func(t *testing.T) {
		e, a, _ := newTestEngine(t, false)

		down(e, 150, 150, 0)
		move(e, 160, 150, 0)
		if down(e, 600, 600, 0) {
			t.Fatal("press on empty canvas must not be consumed")
		}
		if e.Session().Active() {
			t.Fatal("session still grabbed after the empty press")
		}
		move(e, 620, 620, 0)
		if got := boundsOf(t, e, a); got.X != 110 || got.Y != 100 {
			t.Fatalf("band drag moved a to %+v", got)
		}
		up(e, 620, 620)

		if got := boundsOf(t, e, a); got.X != 110 || got.Y != 100 {
			t.Fatalf("a got %+v", got)
		}
		if sel := e.Selection(); len(sel) != 0 {
			t.Fatalf("selection got %v, want empty", sel)
		}
		if e.band != nil {
			t.Fatal("rubber band survived the release")
		}
		if st := e.State(); st.Session != "IDLE" || st.UndoName != "Move" {
			t.Fatalf("state got %+v", st)
		}
	})
}

func TestAddShape(t *testing.T) {
	e, _, _ := newTestEngine(t, false)

	id, err := e.AddShape(document.ShapeTypeEllipse, geom.Rect{X: 500, Y: 300, Width: 40, Height: 20}, document.Style{Fill: "#123456"})
	if err != nil {
		t.Fatalf("AddShape: %v", err)
	}
	if sel := e.Selection(); len(sel) != 1 || sel[0] != id {
		t.Fatalf("selection got %v", sel)
	}
	if got := boundsOf(t, e, id); got != (geom.Rect{X: 500, Y: 300, Width: 40, Height: 20}) {
		t.Fatalf("bounds got %+v", got)
	}
	s, _ := e.Scene().Shape(id)
	if s.Kind() != scene.KindEllipse || s.Style().Fill != "#123456" || s.Style().Opacity != 1 {
		t.Fatalf("shape got kind %v style %+v", s.Kind(), s.Style())
	}
	if e.State().UndoName != "Add Ellipse" {
		t.Fatalf("undo name got %q", e.State().UndoName)
	}

	e.Undo()
	if e.Scene().Len() != 2 {
		t.Fatalf("undo left %d shapes", e.Scene().Len())
	}
	e.Redo()
	if _, ok := e.Scene().Shape(id); !ok {
		t.Fatal("redo did not restore the shape")
	}

	tests := []struct {
		name string
		typ  document.ShapeType
		r    geom.Rect
	}{
		{"group", document.ShapeTypeGroup, geom.Rect{Width: 10, Height: 10}},
		{"path", document.ShapeTypePath, geom.Rect{Width: 10, Height: 10}},
		{"unknown", "Star", geom.Rect{Width: 10, Height: 10}},
		{"empty", document.ShapeTypeRect, geom.Rect{Width: 0, Height: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.AddShape(tt.typ, tt.r, document.Style{}); err == nil {
				t.Fatal("expected an error")
			}
		})
	}

	down(e, 510, 310, 0)
	move(e, 520, 310, 0)
	if _, err := e.AddShape(document.ShapeTypeRect, geom.Rect{Width: 5, Height: 5}, document.Style{}); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("during a drag got %v, want ErrSessionActive", err)
	}
}
