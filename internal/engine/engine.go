package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/document"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/handle"
	"github.com/vectorflow/vectorflow/internal/history"
	"github.com/vectorflow/vectorflow/internal/input"
	"github.com/vectorflow/vectorflow/internal/scene"
	"github.com/vectorflow/vectorflow/internal/schedule"
	"github.com/vectorflow/vectorflow/internal/session"
	"github.com/vectorflow/vectorflow/internal/snap"
	"github.com/vectorflow/vectorflow/internal/typeid"
)

// ErrSessionActive is returned by edits that cannot run during a drag.
var ErrSessionActive = errors.New("transform session active")

// Engine is the editor core behind one open drawing. It owns the scene, the
// selection handles, the transform session and the undo stack, routes input
// events through them and compiles draw commands for the frontend.
//
// An Engine is single-threaded: every call must come from the same UI loop.
type Engine struct {
	cfg config.Editor

	// Drawing header (id, name, canvas size); shapes live in the scene.
	drawing document.Drawing
	scene   *scene.Scene

	handles *handle.Set
	session *session.Session
	snapper *snap.Engine
	history *history.Stack
	queue   *schedule.Queue

	viewScale float64
	band      *rubberBand
	lastSnap  snap.Result
	hover     handle.Kind

	refreshPending bool
	historyFns     []func(history.Event)
}

type rubberBand struct {
	start, end geom.Point
	additive   bool
}

func (b *rubberBand) rect() geom.Rect { return geom.RectFromPoints(b.start, b.end) }

// NewEngine creates an engine holding an empty drawing.
func NewEngine(cfg config.Editor) *Engine {
	e := &Engine{
		cfg:       cfg,
		snapper:   snap.New(snap.ConfigFromEditor(cfg)),
		history:   history.NewStack(cfg.HistoryLimit),
		queue:     schedule.NewQueue(),
		viewScale: 1,
	}
	e.history.OnChange(e.historyChanged)
	e.attach(*document.NewEmptyDrawing(typeid.NewDrawingID(), "Untitled"), scene.New())
	return e
}

// attach swaps in a new scene and rebuilds everything bound to it.
func (e *Engine) attach(header document.Drawing, sc *scene.Scene) {
	if e.session != nil {
		e.session.Abort()
	}
	header.Shapes, header.Guides = nil, nil
	e.drawing = header
	e.scene = sc
	e.handles = handle.NewSet(sc, e.cfg.HandleSize, e.cfg.RotateHandleOffset)
	e.handles.BindSelection()
	e.session = session.New(sc, e.queue, session.ConfigFromEditor(e.cfg))
	e.session.OnCommit(e.sessionCommitted)
	e.history.Clear()
	e.band = nil
	e.lastSnap = snap.Result{}
	e.hover = handle.None

	if g := sc.Grid(); g.Size > 0 {
		cfg := e.snapper.Config()
		cfg.GridSize = g.Size
		cfg.GridSnap = g.Snap
		e.snapper.SetConfig(cfg)
	}
	sc.SetGuidesShown(e.cfg.GuidesEnabled)

	sc.OnSelectionChanged(e.scheduleHandleRefresh)
	sc.OnTransform(func(ev scene.TransformEvent) {
		if ev.Phase != scene.PhaseBegin {
			e.scheduleHandleRefresh()
		}
	})
	e.updateHandleVisibility()
}

// --- Commands (frontend → engine) ---

// LoadDocument loads a drawing from JSON.
func (e *Engine) LoadDocument(jsonData string) error {
	d, err := document.Parse([]byte(jsonData))
	if err != nil {
		return err
	}
	return e.LoadDrawing(d)
}

// LoadDrawing replaces the open drawing.
func (e *Engine) LoadDrawing(d *document.Drawing) error {
	sc, err := scene.FromDocument(d)
	if err != nil {
		return err
	}
	e.attach(*d, sc)
	slog.Debug("drawing loaded", "drawing", d.ID, "shapes", sc.Len())
	return nil
}

// LoadSampleDocument loads the built-in sample drawing.
func (e *Engine) LoadSampleDocument(drawingID string) {
	if err := e.LoadDrawing(document.NewSampleDrawing(drawingID)); err != nil {
		slog.Error("sample drawing rejected", "error", err)
	}
}

// SetViewScale sets the zoom factor used to size handles and overlay strokes.
func (e *Engine) SetViewScale(s float64) {
	if s > 0 {
		e.viewScale = s
	}
}

// PointerDown handles a press. It returns true when the press started a
// transform session or changed the selection by clicking a shape. A press on
// empty canvas is not consumed; it starts a rubber band.
func (e *Engine) PointerDown(ev input.PointerEvent) bool {
	if ev.Button != input.ButtonLeft {
		return false
	}
	// A press while grabbed commits the pending session before anything is
	// hit-tested or reselected.
	if e.session.Active() {
		e.commitSession()
	}
	e.band = nil
	e.flushHandleRefresh()
	e.lastSnap = snap.Result{}

	if k := e.handles.HitTest(ev.Pos, e.viewScale); k != handle.None {
		if e.handles.BeginDrag(k, ev.Pos) && e.session.Grab(k, ev.Pos, ev.Modifiers) {
			return true
		}
		e.handles.AbortDrag()
	}

	if s, ok := e.scene.ShapeAt(ev.Pos); ok {
		if ev.Modifiers.Has(input.Ctrl) {
			e.scene.Toggle(s.ID())
			return true
		}
		if !s.IsSelected() {
			e.scene.Select(s.ID(), ev.Modifiers.Has(input.Shift))
		}
		e.session.GrabMove(ev.Pos, ev.Modifiers)
		return true
	}

	if !ev.Modifiers.Has(input.Ctrl) {
		e.scene.ClearSelection()
	}
	e.band = &rubberBand{start: ev.Pos, end: ev.Pos, additive: ev.Modifiers.Has(input.Ctrl)}
	return false
}

// PointerMove drives the active session or rubber band; otherwise it only
// updates handle hover. It returns true while a drag is being tracked.
func (e *Engine) PointerMove(ev input.PointerEvent) bool {
	switch {
	case e.session.Active():
		pos := e.snapPointer(ev.Pos)
		if e.session.Mode() != session.ModeMove && !e.handles.DragTo(pos) {
			e.session.Abort()
			return true
		}
		if !e.session.Transform(pos, ev.Modifiers) {
			e.handles.AbortDrag()
			return true
		}
		e.handles.Place(e.session.LiveBounds())
		return true
	case e.band != nil:
		e.band.end = ev.Pos
		return true
	default:
		e.hover = e.handles.HitTest(ev.Pos, e.viewScale)
		e.handles.Highlight(e.hover)
		return false
	}
}

// PointerUp commits the session or completes the rubber band.
func (e *Engine) PointerUp(ev input.PointerEvent) bool {
	switch {
	case e.session.Active():
		e.commitSession()
		return true
	case e.band != nil:
		b := e.band
		b.end = ev.Pos
		e.band = nil
		e.selectInBand(b)
		return true
	default:
		return false
	}
}

func (e *Engine) selectInBand(b *rubberBand) {
	var ids []string
	if b.additive {
		ids = e.scene.SelectedIDs()
	}
	for _, s := range e.scene.ShapesIn(b.rect()) {
		ids = append(ids, s.ID())
	}
	e.scene.SetSelection(ids)
}

// snapPointer adjusts a drag position. Rotation is never snapped. A move
// snaps the top-left of the grab-time bounds and shifts the pointer by the
// same correction.
func (e *Engine) snapPointer(pos geom.Point) geom.Point {
	exclude := e.session.TargetIDs()
	switch e.session.Mode() {
	case session.ModeRotate:
		e.lastSnap = snap.Result{}
		return pos
	case session.ModeMove:
		ref := e.session.Bounds().TopLeft().Add(pos.Sub(e.session.Anchor()))
		e.lastSnap = e.snapper.Snap(ref, e.scene, exclude...)
		return pos.Add(e.lastSnap.Pos.Sub(ref))
	default:
		e.lastSnap = e.snapper.Snap(pos, e.scene, exclude...)
		return e.lastSnap.Pos
	}
}

func (e *Engine) commitSession() {
	e.handles.EndDrag()
	e.session.Ungrab(true)
	e.lastSnap = snap.Result{}
	e.band = nil
}

// KeyDown handles editor shortcuts. It returns true when the key was used.
func (e *Engine) KeyDown(ev input.KeyEvent) bool {
	key := ev.Key.Normalize()
	ctrl, shift := ev.Modifiers.Has(input.Ctrl), ev.Modifiers.Has(input.Shift)

	if key == input.KeyEscape {
		return e.Cancel()
	}
	if e.session.Active() {
		return false
	}

	switch {
	case key == input.KeyDelete || key == input.KeyBackspace:
		return e.DeleteSelection()
	case key == input.KeyLeft, key == input.KeyRight, key == input.KeyUp, key == input.KeyDown:
		step := 1.0
		if shift {
			step = 10
		}
		d := map[input.Key]geom.Point{
			input.KeyLeft:  geom.Pt(-step, 0),
			input.KeyRight: geom.Pt(step, 0),
			input.KeyUp:    geom.Pt(0, -step),
			input.KeyDown:  geom.Pt(0, step),
		}[key]
		return e.Nudge(d)
	case ctrl && key == input.KeyZ && shift, ctrl && key == input.KeyY:
		return e.Redo()
	case ctrl && key == input.KeyZ:
		return e.Undo()
	case ctrl && key == input.KeyG && shift:
		return e.UngroupSelection()
	case ctrl && key == input.KeyG:
		return e.GroupSelection() != ""
	case ctrl && key == input.KeyA:
		e.scene.SelectAll()
		return true
	case ctrl && key == input.KeySemicolon:
		e.ToggleGuides()
		return true
	case ctrl && key == input.KeyApostrophe:
		g := e.scene.Grid()
		g.Visible = !g.Visible
		e.scene.SetGrid(g)
		return true
	}
	return false
}

// Cancel ends the active session without applying it, or drops the rubber
// band. It returns false when there was nothing to cancel.
func (e *Engine) Cancel() bool {
	switch {
	case e.session.Active():
		e.handles.AbortDrag()
		e.session.Ungrab(false)
		e.lastSnap = snap.Result{}
		e.band = nil
		return true
	case e.band != nil:
		e.band = nil
		return true
	}
	return false
}

// Tick advances the schedule queue (deferred handle refresh, marching-ants
// timer) and returns the frame's draw commands.
func (e *Engine) Tick(now time.Time) string {
	e.queue.Tick(now)
	return e.Render()
}

// SetSelection selects exactly ids.
func (e *Engine) SetSelection(ids []string) {
	e.scene.SetSelection(ids)
}

func (e *Engine) SelectAll()      { e.scene.SelectAll() }
func (e *Engine) ClearSelection() { e.scene.ClearSelection() }

// DeleteSelection removes the selected shapes as one undoable command.
func (e *Engine) DeleteSelection() bool {
	ids := e.scene.SelectedIDs()
	if len(ids) == 0 || e.session.Active() {
		return false
	}
	e.history.Push(history.NewRemoveCommand(e.scene, ids))
	return true
}

// Nudge translates the selection by d as one undoable command.
func (e *Engine) Nudge(d geom.Point) bool {
	return e.translateSelection("Nudge", d)
}

// AlignSelectionToGrid moves the selection so its bounds' top-left corner
// lands on the nearest grid point.
func (e *Engine) AlignSelectionToGrid() bool {
	shapes := e.scene.SelectedShapes()
	if len(shapes) == 0 {
		return false
	}
	b := scene.UnionBounds(shapes)
	aligned := snap.AlignToGrid(b, e.snapper.Config().GridSize)
	return e.translateSelection("Align to grid", aligned.TopLeft().Sub(b.TopLeft()))
}

func (e *Engine) translateSelection(name string, d geom.Point) bool {
	if e.session.Active() {
		return false
	}
	g, ok := e.scene.BeginSelectionGroup(e.scene.SelectedShapes())
	if !ok {
		return false
	}
	g.SetTransform(geom.Translate(d.X, d.Y))
	changes := g.Commit()
	e.scene.NotifyTransform(scene.TransformEvent{Phase: scene.PhaseCommit, Kind: "move", IDs: g.IDs()})
	if cmd := history.NewTransformCommand(e.scene, name, changes); cmd != nil {
		e.history.Push(cmd)
	}
	return true
}

// AddShape inserts a rect, ellipse or text shape occupying bounds as one
// undoable command and selects it. It returns the new shape ID.
func (e *Engine) AddShape(t document.ShapeType, bounds geom.Rect, style document.Style) (string, error) {
	if e.session.Active() {
		return "", ErrSessionActive
	}
	kind, err := scene.KindOf(t)
	if err != nil {
		return "", err
	}
	if kind == scene.KindGroup || kind == scene.KindPath {
		return "", fmt.Errorf("add shape: %s shapes are built from members or points", t)
	}
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return "", fmt.Errorf("add shape: empty bounds %gx%g", bounds.Width, bounds.Height)
	}

	s := scene.NewShape(kind, geom.Rect{Width: bounds.Width, Height: bounds.Height})
	s.SetPos(bounds.TopLeft())
	if style.Opacity == 0 {
		style.Opacity = 1
	}
	s.SetStyle(style)

	e.history.Push(history.NewAddCommand(e.scene, s))
	e.scene.SetSelection([]string{s.ID()})
	return s.ID(), nil
}

// GroupSelection groups the selected shapes and returns the new group ID, or
// "" when fewer than two shapes are selected.
func (e *Engine) GroupSelection() string {
	ids := e.scene.SelectedIDs()
	if len(ids) < 2 || e.session.Active() {
		return ""
	}
	cmd := history.NewGroupCommand(e.scene, typeid.NewGroupID(), ids)
	e.history.Push(cmd)
	return cmd.GroupID()
}

// UngroupSelection dissolves every selected group.
func (e *Engine) UngroupSelection() bool {
	done := false
	for _, s := range e.scene.SelectedShapes() {
		if _, ok := s.AsGroup(); ok {
			e.history.Push(history.NewUngroupCommand(e.scene, s.ID()))
			done = true
		}
	}
	return done
}

func (e *Engine) Undo() bool {
	if e.session.Active() {
		return false
	}
	return e.history.Undo()
}

func (e *Engine) Redo() bool {
	if e.session.Active() {
		return false
	}
	return e.history.Redo()
}

// OnHistory registers fn for every push, undo and redo.
func (e *Engine) OnHistory(fn func(history.Event)) {
	e.historyFns = append(e.historyFns, fn)
}

func (e *Engine) sessionCommitted(c session.Commit) {
	if cmd := history.NewTransformCommand(e.scene, c.Name(), c.Changes); cmd != nil {
		e.history.Push(cmd)
	}
}

func (e *Engine) historyChanged(ev history.Event) {
	e.scheduleHandleRefresh()
	for _, fn := range e.historyFns {
		fn(ev)
	}
}

// --- Guides and grid ---

func (e *Engine) AddGuide(o geom.Orientation, position float64) scene.Guide {
	return e.scene.AddGuide(o, position)
}

func (e *Engine) RemoveGuide(o geom.Orientation, position float64) bool {
	return e.scene.RemoveGuide(o, position)
}

func (e *Engine) SetGuideVisible(o geom.Orientation, position float64, visible bool) bool {
	return e.scene.SetGuideVisible(o, position, visible)
}

func (e *Engine) ClearGuides()       { e.scene.ClearGuides() }
func (e *Engine) ToggleGuides() bool { return e.scene.ToggleGuides() }

// SetGrid updates the grid and the snap configuration that follows it.
func (e *Engine) SetGrid(size float64, visible, snapOn bool) {
	e.scene.SetGrid(scene.Grid{Size: size, Visible: visible, Snap: snapOn})
	cfg := e.snapper.Config()
	cfg.GridSize = size
	cfg.GridSnap = snapOn
	e.snapper.SetConfig(cfg)
}

// SetSnap enables or disables snapping as a whole and object snapping.
func (e *Engine) SetSnap(enabled, objects bool) {
	cfg := e.snapper.Config()
	cfg.Enabled = enabled
	cfg.ObjectSnap = objects
	e.snapper.SetConfig(cfg)
}

// --- Handle refresh ---

// scheduleHandleRefresh defers handle placement to the next tick so it sees
// the selection after every listener has run. Repeated requests coalesce.
func (e *Engine) scheduleHandleRefresh() {
	if e.refreshPending {
		return
	}
	e.refreshPending = true
	e.queue.Defer(e.flushHandleRefresh)
}

func (e *Engine) flushHandleRefresh() {
	if !e.refreshPending {
		return
	}
	e.refreshPending = false
	if e.session.Active() {
		return
	}
	e.updateHandleVisibility()
}

func (e *Engine) updateHandleVisibility() {
	if e.handles.Refresh() {
		e.handles.Show()
	} else {
		e.handles.Hide()
	}
}

// --- Queries (frontend ← engine) ---

// DrawCommands compiles shapes and overlay in painter's order.
func (e *Engine) DrawCommands() []DrawCommand {
	commands := compileShapes(e.scene)
	o := overlay{
		drawing:   e.drawing,
		scene:     e.scene,
		handles:   e.handles,
		viewScale: e.viewScale,
		snap:      e.lastSnap,
	}
	if aids, ok := e.session.Aids(); ok {
		o.aids = &aids
	}
	if e.band != nil {
		r := e.band.rect()
		o.band = &r
	}
	return append(commands, compileOverlay(o)...)
}

// Render returns the draw commands as JSON.
func (e *Engine) Render() string {
	result, err := DrawCommandsToJSON(e.DrawCommands())
	if err != nil {
		slog.Error("render failed", "error", err)
	}
	return result
}

// HitTest returns the ID of the topmost selectable shape at (x, y), or "".
func (e *Engine) HitTest(x, y float64) string {
	if s, ok := e.scene.ShapeAt(geom.Pt(x, y)); ok {
		return s.ID()
	}
	return ""
}

// HandleAt returns the name of the handle at (x, y), or "none".
func (e *Engine) HandleAt(x, y float64) string {
	return e.handles.HitTest(geom.Pt(x, y), e.viewScale).String()
}

// Cursor returns the CSS cursor for the pointer at (x, y).
func (e *Engine) Cursor(x, y float64) string {
	if e.session.Active() {
		if e.session.Mode() == session.ModeMove {
			return string(handle.CursorMove)
		}
		return string(e.session.Handle().Cursor())
	}
	p := geom.Pt(x, y)
	if k := e.handles.HitTest(p, e.viewScale); k != handle.None {
		return string(k.Cursor())
	}
	if s, ok := e.scene.ShapeAt(p); ok && s.IsSelected() {
		return string(handle.CursorMove)
	}
	return string(handle.CursorDefault)
}

// SelectionBounds returns the union bounds of the selection.
func (e *Engine) SelectionBounds() geom.Rect {
	return scene.UnionBounds(e.scene.SelectedShapes())
}

// GetSelectionBounds returns SelectionBounds as JSON.
func (e *Engine) GetSelectionBounds() string {
	return RectToJSON(e.SelectionBounds())
}

// Selection returns the selected shape IDs.
func (e *Engine) Selection() []string { return e.scene.SelectedIDs() }

// GetSelection returns the selection as JSON.
func (e *Engine) GetSelection() string {
	data, _ := json.Marshal(e.Selection())
	return string(data)
}

// State reports the session state and mode, e.g. for a status bar.
type State struct {
	Session  string      `json:"session"`
	Mode     string      `json:"mode"`
	Handle   string      `json:"handle"`
	Rotation float64     `json:"rotation"`
	Bounds   geom.Rect   `json:"bounds"`
	Snap     string      `json:"snap,omitempty"`
	CanUndo  bool        `json:"canUndo"`
	CanRedo  bool        `json:"canRedo"`
	UndoName string      `json:"undoName,omitempty"`
	Modified bool        `json:"modified"`
	Pending  [2]int      `json:"pending"`
	Anchor   *geom.Point `json:"anchor,omitempty"`
}

func (e *Engine) State() State {
	st := State{
		Session:  e.session.State().String(),
		Mode:     e.session.Mode().String(),
		Handle:   e.session.Handle().String(),
		Rotation: e.session.Rotation(),
		Bounds:   e.SelectionBounds(),
		CanUndo:  e.history.CanUndo(),
		CanRedo:  e.history.CanRedo(),
		UndoName: e.history.UndoName(),
		Modified: e.scene.Modified(),
	}
	st.Pending[0], st.Pending[1] = e.queue.Pending()
	if e.lastSnap.Snapped() {
		st.Snap = snapLabel(e.lastSnap)
	}
	if e.session.Active() {
		a := e.session.Anchor()
		st.Anchor = &a
	}
	return st
}

// GetState returns State as JSON.
func (e *Engine) GetState() string {
	data, _ := json.Marshal(e.State())
	return string(data)
}

// Document returns the committed drawing. An in-flight session is not
// included.
func (e *Engine) Document() *document.Drawing {
	return e.scene.ToDocument(e.drawing)
}

// GetDocument returns the drawing as JSON.
func (e *Engine) GetDocument() string {
	data, err := e.Document().JSON()
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Modified reports unsaved changes since the last MarkSaved.
func (e *Engine) Modified() bool { return e.scene.Modified() }

func (e *Engine) MarkSaved() { e.scene.SetModified(false) }

// Scene exposes the scene for read-only inspection by tools and tests.
func (e *Engine) Scene() *scene.Scene { return e.scene }

// Session exposes the transform session for inspection.
func (e *Engine) Session() *session.Session { return e.session }

// LastSnap returns the snap applied to the latest drag position.
func (e *Engine) LastSnap() snap.Result { return e.lastSnap }

func (e *Engine) DrawingID() string { return e.drawing.ID }
