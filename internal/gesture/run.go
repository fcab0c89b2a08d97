package gesture

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/vectorflow/vectorflow/internal/engine"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/input"
	"github.com/vectorflow/vectorflow/internal/scene"
	"github.com/vectorflow/vectorflow/internal/typeid"
)

// ErrExpectation is wrapped by every failed expect step.
var ErrExpectation = errors.New("expectation failed")

// boundsTolerance is how far expected bounds may differ from actual ones.
const boundsTolerance = 1e-6

// Runner replays scripts against one engine with a virtual clock that only
// moves on tick steps.
type Runner struct {
	engine *engine.Engine
	now    time.Time

	// OnStep, when set, runs after every step.
	OnStep func(step *Step)
}

func NewRunner(e *engine.Engine, start time.Time) *Runner {
	return &Runner{engine: e, now: start}
}

// Now returns the virtual clock.
func (r *Runner) Now() time.Time { return r.now }

// Run executes every step in order and stops at the first failure.
func (r *Runner) Run(s *Script) error {
	for _, step := range s.Steps {
		if err := r.step(step); err != nil {
			return fmt.Errorf("%s: %w", step.Pos, err)
		}
		if r.OnStep != nil {
			r.OnStep(step)
		}
	}
	slog.Debug("gesture script replayed", "steps", len(s.Steps))
	return nil
}

func (r *Runner) step(st *Step) error {
	e := r.engine
	switch {
	case st.LoadSample:
		e.LoadSampleDocument(typeid.NewDrawingID())
		r.advance(0)
	case st.Press != nil:
		e.PointerDown(pointer(st.Press.X, st.Press.Y, st.Press.Mods))
	case st.Move != nil:
		e.PointerMove(pointer(st.Move.X, st.Move.Y, st.Move.Mods))
	case st.Release != nil:
		e.PointerUp(pointer(st.Release.X, st.Release.Y, st.Release.Mods))
	case st.Drag != nil:
		d := st.Drag
		e.PointerDown(pointer(d.X1, d.Y1, d.Mods))
		e.PointerMove(pointer(d.X2, d.Y2, d.Mods))
		e.PointerUp(pointer(d.X2, d.Y2, d.Mods))
	case st.Key != nil:
		e.KeyDown(input.KeyEvent{Key: input.Key(st.Key.Name), Modifiers: modifiers(st.Key.Mods)})
	case st.Tick != nil:
		r.advance(time.Duration(*st.Tick * float64(time.Millisecond)))
	case st.Select != nil:
		return r.selectStep(st.Select)
	case st.Zoom != nil:
		e.SetViewScale(*st.Zoom)
	case st.Guide != nil:
		o := geom.Horizontal
		if st.Guide.Orientation == "vertical" {
			o = geom.Vertical
		}
		e.AddGuide(o, st.Guide.Position)
	case st.Undo:
		e.Undo()
	case st.Redo:
		e.Redo()
	case st.Cancel:
		e.Cancel()
	case st.Expect != nil:
		return r.expect(st.Expect)
	}
	return nil
}

func (r *Runner) advance(d time.Duration) {
	r.now = r.now.Add(d)
	r.engine.Tick(r.now)
}

func (r *Runner) selectStep(s *SelectStep) error {
	switch {
	case s.All:
		r.engine.SelectAll()
	case s.None:
		r.engine.ClearSelection()
	default:
		ids := make([]string, 0, len(s.Names))
		for _, name := range s.Names {
			sh, err := r.shapeNamed(name)
			if err != nil {
				return err
			}
			ids = append(ids, sh.ID())
		}
		r.engine.SetSelection(ids)
	}
	return nil
}

func (r *Runner) shapeNamed(name string) (*scene.Shape, error) {
	for _, s := range r.engine.Scene().Shapes() {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no shape named %q", name)
}

func (r *Runner) expect(x *Expectation) error {
	e := r.engine
	switch {
	case x.Selection != nil:
		if got := len(e.Selection()); got != *x.Selection {
			return fmt.Errorf("%w: selection has %d shapes, want %d", ErrExpectation, got, *x.Selection)
		}
	case x.Shapes != nil:
		if got := e.Scene().Len(); got != *x.Shapes {
			return fmt.Errorf("%w: scene has %d shapes, want %d", ErrExpectation, got, *x.Shapes)
		}
	case x.State != nil:
		if got := e.Session().State().String(); got != *x.State {
			return fmt.Errorf("%w: session is %s, want %s", ErrExpectation, got, *x.State)
		}
	case x.Bounds != nil:
		b := x.Bounds
		sh, err := r.shapeNamed(b.Name)
		if err != nil {
			return err
		}
		want := geom.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
		got := sh.SceneBounds()
		if !got.ApproxEqual(want, boundsTolerance) {
			return fmt.Errorf("%w: %q bounds %s, want %s", ErrExpectation, b.Name, formatRect(got), formatRect(want))
		}
	}
	return nil
}

func formatRect(r geom.Rect) string {
	round := func(v float64) float64 { return math.Round(v*1000) / 1000 }
	return fmt.Sprintf("(%g, %g, %g×%g)", round(r.X), round(r.Y), round(r.Width), round(r.Height))
}

func pointer(x, y float64, mods []string) input.PointerEvent {
	return input.PointerEvent{Pos: geom.Pt(x, y), Button: input.ButtonLeft, Modifiers: modifiers(mods)}
}

func modifiers(names []string) input.Modifiers {
	var m input.Modifiers
	for _, n := range names {
		m |= input.ParseModifiers(n)
	}
	return m
}
