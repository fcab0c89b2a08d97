package gesture

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/engine"
)

var start = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func TestParseSteps(t *testing.T) {
	src := `
# comment line
load sample
select "Rectangle" "Ellipse"
press 10 20.5 shift ctrl
move -4 8
release 12 30
drag 1 2 to 3 4 alt
key Escape
key ; ctrl
tick 80
zoom 2
guide vertical 320
undo
redo
cancel
expect selection 2
expect state IDLE
expect bounds "Rectangle" 200 200 200 150
`
	s, err := ParseString("test", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(s.Steps) != 17 {
		t.Fatalf("got %d steps", len(s.Steps))
	}

	if got := s.Steps[1].Select.Names; len(got) != 2 || got[1] != "Ellipse" {
		t.Errorf("select names got %v", got)
	}
	p := s.Steps[2].Press
	if p.X != 10 || p.Y != 20.5 || len(p.Mods) != 2 {
		t.Errorf("press got %+v", p)
	}
	if s.Steps[3].Move.X != -4 {
		t.Errorf("move got %+v", s.Steps[3].Move)
	}
	if d := s.Steps[5].Drag; d.X2 != 3 || d.Mods[0] != "alt" {
		t.Errorf("drag got %+v", d)
	}
	if k := s.Steps[7].Key; k.Name != ";" || k.Mods[0] != "ctrl" {
		t.Errorf("key got %+v", k)
	}
	if g := s.Steps[10].Guide; g.Orientation != "vertical" || g.Position != 320 {
		t.Errorf("guide got %+v", g)
	}
	if b := s.Steps[16].Expect.Bounds; b.Name != "Rectangle" || b.Height != 150 {
		t.Errorf("bounds got %+v", b)
	}
	if s.Steps[2].Pos.Line != 5 {
		t.Errorf("press line got %d", s.Steps[2].Pos.Line)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"press 10",
		"drag 1 2 3 4",
		"select",
		"jump 1 2",
		`expect bounds "Rectangle" 1 2 3`,
	}
	for _, src := range tests {
		if _, err := ParseString("bad", src); err == nil {
			t.Errorf("%q: expected an error", src)
		}
	}
}

func run(t *testing.T, src string) (*engine.Engine, error) {
	t.Helper()
	s, err := ParseString("test", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := engine.NewEngine(config.DefaultEditor())
	return e, NewRunner(e, start).Run(s)
}

func TestReplayScaleUndoCancel(t *testing.T) {
	src := `
load sample
select "Rectangle"
tick 16
expect selection 1

# right handle sits at (400, 275)
drag 400 275 to 460 280
expect bounds "Rectangle" 200 200 260 150
expect state IDLE
key z ctrl
expect bounds "Rectangle" 200 200 200 150

press 300 275
move 320 300
expect state GRABBED
key Escape
expect state IDLE
expect bounds "Rectangle" 200 200 200 150

select all
key Delete
expect shapes 0
undo
expect shapes 6
`
	if _, err := run(t, src); err != nil {
		t.Fatal(err)
	}
}

func TestReplayReportsFailedExpectation(t *testing.T) {
	_, err := run(t, "load sample\nexpect shapes 3\n")
	if !errors.Is(err, ErrExpectation) {
		t.Fatalf("got %v, want ErrExpectation", err)
	}
	if !strings.Contains(err.Error(), "test:2:") {
		t.Fatalf("error should carry the step position, got %q", err)
	}
}

func TestReplayUnknownShape(t *testing.T) {
	_, err := run(t, "load sample\nselect \"Nope\"\n")
	if err == nil || !strings.Contains(err.Error(), `no shape named "Nope"`) {
		t.Fatalf("got %v", err)
	}
}

func TestRunnerClock(t *testing.T) {
	s, err := ParseString("clock", "tick 80\ntick 20.5\n")
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(engine.NewEngine(config.DefaultEditor()), start)
	var steps int
	r.OnStep = func(*Step) { steps++ }
	if err := r.Run(s); err != nil {
		t.Fatal(err)
	}
	if want := start.Add(100*time.Millisecond + 500*time.Microsecond); !r.Now().Equal(want) {
		t.Fatalf("clock got %v, want %v", r.Now(), want)
	}
	if steps != 2 {
		t.Fatalf("OnStep ran %d times", steps)
	}
}
