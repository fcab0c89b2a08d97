package preview

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/engine"
	"github.com/vectorflow/vectorflow/internal/geom"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#ff0000", color.NRGBA{255, 0, 0, 255}, true},
		{"#0f0", color.NRGBA{0, 255, 0, 255}, true},
		{"#00a2ff80", color.NRGBA{0, 162, 255, 128}, true},
		{"rgba(0, 162, 255, 0.1)", color.NRGBA{0, 162, 255, 25}, true},
		{"rgb(1,2,3)", color.NRGBA{1, 2, 3, 255}, true},
		{"White", color.NRGBA{255, 255, 255, 255}, true},
		{"none", color.NRGBA{}, false},
		{"", color.NRGBA{}, false},
		{"#12", color.NRGBA{}, false},
		{"rgba(1,2)", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, ok := parseColor(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseColor(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestFillUsesTransform(t *testing.T) {
	cmd := engine.DrawCommand{
		Op:        engine.OpPath,
		Transform: geom.Translate(10, 10).ToSlice(),
		Path:      []engine.PathCommand{{"M", 0.0, 0.0}, {"L", 20.0, 0.0}, {"L", 20.0, 20.0}, {"L", 0.0, 20.0}, {"Z"}},
		Fill:      "#ff0000",
	}
	img := Render([]engine.DrawCommand{cmd}, Options{Width: 50, Height: 50})

	if got := rgba(img.At(20, 20)); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("inside got %v", got)
	}
	if got := rgba(img.At(5, 5)); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("outside got %v", got)
	}
}

func TestScaleOption(t *testing.T) {
	cmd := engine.DrawCommand{
		Op:   engine.OpPath,
		Path: []engine.PathCommand{{"M", 0.0, 0.0}, {"L", 10.0, 0.0}, {"L", 10.0, 10.0}, {"L", 0.0, 10.0}, {"Z"}},
		Fill: "#000000",
	}
	img := Render([]engine.DrawCommand{cmd}, Options{Width: 40, Height: 40, Scale: 2})
	if got := rgba(img.At(15, 15)); got.R != 0 {
		t.Errorf("scaled square should cover (15,15), got %v", got)
	}
	if got := rgba(img.At(25, 25)); got.R != 255 {
		t.Errorf("(25,25) should stay white, got %v", got)
	}
}

func TestOverlayToggle(t *testing.T) {
	handleCmd := engine.DrawCommand{
		Op:   engine.OpHandle,
		Path: []engine.PathCommand{{"M", 30.0, 30.0}, {"L", 40.0, 30.0}, {"L", 40.0, 40.0}, {"L", 30.0, 40.0}, {"Z"}},
		Fill: "#000000",
	}
	plain := Render([]engine.DrawCommand{handleCmd}, Options{Width: 50, Height: 50})
	if got := rgba(plain.At(35, 35)); got.R != 255 {
		t.Errorf("overlay drawn without Overlay: %v", got)
	}
	withOverlay := Render([]engine.DrawCommand{handleCmd}, Options{Width: 50, Height: 50, Overlay: true})
	if got := rgba(withOverlay.At(35, 35)); got.R != 0 {
		t.Errorf("overlay missing: %v", got)
	}
}

func TestStroke(t *testing.T) {
	cmd := engine.DrawCommand{
		Op:          engine.OpPath,
		Path:        []engine.PathCommand{{"M", 0.0, 25.0}, {"L", 50.0, 25.0}},
		Stroke:      "#0000ff",
		StrokeWidth: 4,
	}
	img := Render([]engine.DrawCommand{cmd}, Options{Width: 50, Height: 50})
	if got := rgba(img.At(25, 25)); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("on the line got %v", got)
	}
	if got := rgba(img.At(25, 10)); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("off the line got %v", got)
	}
}

func TestDash(t *testing.T) {
	line := []polyline{{{0, 0}, {12, 0}}}
	runs := dash(line, 4, 2, 0)
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	first := runs[0]
	if first[0].x != 0 || first[len(first)-1].x != 4 {
		t.Errorf("first run got %v", first)
	}
	if runs[1][0].x != 6 || runs[1][len(runs[1])-1].x != 10 {
		t.Errorf("second run got %v", runs[1])
	}

	shifted := dash(line, 4, 2, 1)
	if got := shifted[0][len(shifted[0])-1].x; got != 3 {
		t.Errorf("offset 1 should end the first run at 3, got %v", got)
	}
}

func TestWritePNGFromEngine(t *testing.T) {
	e := engine.NewEngine(config.DefaultEditor())
	e.LoadSampleDocument("drw_preview")
	e.SelectAll()

	var buf bytes.Buffer
	opts := Options{Width: 640, Height: 360, Scale: 0.5, Overlay: true}
	if err := WritePNG(&buf, e.DrawCommands(), opts); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 360 {
		t.Fatalf("bounds got %v", b)
	}
	// the rectangle's fill at scene (300, 275)
	if got := rgba(img.At(150, 137)); got != (color.RGBA{0xe9, 0x45, 0x60, 255}) {
		t.Errorf("rectangle fill got %v", got)
	}
}
