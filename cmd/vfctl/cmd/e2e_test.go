package cmd

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vectorflow/vectorflow/internal/document"
)

// execute runs vfctl with args and returns its output. Flag variables
// outlive a single Execute, so they are reset first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose = false
	printSchema = false
	inspectSample = false
	replayDoc, replaySample, replayOut, replayPNG, replayScale = "", false, "", "", 1
	previewSample, previewOut, previewScale, previewOverlay, previewSelectAll = false, "preview.png", 1, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInspectSample(t *testing.T) {
	out, err := execute(t, "inspect", "--sample")
	if err != nil {
		t.Fatalf("inspect: %v\n%s", err, out)
	}
	for _, want := range []string{"Rectangle", "Ellipse", "Badge", "200,200 200x150", "vertical", "Grid: size 20, snap true"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectFile(t *testing.T) {
	doc := document.NewEmptyDrawing("drw_file", "Blank")
	data, err := doc.JSON()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "blank.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "inspect", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, `"Blank"`) || !strings.Contains(out, "Guides (0)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestInspectNeedsInput(t *testing.T) {
	if _, err := execute(t, "inspect"); err == nil {
		t.Fatal("expected an error without a file or --sample")
	}
}

func TestReplayWritesDocument(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "widen.vfg")
	src := `load sample
select "Rectangle"
tick 16
drag 400 275 to 460 280
expect bounds "Rectangle" 200 200 260 150
`
	if err := os.WriteFile(script, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	docOut := filepath.Join(dir, "out.json")
	pngOut := filepath.Join(dir, "out.png")

	out, err := execute(t, "replay", "--out", docOut, "--png", pngOut, "--scale", "0.25", script)
	if err != nil {
		t.Fatalf("replay: %v\n%s", err, out)
	}
	if !strings.Contains(out, "replayed 5 steps: 1 selected") {
		t.Errorf("unexpected summary: %s", out)
	}

	data, err := os.ReadFile(docOut)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := document.Parse(data)
	if err != nil {
		t.Fatalf("written document does not parse: %v", err)
	}
	if len(doc.Shapes) != 6 {
		t.Fatalf("got %d shapes, want 6", len(doc.Shapes))
	}

	f, err := os.Open(pngOut)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 180 {
		t.Fatalf("png is %v, want 320x180", b)
	}
}

func TestReplayFailedExpectation(t *testing.T) {
	script := filepath.Join(t.TempDir(), "bad.vfg")
	if err := os.WriteFile(script, []byte("expect shapes 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "replay", script)
	if err == nil || !strings.Contains(err.Error(), "bad.vfg:1:") {
		t.Fatalf("got %v, want a positioned expectation error", err)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"sample", []string{"--sample", "--scale", "0.5"}, false},
		{"overlay", []string{"--sample", "--overlay", "--select-all", "--scale", "0.5"}, false},
		{"bad scale", []string{"--sample", "--scale", "0"}, true},
		{"no input", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "p.png")
			args := append([]string{"preview", "-o", path}, tt.args...)
			out, err := execute(t, args...)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("preview: %v", err)
			}
			if !strings.Contains(out, "(640x360)") {
				t.Fatalf("unexpected output: %s", out)
			}
			if _, err := os.Stat(path); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestMigratePrint(t *testing.T) {
	out, err := execute(t, "migrate", "--print")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "CREATE TABLE IF NOT EXISTS drawings") {
		t.Fatalf("schema not printed:\n%s", out)
	}
}
