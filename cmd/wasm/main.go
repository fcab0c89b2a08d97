//go:build js && wasm

package main

import (
	"encoding/json"
	"log/slog"
	"syscall/js"
	"time"

	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/document"
	"github.com/vectorflow/vectorflow/internal/engine"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/history"
	"github.com/vectorflow/vectorflow/internal/input"
)

var eng *engine.Engine

func main() {
	cfg, err := config.LoadEditor()
	if err != nil {
		slog.Warn("editor config, using defaults", "error", err)
		cfg = config.DefaultEditor()
	}
	eng = engine.NewEngine(cfg)

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("setViewScale", js.FuncOf(setViewScale))
	api.Set("pointerDown", js.FuncOf(pointer(eng.PointerDown)))
	api.Set("pointerMove", js.FuncOf(pointer(eng.PointerMove)))
	api.Set("pointerUp", js.FuncOf(pointer(eng.PointerUp)))
	api.Set("keyDown", js.FuncOf(keyDown))
	api.Set("cancel", js.FuncOf(func(js.Value, []js.Value) any { return eng.Cancel() }))
	api.Set("setSelection", js.FuncOf(setSelection))
	api.Set("selectAll", js.FuncOf(func(js.Value, []js.Value) any { eng.SelectAll(); return nil }))
	api.Set("clearSelection", js.FuncOf(func(js.Value, []js.Value) any { eng.ClearSelection(); return nil }))
	api.Set("addShape", js.FuncOf(addShape))
	api.Set("deleteSelection", js.FuncOf(func(js.Value, []js.Value) any { return eng.DeleteSelection() }))
	api.Set("nudge", js.FuncOf(nudge))
	api.Set("alignToGrid", js.FuncOf(func(js.Value, []js.Value) any { return eng.AlignSelectionToGrid() }))
	api.Set("group", js.FuncOf(func(js.Value, []js.Value) any { return eng.GroupSelection() }))
	api.Set("ungroup", js.FuncOf(func(js.Value, []js.Value) any { return eng.UngroupSelection() }))
	api.Set("undo", js.FuncOf(func(js.Value, []js.Value) any { return eng.Undo() }))
	api.Set("redo", js.FuncOf(func(js.Value, []js.Value) any { return eng.Redo() }))
	api.Set("addGuide", js.FuncOf(addGuide))
	api.Set("removeGuide", js.FuncOf(removeGuide))
	api.Set("setGuideVisible", js.FuncOf(setGuideVisible))
	api.Set("clearGuides", js.FuncOf(func(js.Value, []js.Value) any { eng.ClearGuides(); return nil }))
	api.Set("toggleGuides", js.FuncOf(func(js.Value, []js.Value) any { return eng.ToggleGuides() }))
	api.Set("setGrid", js.FuncOf(setGrid))
	api.Set("setSnap", js.FuncOf(setSnap))
	api.Set("markSaved", js.FuncOf(func(js.Value, []js.Value) any { eng.MarkSaved(); return nil }))
	api.Set("onHistory", js.FuncOf(onHistory))
	api.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(func(js.Value, []js.Value) any { return eng.Render() }))
	api.Set("hitTest", js.FuncOf(xy(eng.HitTest)))
	api.Set("handleAt", js.FuncOf(xy(eng.HandleAt)))
	api.Set("cursor", js.FuncOf(xy(eng.Cursor)))
	api.Set("getSelectionBounds", js.FuncOf(func(js.Value, []js.Value) any { return eng.GetSelectionBounds() }))
	api.Set("getSelection", js.FuncOf(func(js.Value, []js.Value) any { return eng.GetSelection() }))
	api.Set("getState", js.FuncOf(func(js.Value, []js.Value) any { return eng.GetState() }))
	api.Set("getDocument", js.FuncOf(func(js.Value, []js.Value) any { return eng.GetDocument() }))
	api.Set("isModified", js.FuncOf(func(js.Value, []js.Value) any { return eng.Modified() }))

	js.Global().Set("vectorflowEngine", api)
	js.Global().Set("vectorflowWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing document JSON"})
	}

	if err := eng.LoadDocument(args[0].String()); err != nil {
		return js.ValueOf(map[string]any{"error": err.Error()})
	}

	return js.ValueOf(map[string]any{"ok": true})
}

func loadSampleDocument(this js.Value, args []js.Value) any {
	drawingID := "drw_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		drawingID = args[0].String()
	}

	eng.LoadSampleDocument(drawingID)
	return js.ValueOf(map[string]any{"ok": true})
}

func setViewScale(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	eng.SetViewScale(args[0].Float())
	return nil
}

// pointer adapts a pointer handler to (x, y, button, modifiers).
func pointer(fn func(input.PointerEvent) bool) func(js.Value, []js.Value) any {
	return func(this js.Value, args []js.Value) any {
		if len(args) < 2 {
			return false
		}
		ev := input.PointerEvent{Pos: geom.Pt(args[0].Float(), args[1].Float())}
		if len(args) > 2 && args[2].Type() == js.TypeNumber {
			ev.Button = input.Button(args[2].Int())
		}
		if len(args) > 3 && args[3].Type() == js.TypeString {
			ev.Modifiers = input.ParseModifiers(args[3].String())
		}
		return fn(ev)
	}
}

func keyDown(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return false
	}
	ev := input.KeyEvent{Key: input.Key(args[0].String())}
	if len(args) > 1 && args[1].Type() == js.TypeString {
		ev.Modifiers = input.ParseModifiers(args[1].String())
	}
	return eng.KeyDown(ev)
}

func setSelection(this js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		eng.SetSelection(nil)
		return nil
	}

	arr := args[0]
	ids := make([]string, arr.Length())
	for i := range ids {
		ids[i] = arr.Index(i).String()
	}
	eng.SetSelection(ids)
	return nil
}

func nudge(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return false
	}
	return eng.Nudge(geom.Pt(args[0].Float(), args[1].Float()))
}

func orientation(v js.Value) geom.Orientation {
	var o geom.Orientation
	o.UnmarshalText([]byte(v.String()))
	return o
}

// addShape(type, x, y, width, height, styleJSON?) adds a shape and selects it.
func addShape(this js.Value, args []js.Value) any {
	if len(args) < 5 {
		return js.ValueOf(map[string]any{"error": "addShape(type, x, y, width, height, style?)"})
	}
	var style document.Style
	if len(args) > 5 && args[5].Type() == js.TypeString {
		if err := json.Unmarshal([]byte(args[5].String()), &style); err != nil {
			return js.ValueOf(map[string]any{"error": "invalid style: " + err.Error()})
		}
	}
	bounds := geom.Rect{X: args[1].Float(), Y: args[2].Float(), Width: args[3].Float(), Height: args[4].Float()}
	id, err := eng.AddShape(document.ShapeType(args[0].String()), bounds, style)
	if err != nil {
		return js.ValueOf(map[string]any{"error": err.Error()})
	}
	return js.ValueOf(map[string]any{"id": id})
}

func addGuide(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	g := eng.AddGuide(orientation(args[0]), args[1].Float())
	return g.ID
}

func removeGuide(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return false
	}
	return eng.RemoveGuide(orientation(args[0]), args[1].Float())
}

func setGuideVisible(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return false
	}
	return eng.SetGuideVisible(orientation(args[0]), args[1].Float(), args[2].Bool())
}

func setGrid(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return nil
	}
	eng.SetGrid(args[0].Float(), args[1].Bool(), args[2].Bool())
	return nil
}

func setSnap(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	eng.SetSnap(args[0].Bool(), args[1].Bool())
	return nil
}

// onHistory registers a JS callback receiving (action, entryJSON) for every
// undo stack change, e.g. to append to a remote edit log.
func onHistory(this js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return nil
	}
	fn := args[0]
	eng.OnHistory(func(ev history.Event) {
		data, err := json.Marshal(ev.Command.Entry())
		if err != nil {
			return
		}
		fn.Invoke(ev.Action, string(data))
	})
	return nil
}

// tick takes the requestAnimationFrame timestamp in milliseconds since the
// epoch and returns the frame's draw commands.
func tick(this js.Value, args []js.Value) any {
	now := time.Now()
	if len(args) > 0 && args[0].Type() == js.TypeNumber {
		now = time.UnixMilli(int64(args[0].Float()))
	}
	return eng.Tick(now)
}

// --- Query Handlers ---

func xy(fn func(x, y float64) string) func(js.Value, []js.Value) any {
	return func(this js.Value, args []js.Value) any {
		if len(args) < 2 {
			return ""
		}
		return fn(args[0].Float(), args[1].Float())
	}
}
