package live

import (
	"encoding/json"

	"github.com/vectorflow/vectorflow/internal/document"
	"github.com/vectorflow/vectorflow/internal/engine"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/input"
)

// Message is the envelope for every frame on the live channel.
type Message struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	// client -> server
	TypePointerDown = "pointer.down"
	TypePointerMove = "pointer.move"
	TypePointerUp   = "pointer.up"
	TypeKeyDown     = "key.down"
	TypeSelect      = "select"
	TypeUndo        = "undo"
	TypeRedo        = "redo"
	TypeCancel      = "cancel"
	TypeShapeAdd    = "shape.add"
	TypeGuideAdd    = "guide.add"
	TypeGuideRemove = "guide.remove"
	TypeGridSet     = "grid.set"
	TypeSnapSet     = "snap.set"
	TypeViewScale   = "view.scale"
	TypeSave        = "save"

	// server -> client
	TypeWelcome = "welcome"
	TypeDocSync = "doc.sync"
	TypeFrame   = "frame"
	TypeSaved   = "saved"
	TypeError   = "error"
)

// Error codes carried by TypeError.
const (
	CodeBusy     = "busy"
	CodeBadInput = "bad_input"
	CodeInternal = "internal"
)

type PointerPayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Button    int     `json:"button"`
	Modifiers string  `json:"modifiers,omitempty"`
}

func (p PointerPayload) Event() input.PointerEvent {
	return input.PointerEvent{
		Pos:       geom.Pt(p.X, p.Y),
		Button:    input.Button(p.Button),
		Modifiers: input.ParseModifiers(p.Modifiers),
	}
}

type KeyPayload struct {
	Key       string `json:"key"`
	Modifiers string `json:"modifiers,omitempty"`
}

func (k KeyPayload) Event() input.KeyEvent {
	return input.KeyEvent{Key: input.Key(k.Key), Modifiers: input.ParseModifiers(k.Modifiers)}
}

type SelectPayload struct {
	IDs []string `json:"ids"`
}

type ShapeAddPayload struct {
	Type   document.ShapeType `json:"type"`
	Bounds geom.Rect          `json:"bounds"`
	Style  document.Style     `json:"style"`
}

type GuidePayload struct {
	Orientation geom.Orientation `json:"orientation"`
	Position    float64          `json:"position"`
}

type GridPayload struct {
	Size    float64 `json:"size"`
	Visible bool    `json:"visible"`
	Snap    bool    `json:"snap"`
}

type SnapPayload struct {
	Enabled bool `json:"enabled"`
	Objects bool `json:"objects"`
}

type ViewScalePayload struct {
	Scale float64 `json:"scale"`
}

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	DrawingID string `json:"drawingId"`
	Version   int32  `json:"version"`
}

// FramePayload is sent after every handled message and on timer ticks
// while deferred work is pending. Seq echoes the last handled message.
type FramePayload struct {
	Seq      int64                `json:"seq,omitempty"`
	Consumed bool                 `json:"consumed"`
	Commands []engine.DrawCommand `json:"commands"`
	State    engine.State         `json:"state"`
}

type SavedPayload struct {
	Version int32 `json:"version"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newMessage(typ string, payload any) *Message {
	data, _ := json.Marshal(payload)
	return &Message{Type: typ, Payload: data}
}
