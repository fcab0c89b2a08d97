package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/document"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/history"
)

type memStore struct {
	mu      sync.Mutex
	docs    map[string][]byte
	version int32
	edits   []string
}

func (m *memStore) Load(_ context.Context, id string) (*document.Drawing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return document.Parse(m.docs[id])
}

func (m *memStore) Save(_ context.Context, id string, doc *document.Drawing) (int32, error) {
	data, err := doc.JSON()
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = data
	m.version++
	return m.version, nil
}

func (m *memStore) AppendEdit(_ context.Context, _, _ string, ev history.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, ev.Action+" "+ev.Command.Name())
	return nil
}

func (m *memStore) doc(t *testing.T, id string) *document.Drawing {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := document.Parse(m.docs[id])
	if err != nil {
		t.Fatal(err)
	}
	return d
}

const drawingID = "drw_live"

func newTestHub(t *testing.T, autosave time.Duration) (*Hub, *memStore, string) {
	t.Helper()
	data, err := document.NewSampleDrawing(drawingID).JSON()
	if err != nil {
		t.Fatal(err)
	}
	store := &memStore{docs: map[string][]byte{drawingID: data}, version: 1}
	hub := NewHub(store, Options{
		Editor:           config.DefaultEditor(),
		AutosaveInterval: autosave,
		FrameInterval:    5 * time.Millisecond,
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(r.Context(), conn, drawingID, "user_a")
	}))
	t.Cleanup(func() {
		hub.Stop()
		srv.Close()
	})
	return hub, store, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// readUntil reads messages until one of type typ satisfies ok.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, ok func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg.Type == typ && (ok == nil || ok(msg.Payload)) {
			return msg.Payload
		}
	}
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, seq int64, typ string, payload any) {
	t.Helper()
	data, _ := json.Marshal(payload)
	if err := wsjson.Write(ctx, conn, Message{Type: typ, Seq: seq, Payload: data}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func frameSeq(seq int64) func(json.RawMessage) bool {
	return func(p json.RawMessage) bool {
		var f FramePayload
		return json.Unmarshal(p, &f) == nil && f.Seq == seq
	}
}

func TestDragAutosavesAndLogs(t *testing.T) {
	_, store, url := newTestHub(t, 20*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dial(t, ctx, url)

	var welcome WelcomePayload
	json.Unmarshal(readUntil(t, ctx, conn, TypeWelcome, nil), &welcome)
	if welcome.DrawingID != drawingID || welcome.ClientID == "" {
		t.Fatalf("welcome got %+v", welcome)
	}
	var doc document.Drawing
	json.Unmarshal(readUntil(t, ctx, conn, TypeDocSync, nil), &doc)
	if len(doc.Shapes) != 6 {
		t.Fatalf("doc.sync has %d shapes", len(doc.Shapes))
	}

	// The sample rectangle spans (200,200)-(400,350).
	send(t, ctx, conn, 1, TypePointerDown, PointerPayload{X: 300, Y: 275})
	var f FramePayload
	json.Unmarshal(readUntil(t, ctx, conn, TypeFrame, frameSeq(1)), &f)
	if !f.Consumed || f.State.Session != "GRABBED" {
		t.Fatalf("press frame got consumed=%v session=%q", f.Consumed, f.State.Session)
	}

	send(t, ctx, conn, 2, TypePointerMove, PointerPayload{X: 340, Y: 275})
	send(t, ctx, conn, 3, TypePointerUp, PointerPayload{X: 340, Y: 275})
	json.Unmarshal(readUntil(t, ctx, conn, TypeFrame, frameSeq(3)), &f)
	if !f.State.CanUndo || f.State.UndoName != "Move" {
		t.Fatalf("after drag state %+v", f.State)
	}

	var saved SavedPayload
	json.Unmarshal(readUntil(t, ctx, conn, TypeSaved, nil), &saved)
	if saved.Version != 2 {
		t.Errorf("saved version got %d, want 2", saved.Version)
	}

	got := store.doc(t, drawingID)
	// the move is baked into the transform; the local position is kept
	if m := got.Shapes[0].Transform; m[4] != 40 || m[5] != 0 {
		t.Errorf("saved rectangle transform got %v, want translation (40, 0)", m)
	}
	store.mu.Lock()
	edits := append([]string(nil), store.edits...)
	store.mu.Unlock()
	if len(edits) != 1 || edits[0] != "push Move" {
		t.Errorf("edit log got %v", edits)
	}
}

func TestSecondEditorIsRejected(t *testing.T) {
	hub, _, url := newTestHub(t, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first := dial(t, ctx, url)
	readUntil(t, ctx, first, TypeWelcome, nil)

	second := dial(t, ctx, url)
	var e ErrorPayload
	json.Unmarshal(readUntil(t, ctx, second, TypeError, nil), &e)
	if e.Code != CodeBusy {
		t.Fatalf("second editor error got %+v", e)
	}
	var msg Message
	if err := wsjson.Read(ctx, second, &msg); websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Errorf("second connection close got %v", err)
	}

	first.Close(websocket.StatusNormalClosure, "")
	deadline := time.Now().Add(5 * time.Second)
	for hub.Busy(drawingID) {
		if time.Now().After(deadline) {
			t.Fatal("drawing still busy after the editor left")
		}
		time.Sleep(5 * time.Millisecond)
	}

	third := dial(t, ctx, url)
	readUntil(t, ctx, third, TypeWelcome, nil)
}

func TestBadInputAndStopSaves(t *testing.T) {
	hub, store, url := newTestHub(t, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dial(t, ctx, url)
	readUntil(t, ctx, conn, TypeWelcome, nil)

	send(t, ctx, conn, 1, "teleport", nil)
	var e ErrorPayload
	json.Unmarshal(readUntil(t, ctx, conn, TypeError, nil), &e)
	if e.Code != CodeBadInput {
		t.Fatalf("unknown type error got %+v", e)
	}

	send(t, ctx, conn, 2, TypeKeyDown, KeyPayload{Key: "a", Modifiers: "ctrl"})
	send(t, ctx, conn, 3, TypeKeyDown, KeyPayload{Key: "Delete"})
	var f FramePayload
	json.Unmarshal(readUntil(t, ctx, conn, TypeFrame, frameSeq(3)), &f)
	if !f.Consumed || !f.State.Modified {
		t.Fatalf("delete frame got consumed=%v modified=%v", f.Consumed, f.State.Modified)
	}

	hub.Stop()
	if got := store.doc(t, drawingID); len(got.Shapes) != 0 {
		t.Errorf("after stop saved %d shapes, want 0", len(got.Shapes))
	}
}

func TestShapeAdd(t *testing.T) {
	hub, store, url := newTestHub(t, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dial(t, ctx, url)
	readUntil(t, ctx, conn, TypeWelcome, nil)

	send(t, ctx, conn, 1, TypeShapeAdd, ShapeAddPayload{
		Type:   document.ShapeTypeEllipse,
		Bounds: geom.Rect{X: 40, Y: 60, Width: 80, Height: 50},
		Style:  document.Style{Fill: "#00ff00"},
	})
	var f FramePayload
	json.Unmarshal(readUntil(t, ctx, conn, TypeFrame, frameSeq(1)), &f)
	if !f.Consumed || f.State.UndoName != "Add Ellipse" {
		t.Fatalf("add frame got consumed=%v undo=%q", f.Consumed, f.State.UndoName)
	}

	send(t, ctx, conn, 2, TypeShapeAdd, ShapeAddPayload{Type: document.ShapeTypeGroup, Bounds: geom.Rect{Width: 10, Height: 10}})
	var e ErrorPayload
	json.Unmarshal(readUntil(t, ctx, conn, TypeError, nil), &e)
	if e.Code != CodeBadInput {
		t.Fatalf("group add error got %+v", e)
	}

	hub.Stop()
	got := store.doc(t, drawingID)
	if len(got.Shapes) != 7 {
		t.Fatalf("saved %d shapes, want 7", len(got.Shapes))
	}
	last := got.Shapes[len(got.Shapes)-1]
	if last.Type != document.ShapeTypeEllipse || last.Pos != geom.Pt(40, 60) || last.Style.Fill != "#00ff00" {
		t.Errorf("added shape saved as %+v", last)
	}
}

func TestDeliverAfterStopReturns(t *testing.T) {
	hub, _, _ := newTestHub(t, time.Hour)

	room, err := hub.Open(context.Background(), drawingID, NewClient(nil, "user_a", "client_a"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	hub.Stop()
	room.Wait()

	delivered := make(chan struct{})
	go func() {
		// more than the inbox holds
		for i := 0; i < 200; i++ {
			room.Deliver(Message{Type: TypeUndo})
		}
		close(delivered)
	}()
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("Deliver blocked on a stopped room")
	}
}
