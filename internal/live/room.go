package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vectorflow/vectorflow/internal/engine"
	"github.com/vectorflow/vectorflow/internal/history"
)

const storeTimeout = 5 * time.Second

// Room is one open drawing. Its engine is owned by the run goroutine; every
// other goroutine talks to it through the inbox.
type Room struct {
	hub       *Hub
	drawingID string
	client    *Client
	engine    *engine.Engine
	version   int32

	inbox     chan Message
	done      chan struct{}
	closeOnce sync.Once
	finished  chan struct{}
}

func newRoom(h *Hub, drawingID string, client *Client, e *engine.Engine) *Room {
	return &Room{
		hub:       h,
		drawingID: drawingID,
		client:    client,
		engine:    e,
		inbox:     make(chan Message, 64),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
	}
}

// Deliver queues a client message. It drops the message once the room is
// closing.
func (r *Room) Deliver(msg Message) {
	select {
	case r.inbox <- msg:
	case <-r.done:
	case <-r.finished:
	}
}

// Close asks the run loop to save and exit.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Wait blocks until the run loop has exited.
func (r *Room) Wait() { <-r.finished }

func (r *Room) run(ctx context.Context) {
	defer close(r.finished)
	defer close(r.client.send)
	defer r.hub.remove(r)

	e := r.engine
	e.OnHistory(r.logEdit)

	frame := time.NewTicker(r.hub.opts.FrameInterval)
	defer frame.Stop()
	autosave := time.NewTicker(r.hub.opts.AutosaveInterval)
	defer autosave.Stop()

	r.client.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID:  r.client.ClientID,
		DrawingID: r.drawingID,
		Version:   r.version,
	}))
	r.sendDocument()
	e.Tick(time.Now())
	r.sendFrame(0, false)

	for {
		select {
		case msg := <-r.inbox:
			consumed := r.handle(msg)
			r.sendFrame(msg.Seq, consumed)

		case now := <-frame.C:
			st := e.State()
			if st.Pending[0]+st.Pending[1] > 0 {
				e.Tick(now)
				r.sendFrame(0, false)
			}

		case <-autosave.C:
			if !e.Session().Active() {
				r.save()
			}

		case <-r.done:
			r.shutdown()
			return

		case <-ctx.Done():
			r.shutdown()
			return
		}
	}
}

func (r *Room) shutdown() {
	r.Close()
	r.engine.Cancel()
	r.save()
	slog.Info("drawing closed", "drawing", r.drawingID, "user", r.client.UserID)
}

// handle applies one client message to the engine and reports whether it
// was consumed.
func (r *Room) handle(msg Message) bool {
	e := r.engine
	switch msg.Type {
	case TypePointerDown, TypePointerMove, TypePointerUp:
		var p PointerPayload
		if !r.decode(msg, &p) {
			return false
		}
		switch msg.Type {
		case TypePointerDown:
			return e.PointerDown(p.Event())
		case TypePointerMove:
			return e.PointerMove(p.Event())
		default:
			return e.PointerUp(p.Event())
		}

	case TypeKeyDown:
		var k KeyPayload
		if !r.decode(msg, &k) {
			return false
		}
		return e.KeyDown(k.Event())

	case TypeSelect:
		var s SelectPayload
		if !r.decode(msg, &s) {
			return false
		}
		e.SetSelection(s.IDs)
		return true

	case TypeUndo:
		return e.Undo()
	case TypeRedo:
		return e.Redo()
	case TypeCancel:
		return e.Cancel()

	case TypeShapeAdd:
		var a ShapeAddPayload
		if !r.decode(msg, &a) {
			return false
		}
		if _, err := e.AddShape(a.Type, a.Bounds, a.Style); err != nil {
			r.sendError(CodeBadInput, err.Error())
			return false
		}
		return true

	case TypeGuideAdd:
		var g GuidePayload
		if !r.decode(msg, &g) {
			return false
		}
		e.AddGuide(g.Orientation, g.Position)
		return true

	case TypeGuideRemove:
		var g GuidePayload
		if !r.decode(msg, &g) {
			return false
		}
		return e.RemoveGuide(g.Orientation, g.Position)

	case TypeGridSet:
		var g GridPayload
		if !r.decode(msg, &g) {
			return false
		}
		e.SetGrid(g.Size, g.Visible, g.Snap)
		return true

	case TypeSnapSet:
		var s SnapPayload
		if !r.decode(msg, &s) {
			return false
		}
		e.SetSnap(s.Enabled, s.Objects)
		return true

	case TypeViewScale:
		var v ViewScalePayload
		if !r.decode(msg, &v) {
			return false
		}
		e.SetViewScale(v.Scale)
		return true

	case TypeSave:
		if e.Session().Active() {
			return false
		}
		return r.save()

	default:
		r.sendError(CodeBadInput, fmt.Sprintf("unknown message type %q", msg.Type))
		return false
	}
}

func (r *Room) decode(msg Message, v any) bool {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		r.sendError(CodeBadInput, fmt.Sprintf("%s: %v", msg.Type, err))
		return false
	}
	return true
}

// save stores the committed document when it has unsaved changes.
func (r *Room) save() bool {
	e := r.engine
	if !e.Modified() {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	version, err := r.hub.store.Save(ctx, r.drawingID, e.Document())
	if err != nil {
		slog.Error("autosave failed", "drawing", r.drawingID, "error", err)
		r.sendError(CodeInternal, "save failed")
		return false
	}

	e.MarkSaved()
	r.version = version
	r.client.Send(newMessage(TypeSaved, SavedPayload{Version: version}))
	slog.Debug("drawing saved", "drawing", r.drawingID, "version", version)
	return true
}

func (r *Room) logEdit(ev history.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := r.hub.store.AppendEdit(ctx, r.drawingID, r.client.UserID, ev); err != nil {
		slog.Error("append edit failed", "drawing", r.drawingID, "error", err)
	}
}

func (r *Room) sendDocument() {
	data, err := r.engine.Document().JSON()
	if err != nil {
		slog.Error("marshal document", "error", err)
		return
	}
	r.client.Send(&Message{Type: TypeDocSync, Payload: data})
}

func (r *Room) sendFrame(seq int64, consumed bool) {
	r.client.Send(newMessage(TypeFrame, FramePayload{
		Seq:      seq,
		Consumed: consumed,
		Commands: r.engine.DrawCommands(),
		State:    r.engine.State(),
	}))
}

func (r *Room) sendError(code, text string) {
	r.client.Send(newMessage(TypeError, ErrorPayload{Code: code, Message: text}))
}
