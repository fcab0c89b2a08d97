// Package live serves the websocket editing channel. A drawing is edited by
// one connection at a time; the server runs the editor engine and streams
// draw commands back to the browser.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/document"
	"github.com/vectorflow/vectorflow/internal/engine"
	"github.com/vectorflow/vectorflow/internal/history"
)

var ErrDrawingBusy = errors.New("drawing is open in another session")

// Store loads and persists drawings for the hub.
type Store interface {
	Load(ctx context.Context, drawingID string) (*document.Drawing, error)
	Save(ctx context.Context, drawingID string, doc *document.Drawing) (int32, error)
	AppendEdit(ctx context.Context, drawingID, userID string, ev history.Event) error
}

type Options struct {
	Editor           config.Editor
	AutosaveInterval time.Duration
	// FrameInterval paces engine ticks while timers or deferred work are
	// pending (marching ants, handle refresh).
	FrameInterval time.Duration
}

type Hub struct {
	store Store
	opts  Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	rooms map[string]*Room // drawingID -> room
}

func NewHub(store Store, opts Options) *Hub {
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = 10 * time.Second
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 16 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		store:  store,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		rooms:  make(map[string]*Room),
	}
}

// Open claims the drawing for client and starts its room. It returns
// ErrDrawingBusy while another client holds the drawing.
func (h *Hub) Open(ctx context.Context, drawingID string, client *Client) (*Room, error) {
	h.mu.Lock()
	if _, busy := h.rooms[drawingID]; busy {
		h.mu.Unlock()
		return nil, ErrDrawingBusy
	}
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return nil, fmt.Errorf("open drawing: %w", h.ctx.Err())
	}
	// Reserve the slot while loading so a concurrent Open sees it busy.
	h.rooms[drawingID] = nil
	h.mu.Unlock()

	room, err := h.load(ctx, drawingID, client)
	if err != nil {
		h.mu.Lock()
		delete(h.rooms, drawingID)
		h.mu.Unlock()
		return nil, err
	}

	h.mu.Lock()
	h.rooms[drawingID] = room
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		room.run(h.ctx)
	}()

	slog.Info("drawing opened", "drawing", drawingID, "user", client.UserID)
	return room, nil
}

func (h *Hub) load(ctx context.Context, drawingID string, client *Client) (*Room, error) {
	doc, err := h.store.Load(ctx, drawingID)
	if err != nil {
		return nil, fmt.Errorf("load drawing: %w", err)
	}
	e := engine.NewEngine(h.opts.Editor)
	if err := e.LoadDrawing(doc); err != nil {
		return nil, fmt.Errorf("load drawing: %w", err)
	}
	return newRoom(h, drawingID, client, e), nil
}

func (h *Hub) remove(r *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[r.drawingID] == r {
		delete(h.rooms, r.drawingID)
	}
}

// Busy reports whether a drawing is currently open.
func (h *Hub) Busy(drawingID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.rooms[drawingID]
	return ok
}

// Serve runs one websocket connection for drawingID until it closes.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, drawingID, userID string) {
	client := NewClient(conn, userID, uuid.New().String())

	room, err := h.Open(ctx, drawingID, client)
	if err != nil {
		if errors.Is(err, ErrDrawingBusy) {
			Reject(ctx, conn, CodeBusy, err.Error())
			return
		}
		slog.Error("open drawing", "drawing", drawingID, "error", err)
		Reject(ctx, conn, CodeInternal, "could not open drawing")
		return
	}

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		client.WritePump(context.WithoutCancel(ctx))
	}()

	client.ReadPump(ctx, room.Deliver)
	room.Close()
	room.Wait()
	writer.Wait()
}

// Stop closes every room, saving unsaved changes, and waits for them.
func (h *Hub) Stop() {
	h.cancel()
	h.wg.Wait()
}
