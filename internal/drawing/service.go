// Package drawing stores drawings, their versioned document snapshots and
// the edit log. Every drawing has a single owner.
package drawing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vectorflow/vectorflow/internal/db"
	"github.com/vectorflow/vectorflow/internal/document"
	"github.com/vectorflow/vectorflow/internal/history"
	"github.com/vectorflow/vectorflow/internal/typeid"
)

var (
	ErrNotFound  = errors.New("drawing not found")
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid document")
)

const timeFormat = "2006-01-02T15:04:05Z"

// Store is the subset of db.Queries the service needs.
type Store interface {
	CreateDrawing(ctx context.Context, arg db.CreateDrawingParams) (db.Drawing, error)
	GetDrawing(ctx context.Context, id string) (db.Drawing, error)
	ListDrawingsForOwner(ctx context.Context, ownerID string) ([]db.Drawing, error)
	RenameDrawing(ctx context.Context, arg db.RenameDrawingParams) (db.Drawing, error)
	TouchDrawing(ctx context.Context, id string) error
	DeleteDrawing(ctx context.Context, id string) error

	CreateSnapshot(ctx context.Context, arg db.CreateSnapshotParams) (db.Snapshot, error)
	CreateNextSnapshot(ctx context.Context, arg db.CreateNextSnapshotParams) (db.Snapshot, error)
	GetLatestSnapshot(ctx context.Context, drawingID string) (db.Snapshot, error)
	GetSnapshot(ctx context.Context, arg db.GetSnapshotParams) (db.Snapshot, error)
	ListSnapshots(ctx context.Context, drawingID string) ([]db.Snapshot, error)

	AppendEdit(ctx context.Context, arg db.AppendEditParams) (db.Edit, error)
	ListEdits(ctx context.Context, arg db.ListEditsParams) ([]db.Edit, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type Drawing struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	OwnerID   string  `json:"ownerId"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type Snapshot struct {
	ID        string `json:"id"`
	Version   int32  `json:"version"`
	CreatedAt string `json:"createdAt"`
}

type Edit struct {
	ID        string          `json:"id"`
	Seq       int64           `json:"seq"`
	UserID    string          `json:"userId"`
	Action    string          `json:"action"`
	Name      string          `json:"name"`
	Entry     json.RawMessage `json:"entry"`
	CreatedAt string          `json:"createdAt"`
}

// Create stores a new drawing and its first snapshot. With sample set the
// document starts from the built-in sample instead of an empty canvas.
func (s *Service) Create(ctx context.Context, name, ownerID string, sample bool) (*Drawing, error) {
	drawingID := typeid.NewDrawingID()

	doc := document.NewEmptyDrawing(drawingID, name)
	if sample {
		doc = document.NewSampleDrawing(drawingID)
		doc.Name = name
	}
	now := time.Now().UTC().Format(time.RFC3339)
	doc.CreatedAt, doc.UpdatedAt = now, now

	dbDrawing, err := s.store.CreateDrawing(ctx, db.CreateDrawingParams{
		ID:      drawingID,
		Name:    name,
		OwnerID: ownerID,
		Width:   doc.Width,
		Height:  doc.Height,
	})
	if err != nil {
		return nil, fmt.Errorf("create drawing: %w", err)
	}

	docJSON, err := doc.JSON()
	if err != nil {
		return nil, fmt.Errorf("marshal initial document: %w", err)
	}
	_, err = s.store.CreateSnapshot(ctx, db.CreateSnapshotParams{
		ID:        typeid.NewSnapshotID(),
		DrawingID: drawingID,
		Version:   1,
		Document:  docJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return toDrawing(dbDrawing), nil
}

func (s *Service) Get(ctx context.Context, drawingID, userID string) (*Drawing, error) {
	d, err := s.owned(ctx, drawingID, userID)
	if err != nil {
		return nil, err
	}
	return toDrawing(d), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Drawing, error) {
	rows, err := s.store.ListDrawingsForOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}

	drawings := make([]Drawing, len(rows))
	for i, d := range rows {
		drawings[i] = *toDrawing(d)
	}
	return drawings, nil
}

func (s *Service) Rename(ctx context.Context, drawingID, userID, name string) (*Drawing, error) {
	if _, err := s.owned(ctx, drawingID, userID); err != nil {
		return nil, err
	}
	d, err := s.store.RenameDrawing(ctx, db.RenameDrawingParams{ID: drawingID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("rename drawing: %w", err)
	}
	return toDrawing(d), nil
}

func (s *Service) Delete(ctx context.Context, drawingID, userID string) error {
	if _, err := s.owned(ctx, drawingID, userID); err != nil {
		return err
	}
	if err := s.store.DeleteDrawing(ctx, drawingID); err != nil {
		return fmt.Errorf("delete drawing: %w", err)
	}
	return nil
}

// Authorize reports whether userID may open the drawing.
func (s *Service) Authorize(ctx context.Context, drawingID, userID string) error {
	_, err := s.owned(ctx, drawingID, userID)
	return err
}

// LatestDocument returns the newest snapshot's document JSON and version.
func (s *Service) LatestDocument(ctx context.Context, drawingID, userID string) (json.RawMessage, int32, error) {
	if _, err := s.owned(ctx, drawingID, userID); err != nil {
		return nil, 0, err
	}
	snap, err := s.store.GetLatestSnapshot(ctx, drawingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Document, snap.Version, nil
}

// SaveSnapshot validates data as a drawing document and stores it as the
// next version.
func (s *Service) SaveSnapshot(ctx context.Context, drawingID, userID string, data []byte) (*Snapshot, error) {
	if _, err := s.owned(ctx, drawingID, userID); err != nil {
		return nil, err
	}
	doc, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return s.save(ctx, drawingID, doc)
}

func (s *Service) ListSnapshots(ctx context.Context, drawingID, userID string) ([]Snapshot, error) {
	if _, err := s.owned(ctx, drawingID, userID); err != nil {
		return nil, err
	}
	rows, err := s.store.ListSnapshots(ctx, drawingID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]Snapshot, len(rows))
	for i, r := range rows {
		out[i] = toSnapshot(r)
	}
	return out, nil
}

func (s *Service) GetSnapshot(ctx context.Context, drawingID, userID string, version int32) (json.RawMessage, error) {
	if _, err := s.owned(ctx, drawingID, userID); err != nil {
		return nil, err
	}
	snap, err := s.store.GetSnapshot(ctx, db.GetSnapshotParams{DrawingID: drawingID, Version: version})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Document, nil
}

// ListEdits pages through the edit log in commit order.
func (s *Service) ListEdits(ctx context.Context, drawingID, userID string, afterSeq int64, limit int32) ([]Edit, error) {
	if _, err := s.owned(ctx, drawingID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.store.ListEdits(ctx, db.ListEditsParams{DrawingID: drawingID, AfterSeq: afterSeq, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list edits: %w", err)
	}
	out := make([]Edit, len(rows))
	for i, e := range rows {
		out[i] = Edit{
			ID:        e.ID,
			Seq:       e.Seq,
			UserID:    e.UserID,
			Action:    e.Action,
			Name:      e.Name,
			Entry:     e.Entry,
			CreatedAt: e.CreatedAt.Time.Format(timeFormat),
		}
	}
	return out, nil
}

// --- live editing store (callers are already authorized) ---

// Load returns the newest document of a drawing.
func (s *Service) Load(ctx context.Context, drawingID string) (*document.Drawing, error) {
	snap, err := s.store.GetLatestSnapshot(ctx, drawingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return document.Parse(snap.Document)
}

// Save stores doc as the next snapshot and returns its version.
func (s *Service) Save(ctx context.Context, drawingID string, doc *document.Drawing) (int32, error) {
	snap, err := s.save(ctx, drawingID, doc)
	if err != nil {
		return 0, err
	}
	return snap.Version, nil
}

// AppendEdit records one undo stack change in the edit log.
func (s *Service) AppendEdit(ctx context.Context, drawingID, userID string, ev history.Event) error {
	entry := ev.Command.Entry()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal edit: %w", err)
	}
	_, err = s.store.AppendEdit(ctx, db.AppendEditParams{
		ID:        typeid.NewEditID(),
		DrawingID: drawingID,
		UserID:    userID,
		Action:    ev.Action,
		Name:      entry.Name,
		Entry:     data,
	})
	if err != nil {
		return fmt.Errorf("append edit: %w", err)
	}
	return nil
}

func (s *Service) save(ctx context.Context, drawingID string, doc *document.Drawing) (*Snapshot, error) {
	doc.ID = drawingID
	doc.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	data, err := doc.JSON()
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	snap, err := s.store.CreateNextSnapshot(ctx, db.CreateNextSnapshotParams{
		ID:        typeid.NewSnapshotID(),
		DrawingID: drawingID,
		Document:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	if err := s.store.TouchDrawing(ctx, drawingID); err != nil {
		return nil, fmt.Errorf("touch drawing: %w", err)
	}

	out := toSnapshot(snap)
	return &out, nil
}

func (s *Service) owned(ctx context.Context, drawingID, userID string) (db.Drawing, error) {
	d, err := s.store.GetDrawing(ctx, drawingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Drawing{}, ErrNotFound
		}
		return db.Drawing{}, fmt.Errorf("get drawing: %w", err)
	}
	if d.OwnerID != userID {
		return db.Drawing{}, ErrForbidden
	}
	return d, nil
}

func toDrawing(d db.Drawing) *Drawing {
	return &Drawing{
		ID:        d.ID,
		Name:      d.Name,
		OwnerID:   d.OwnerID,
		Width:     d.Width,
		Height:    d.Height,
		CreatedAt: d.CreatedAt.Time.Format(timeFormat),
		UpdatedAt: d.UpdatedAt.Time.Format(timeFormat),
	}
}

func toSnapshot(s db.Snapshot) Snapshot {
	return Snapshot{ID: s.ID, Version: s.Version, CreatedAt: s.CreatedAt.Time.Format(timeFormat)}
}
