package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns queries bound to tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// --- users ---

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

const createUser = `INSERT INTO users (id, email, password, display_name)
VALUES ($1, $2, $3, $4)
RETURNING id, email, password, display_name, created_at`

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.ID, arg.Email, arg.Password, arg.DisplayName)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

const getUserByEmail = `SELECT id, email, password, display_name, created_at FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByEmail, email).
		Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

const getUserByID = `SELECT id, email, password, display_name, created_at FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByID, id).
		Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

// --- drawings ---

type CreateDrawingParams struct {
	ID      string
	Name    string
	OwnerID string
	Width   float64
	Height  float64
}

const drawingColumns = `id, name, owner_id, width, height, created_at, updated_at`

func scanDrawing(row pgx.Row) (Drawing, error) {
	var d Drawing
	err := row.Scan(&d.ID, &d.Name, &d.OwnerID, &d.Width, &d.Height, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

const createDrawing = `INSERT INTO drawings (id, name, owner_id, width, height)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + drawingColumns

func (q *Queries) CreateDrawing(ctx context.Context, arg CreateDrawingParams) (Drawing, error) {
	return scanDrawing(q.db.QueryRow(ctx, createDrawing, arg.ID, arg.Name, arg.OwnerID, arg.Width, arg.Height))
}

const getDrawing = `SELECT ` + drawingColumns + ` FROM drawings WHERE id = $1`

func (q *Queries) GetDrawing(ctx context.Context, id string) (Drawing, error) {
	return scanDrawing(q.db.QueryRow(ctx, getDrawing, id))
}

const listDrawingsForOwner = `SELECT ` + drawingColumns + ` FROM drawings
WHERE owner_id = $1
ORDER BY updated_at DESC`

func (q *Queries) ListDrawingsForOwner(ctx context.Context, ownerID string) ([]Drawing, error) {
	rows, err := q.db.Query(ctx, listDrawingsForOwner, ownerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (Drawing, error) {
		return scanDrawing(r)
	})
}

type RenameDrawingParams struct {
	ID   string
	Name string
}

const renameDrawing = `UPDATE drawings SET name = $2, updated_at = now()
WHERE id = $1
RETURNING ` + drawingColumns

func (q *Queries) RenameDrawing(ctx context.Context, arg RenameDrawingParams) (Drawing, error) {
	return scanDrawing(q.db.QueryRow(ctx, renameDrawing, arg.ID, arg.Name))
}

const touchDrawing = `UPDATE drawings SET updated_at = now() WHERE id = $1`

func (q *Queries) TouchDrawing(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, touchDrawing, id)
	return err
}

const deleteDrawing = `DELETE FROM drawings WHERE id = $1`

func (q *Queries) DeleteDrawing(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteDrawing, id)
	return err
}

// --- snapshots ---

type CreateSnapshotParams struct {
	ID        string
	DrawingID string
	Version   int32
	Document  []byte
}

const snapshotColumns = `id, drawing_id, version, document, created_at`

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var s Snapshot
	err := row.Scan(&s.ID, &s.DrawingID, &s.Version, &s.Document, &s.CreatedAt)
	return s, err
}

const createSnapshot = `INSERT INTO snapshots (id, drawing_id, version, document)
VALUES ($1, $2, $3, $4)
RETURNING ` + snapshotColumns

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (Snapshot, error) {
	return scanSnapshot(q.db.QueryRow(ctx, createSnapshot, arg.ID, arg.DrawingID, arg.Version, arg.Document))
}

// createNextSnapshot picks the next version in the same statement so two
// writers cannot race on it; the unique constraint rejects the loser.
const createNextSnapshot = `INSERT INTO snapshots (id, drawing_id, version, document)
SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3 FROM snapshots WHERE drawing_id = $2
RETURNING ` + snapshotColumns

type CreateNextSnapshotParams struct {
	ID        string
	DrawingID string
	Document  []byte
}

func (q *Queries) CreateNextSnapshot(ctx context.Context, arg CreateNextSnapshotParams) (Snapshot, error) {
	return scanSnapshot(q.db.QueryRow(ctx, createNextSnapshot, arg.ID, arg.DrawingID, arg.Document))
}

const getLatestSnapshot = `SELECT ` + snapshotColumns + ` FROM snapshots
WHERE drawing_id = $1
ORDER BY version DESC
LIMIT 1`

func (q *Queries) GetLatestSnapshot(ctx context.Context, drawingID string) (Snapshot, error) {
	return scanSnapshot(q.db.QueryRow(ctx, getLatestSnapshot, drawingID))
}

type GetSnapshotParams struct {
	DrawingID string
	Version   int32
}

const getSnapshot = `SELECT ` + snapshotColumns + ` FROM snapshots WHERE drawing_id = $1 AND version = $2`

func (q *Queries) GetSnapshot(ctx context.Context, arg GetSnapshotParams) (Snapshot, error) {
	return scanSnapshot(q.db.QueryRow(ctx, getSnapshot, arg.DrawingID, arg.Version))
}

// ListSnapshots returns versions newest first without their documents.
const listSnapshots = `SELECT id, drawing_id, version, NULL::jsonb, created_at FROM snapshots
WHERE drawing_id = $1
ORDER BY version DESC`

func (q *Queries) ListSnapshots(ctx context.Context, drawingID string) ([]Snapshot, error) {
	rows, err := q.db.Query(ctx, listSnapshots, drawingID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (Snapshot, error) {
		return scanSnapshot(r)
	})
}

// --- edit log ---

type AppendEditParams struct {
	ID        string
	DrawingID string
	UserID    string
	Action    string
	Name      string
	Entry     []byte
}

const editColumns = `id, drawing_id, user_id, seq, action, name, entry, created_at`

func scanEdit(row pgx.Row) (Edit, error) {
	var e Edit
	err := row.Scan(&e.ID, &e.DrawingID, &e.UserID, &e.Seq, &e.Action, &e.Name, &e.Entry, &e.CreatedAt)
	return e, err
}

const appendEdit = `INSERT INTO edits (id, drawing_id, user_id, action, name, entry)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + editColumns

func (q *Queries) AppendEdit(ctx context.Context, arg AppendEditParams) (Edit, error) {
	return scanEdit(q.db.QueryRow(ctx, appendEdit, arg.ID, arg.DrawingID, arg.UserID, arg.Action, arg.Name, arg.Entry))
}

type ListEditsParams struct {
	DrawingID string
	AfterSeq  int64
	Limit     int32
}

const listEdits = `SELECT ` + editColumns + ` FROM edits
WHERE drawing_id = $1 AND seq > $2
ORDER BY seq
LIMIT $3`

func (q *Queries) ListEdits(ctx context.Context, arg ListEditsParams) ([]Edit, error) {
	rows, err := q.db.Query(ctx, listEdits, arg.DrawingID, arg.AfterSeq, arg.Limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (Edit, error) {
		return scanEdit(r)
	})
}
