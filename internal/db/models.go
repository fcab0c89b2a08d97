package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   pgtype.Timestamptz
}

type Drawing struct {
	ID        string
	Name      string
	OwnerID   string
	Width     float64
	Height    float64
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Snapshot struct {
	ID        string
	DrawingID string
	Version   int32
	Document  []byte
	CreatedAt pgtype.Timestamptz
}

type Edit struct {
	ID        string
	DrawingID string
	UserID    string
	Seq       int64
	Action    string
	Name      string
	Entry     []byte
	CreatedAt pgtype.Timestamptz
}
