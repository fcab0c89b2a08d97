package document

import (
	"encoding/json"
	"fmt"

	"github.com/vectorflow/vectorflow/internal/geom"
)

const CurrentVersion = 1

type Drawing struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Background string      `json:"background"`
	CreatedAt  string      `json:"createdAt"`
	UpdatedAt  string      `json:"updatedAt"`
	Shapes     []ShapeNode `json:"shapes"`
	Guides     []Guide     `json:"guides"`
	Grid       Grid        `json:"grid"`
}

type ShapeType string

const (
	ShapeTypeRect    ShapeType = "Rect"
	ShapeTypeEllipse ShapeType = "Ellipse"
	ShapeTypePath    ShapeType = "Path"
	ShapeTypeText    ShapeType = "Text"
	ShapeTypeGroup   ShapeType = "Group"
)

type Style struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
}

// ShapeNode is one entry of the shape arena. Shapes are listed back to front.
// Group membership is a relation: a member names its group, the group lists
// its members.
type ShapeNode struct {
	ID        string        `json:"id"`
	Type      ShapeType     `json:"type"`
	Name      string        `json:"name,omitempty"`
	Bounds    geom.Rect     `json:"bounds"`
	Pos       geom.Point    `json:"pos"`
	Transform geom.Matrix2D `json:"transform"`
	Style     Style         `json:"style"`
	Points    []geom.Point  `json:"points,omitempty"`
	Text      string        `json:"text,omitempty"`
	Visible   bool          `json:"visible"`
	Locked    bool          `json:"locked"`
	Group     string        `json:"group,omitempty"`
	Members   []string      `json:"members,omitempty"`
}

type Guide struct {
	ID          string           `json:"id"`
	Orientation geom.Orientation `json:"orientation"`
	Position    float64          `json:"position"`
	Visible     bool             `json:"visible"`
	Color       string           `json:"color"`
}

type Grid struct {
	Size    float64 `json:"size"`
	Visible bool    `json:"visible"`
	Snap    bool    `json:"snap"`
}

// NewEmptyDrawing creates an empty drawing with default canvas settings.
func NewEmptyDrawing(id, name string) *Drawing {
	return &Drawing{
		ID:         id,
		Name:       name,
		Version:    CurrentVersion,
		Width:      1280,
		Height:     720,
		Background: "#ffffff",
		CreatedAt:  "", // set by caller
		UpdatedAt:  "",
		Shapes:     []ShapeNode{},
		Guides:     []Guide{},
		Grid:       Grid{Size: 20, Snap: true},
	}
}

// Parse decodes a drawing and checks its references.
func Parse(data []byte) (*Drawing, error) {
	var d Drawing
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode drawing: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks that IDs are unique and that group relations agree.
func (d *Drawing) Validate() error {
	byID := make(map[string]*ShapeNode, len(d.Shapes))
	for i := range d.Shapes {
		n := &d.Shapes[i]
		if n.ID == "" {
			return fmt.Errorf("shape %d: missing id", i)
		}
		if _, dup := byID[n.ID]; dup {
			return fmt.Errorf("shape %s: duplicate id", n.ID)
		}
		byID[n.ID] = n
	}
	for _, n := range d.Shapes {
		if n.Group != "" {
			g, ok := byID[n.Group]
			if !ok || g.Type != ShapeTypeGroup {
				return fmt.Errorf("shape %s: unknown group %s", n.ID, n.Group)
			}
		}
		if n.Type != ShapeTypeGroup && len(n.Members) > 0 {
			return fmt.Errorf("shape %s: only groups have members", n.ID)
		}
		for _, m := range n.Members {
			member, ok := byID[m]
			if !ok {
				return fmt.Errorf("group %s: unknown member %s", n.ID, m)
			}
			if member.Group != n.ID {
				return fmt.Errorf("group %s: member %s names group %q", n.ID, m, member.Group)
			}
		}
	}
	return nil
}

func (d *Drawing) JSON() ([]byte, error) {
	return json.Marshal(d)
}
