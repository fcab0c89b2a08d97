package handle

import "github.com/vectorflow/vectorflow/internal/geom"

// Kind identifies one of the nine handle slots.
type Kind int

const (
	None Kind = iota
	TopLeft
	Top
	TopRight
	Left
	Right
	BottomLeft
	Bottom
	BottomRight
	Rotate
)

// Kinds lists every real handle in drawing order. Rotate is last so it is
// drawn above the others.
var Kinds = [...]Kind{TopLeft, Top, TopRight, Left, Right, BottomLeft, Bottom, BottomRight, Rotate}

var kindNames = [...]string{
	None:        "none",
	TopLeft:     "topLeft",
	Top:         "top",
	TopRight:    "topRight",
	Left:        "left",
	Right:       "right",
	BottomLeft:  "bottomLeft",
	Bottom:      "bottom",
	BottomRight: "bottomRight",
	Rotate:      "rotate",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "none"
	}
	return kindNames[k]
}

// ParseKind is the inverse of String. Unknown names give None.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return Kind(k)
		}
	}
	return None
}

func (k Kind) IsCorner() bool {
	return k == TopLeft || k == TopRight || k == BottomLeft || k == BottomRight
}

func (k Kind) IsEdge() bool {
	return k == Top || k == Bottom || k == Left || k == Right
}

// IsScale reports whether dragging k scales the target.
func (k Kind) IsScale() bool { return k.IsCorner() || k.IsEdge() }

// ScalesX reports whether k changes horizontal extent.
func (k Kind) ScalesX() bool { return k.IsCorner() || k == Left || k == Right }

// ScalesY reports whether k changes vertical extent.
func (k Kind) ScalesY() bool { return k.IsCorner() || k == Top || k == Bottom }

// Anchor returns the bounding-box position the handle sits on. Rotate sits
// above the top edge and reports AnchorTop.
func (k Kind) Anchor() geom.Anchor {
	switch k {
	case TopLeft:
		return geom.AnchorTopLeft
	case Top, Rotate:
		return geom.AnchorTop
	case TopRight:
		return geom.AnchorTopRight
	case Left:
		return geom.AnchorLeft
	case Right:
		return geom.AnchorRight
	case BottomLeft:
		return geom.AnchorBottomLeft
	case Bottom:
		return geom.AnchorBottom
	case BottomRight:
		return geom.AnchorBottomRight
	default:
		return geom.AnchorCenter
	}
}

// Opposite returns the handle mirrored through the bounds center. Rotate has
// no opposite and returns None, which sits on the center.
func (k Kind) Opposite() Kind {
	switch k {
	case TopLeft:
		return BottomRight
	case Top:
		return Bottom
	case TopRight:
		return BottomLeft
	case Left:
		return Right
	case Right:
		return Left
	case BottomLeft:
		return TopRight
	case Bottom:
		return Top
	case BottomRight:
		return TopLeft
	default:
		return None
	}
}

// Cursor is a CSS cursor name.
type Cursor string

const (
	CursorDefault   Cursor = "default"
	CursorMove      Cursor = "move"
	CursorNWSE      Cursor = "nwse-resize"
	CursorNESW      Cursor = "nesw-resize"
	CursorNS        Cursor = "ns-resize"
	CursorEW        Cursor = "ew-resize"
	CursorCrosshair Cursor = "crosshair"
)

// Cursor returns the pointer shape shown over the handle.
func (k Kind) Cursor() Cursor {
	switch k {
	case TopLeft, BottomRight:
		return CursorNWSE
	case TopRight, BottomLeft:
		return CursorNESW
	case Top, Bottom:
		return CursorNS
	case Left, Right:
		return CursorEW
	case Rotate:
		return CursorCrosshair
	default:
		return CursorDefault
	}
}
