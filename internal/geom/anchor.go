package geom

import "fmt"

// Anchor names one of the nine reference positions of a bounding box.
type Anchor int

const (
	AnchorTopLeft Anchor = iota
	AnchorTop
	AnchorTopRight
	AnchorLeft
	AnchorCenter
	AnchorRight
	AnchorBottomLeft
	AnchorBottom
	AnchorBottomRight
)

var anchorNames = [...]string{
	AnchorTopLeft:     "topLeft",
	AnchorTop:         "top",
	AnchorTopRight:    "topRight",
	AnchorLeft:        "left",
	AnchorCenter:      "center",
	AnchorRight:       "right",
	AnchorBottomLeft:  "bottomLeft",
	AnchorBottom:      "bottom",
	AnchorBottomRight: "bottomRight",
}

func (a Anchor) String() string {
	if a < 0 || int(a) >= len(anchorNames) {
		return "unknown"
	}
	return anchorNames[a]
}

// Opposite returns the anchor mirrored through the center.
func (a Anchor) Opposite() Anchor {
	switch a {
	case AnchorTopLeft:
		return AnchorBottomRight
	case AnchorTop:
		return AnchorBottom
	case AnchorTopRight:
		return AnchorBottomLeft
	case AnchorLeft:
		return AnchorRight
	case AnchorRight:
		return AnchorLeft
	case AnchorBottomLeft:
		return AnchorTopRight
	case AnchorBottom:
		return AnchorTop
	case AnchorBottomRight:
		return AnchorTopLeft
	default:
		return AnchorCenter
	}
}

// AnchorToPoint resolves a symbolic anchor against bounds.
func AnchorToPoint(a Anchor, bounds Rect) Point {
	c := bounds.Center()
	switch a {
	case AnchorTopLeft:
		return bounds.TopLeft()
	case AnchorTop:
		return Point{X: c.X, Y: bounds.Top()}
	case AnchorTopRight:
		return bounds.TopRight()
	case AnchorLeft:
		return Point{X: bounds.Left(), Y: c.Y}
	case AnchorRight:
		return Point{X: bounds.Right(), Y: c.Y}
	case AnchorBottomLeft:
		return bounds.BottomLeft()
	case AnchorBottom:
		return Point{X: c.X, Y: bounds.Bottom()}
	case AnchorBottomRight:
		return bounds.BottomRight()
	default:
		return c
	}
}

// Orientation is the direction of a guide line.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// MarshalText encodes the orientation by name.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText accepts "horizontal" or "vertical".
func (o *Orientation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "horizontal":
		*o = Horizontal
	case "vertical":
		*o = Vertical
	default:
		return fmt.Errorf("unknown orientation %q", b)
	}
	return nil
}
