package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser     = "user"
	PrefixDrawing  = "drw"
	PrefixSnapshot = "snap"
	PrefixEdit     = "edit"
	PrefixShape    = "shape"
	PrefixGroup    = "grp"
	PrefixGuide    = "guide"
	PrefixSession  = "sess"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewDrawingID() string  { return New(PrefixDrawing) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewEditID() string     { return New(PrefixEdit) }
func NewShapeID() string    { return New(PrefixShape) }
func NewGroupID() string    { return New(PrefixGroup) }
func NewGuideID() string    { return New(PrefixGuide) }
func NewSessionID() string  { return New(PrefixSession) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}

// Prefix returns the type prefix of id, or "" if id is not a typeid.
func Prefix(id string) string {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return ""
	}
	return parsed.Prefix()
}
