// Package input defines the pointer and keyboard event values that flow from
// the host UI into the editor.
package input

import (
	"strings"

	"github.com/vectorflow/vectorflow/internal/geom"
)

// Modifiers is a bitmask of held modifier keys.
type Modifiers uint8

const (
	Shift Modifiers = 1 << iota
	Ctrl
	Alt
)

func (m Modifiers) Has(mod Modifiers) bool { return m&mod != 0 }

func (m Modifiers) String() string {
	var parts []string
	if m.Has(Ctrl) {
		parts = append(parts, "ctrl")
	}
	if m.Has(Shift) {
		parts = append(parts, "shift")
	}
	if m.Has(Alt) {
		parts = append(parts, "alt")
	}
	return strings.Join(parts, "+")
}

// ParseModifiers accepts names joined by '+', e.g. "ctrl+shift".
// Unknown names are ignored.
func ParseModifiers(s string) Modifiers {
	var m Modifiers
	for _, part := range strings.Split(strings.ToLower(s), "+") {
		switch strings.TrimSpace(part) {
		case "shift":
			m |= Shift
		case "ctrl", "control", "meta", "cmd":
			m |= Ctrl
		case "alt", "option":
			m |= Alt
		}
	}
	return m
}

type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// PointerEvent carries a pointer position in scene coordinates.
type PointerEvent struct {
	Pos       geom.Point
	Button    Button
	Modifiers Modifiers
}

// Key identifies a keyboard key by its DOM KeyboardEvent.key name.
type Key string

const (
	KeyEscape     Key = "Escape"
	KeyDelete     Key = "Delete"
	KeyBackspace  Key = "Backspace"
	KeyLeft       Key = "ArrowLeft"
	KeyRight      Key = "ArrowRight"
	KeyUp         Key = "ArrowUp"
	KeyDown       Key = "ArrowDown"
	KeyZ          Key = "z"
	KeyY          Key = "y"
	KeyG          Key = "g"
	KeyA          Key = "a"
	KeySemicolon  Key = ";"
	KeyApostrophe Key = "'"
)

// Normalize lowercases single-letter keys so "Z" and "z" compare equal.
func (k Key) Normalize() Key {
	if len(k) == 1 {
		return Key(strings.ToLower(string(k)))
	}
	return k
}

type KeyEvent struct {
	Key       Key
	Modifiers Modifiers
}
