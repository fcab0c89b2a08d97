package preview

import (
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.NRGBA{
	"black": {0, 0, 0, 255},
	"white": {255, 255, 255, 255},
	"red":   {255, 0, 0, 255},
	"green": {0, 128, 0, 255},
	"blue":  {0, 0, 255, 255},
}

// parseColor reads the CSS color forms the engine emits: #rgb, #rrggbb,
// #rrggbbaa, rgb(...), rgba(...) and a few names. It reports false for
// empty, "none" and "transparent".
func parseColor(s string) (color.NRGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "", s == "none", s == "transparent":
		return color.NRGBA{}, false
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgb"):
		return parseFunc(s)
	}
	c, ok := namedColors[s]
	return c, ok
}

func parseHex(h string) (color.NRGBA, bool) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

func parseFunc(s string) (color.NRGBA, bool) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.NRGBA{}, false
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, false
	}
	var ch [4]float64
	ch[3] = 1
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return color.NRGBA{}, false
		}
		ch[i] = v
	}
	clamp := func(v float64) uint8 { return uint8(max(0, min(255, v))) }
	return color.NRGBA{R: clamp(ch[0]), G: clamp(ch[1]), B: clamp(ch[2]), A: clamp(ch[3] * 255)}, true
}

// withOpacity scales the alpha of c. Zero opacity means unset.
func withOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	if opacity <= 0 || opacity >= 1 {
		return c
	}
	c.A = uint8(float64(c.A) * opacity)
	return c
}
