// Package preview rasterizes engine draw commands into images, for
// thumbnails and for inspecting replayed gesture scripts without a browser.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/vectorflow/vectorflow/internal/engine"
	"github.com/vectorflow/vectorflow/internal/geom"
)

// curveSteps is how many line segments approximate one cubic when stroking.
const curveSteps = 16

// Options controls the output image.
type Options struct {
	Width, Height int
	// Scale maps scene units to pixels.
	Scale      float64
	Background color.Color
	// Overlay includes editor chrome (handles, guides, outlines).
	Overlay bool
}

// Canvas is a drawing surface for draw commands.
type Canvas struct {
	img   *image.RGBA
	scale float64
	// overlay ops are skipped unless set
	overlay bool
}

func NewCanvas(opts Options) *Canvas {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	img := image.NewRGBA(image.Rect(0, 0, max(opts.Width, 1), max(opts.Height, 1)))
	draw.Draw(img, img.Bounds(), &image.Uniform{opts.Background}, image.Point{}, draw.Src)
	return &Canvas{img: img, scale: opts.Scale, overlay: opts.Overlay}
}

// Image returns the underlying RGBA image.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Render draws every command in order onto a fresh canvas.
func Render(cmds []engine.DrawCommand, opts Options) *image.RGBA {
	c := NewCanvas(opts)
	for _, cmd := range cmds {
		c.Draw(cmd)
	}
	return c.img
}

// WritePNG renders cmds and encodes the result as PNG.
func WritePNG(w io.Writer, cmds []engine.DrawCommand, opts Options) error {
	if err := png.Encode(w, Render(cmds, opts)); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

// Draw executes one command.
func (c *Canvas) Draw(cmd engine.DrawCommand) {
	m := matrixOf(cmd.Transform)
	switch cmd.Op {
	case engine.OpPath:
		c.shape(cmd, m)
	case engine.OpText:
		c.shape(cmd, m)
		if len(cmd.Path) > 0 {
			if xy := cmd.Path[0].Coords(); len(xy) >= 2 {
				c.label(m.Apply(geom.Pt(xy[0], xy[1])), cmd.Text, cmd.Stroke, cmd.Fill)
			}
		}
	case engine.OpGrid:
		if c.overlay {
			c.grid(cmd)
		}
	case engine.OpSnap:
		if c.overlay {
			c.shape(cmd, m)
			if xy := firstPoint(cmd.Path); xy != nil {
				c.label(*xy, cmd.Text, cmd.Stroke)
			}
		}
	default:
		if c.overlay {
			c.shape(cmd, m)
		}
	}
}

func (c *Canvas) shape(cmd engine.DrawCommand, m geom.Matrix2D) {
	if fill, ok := parseColor(cmd.Fill); ok {
		c.fill(cmd.Path, m, withOpacity(fill, cmd.Opacity))
	}
	if stroke, ok := parseColor(cmd.Stroke); ok && cmd.StrokeWidth > 0 {
		width := max(cmd.StrokeWidth*c.scale, 1)
		lines := c.flatten(cmd.Path, m)
		if len(cmd.Dash) == 2 {
			lines = dash(lines, cmd.Dash[0], cmd.Dash[1], cmd.DashOffset)
		}
		c.stroke(lines, width, withOpacity(stroke, cmd.Opacity))
	}
}

// px maps a scene point through m and the canvas scale.
func (c *Canvas) px(m geom.Matrix2D, x, y float64) (float32, float32) {
	p := m.Apply(geom.Pt(x, y))
	return float32(p.X * c.scale), float32(p.Y * c.scale)
}

func (c *Canvas) fill(path []engine.PathCommand, m geom.Matrix2D, col color.Color) {
	b := c.img.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	open := false
	for _, seg := range path {
		xy := seg.Coords()
		switch seg.Verb() {
		case "M":
			if len(xy) < 2 {
				continue
			}
			if open {
				r.ClosePath()
			}
			r.MoveTo(c.px(m, xy[0], xy[1]))
			open = true
		case "L":
			if len(xy) >= 2 && open {
				r.LineTo(c.px(m, xy[0], xy[1]))
			}
		case "C":
			if len(xy) >= 6 && open {
				x1, y1 := c.px(m, xy[0], xy[1])
				x2, y2 := c.px(m, xy[2], xy[3])
				x3, y3 := c.px(m, xy[4], xy[5])
				r.CubeTo(x1, y1, x2, y2, x3, y3)
			}
		case "Z":
			if open {
				r.ClosePath()
				open = false
			}
		}
	}
	if open {
		r.ClosePath()
	}
	r.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

type pt struct{ x, y float64 }

// polyline is a flattened subpath in pixel space.
type polyline []pt

// flatten converts a path to pixel-space polylines, closing subpaths that end
// with Z.
func (c *Canvas) flatten(path []engine.PathCommand, m geom.Matrix2D) []polyline {
	var out []polyline
	var cur polyline
	at := func(x, y float64) pt {
		p := m.Apply(geom.Pt(x, y))
		return pt{p.X * c.scale, p.Y * c.scale}
	}
	flush := func() {
		if len(cur) > 1 {
			out = append(out, cur)
		}
		cur = nil
	}
	for _, seg := range path {
		xy := seg.Coords()
		switch seg.Verb() {
		case "M":
			if len(xy) >= 2 {
				flush()
				cur = polyline{at(xy[0], xy[1])}
			}
		case "L":
			if len(xy) >= 2 && len(cur) > 0 {
				cur = append(cur, at(xy[0], xy[1]))
			}
		case "C":
			if len(xy) >= 6 && len(cur) > 0 {
				p0 := cur[len(cur)-1]
				p1, p2, p3 := at(xy[0], xy[1]), at(xy[2], xy[3]), at(xy[4], xy[5])
				for i := 1; i <= curveSteps; i++ {
					cur = append(cur, cubic(p0, p1, p2, p3, float64(i)/curveSteps))
				}
			}
		case "Z":
			if len(cur) > 0 {
				cur = append(cur, cur[0])
			}
			flush()
		}
	}
	flush()
	return out
}

func cubic(p0, p1, p2, p3 pt, t float64) pt {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return pt{
		a*p0.x + b*p1.x + c*p2.x + d*p3.x,
		a*p0.y + b*p1.y + c*p2.y + d*p3.y,
	}
}

// dash splits polylines into the "on" runs of an on/off pattern in pixels.
func dash(lines []polyline, on, off, offset float64) []polyline {
	period := on + off
	if on <= 0 || period <= 0 {
		return lines
	}
	var out []polyline
	for _, line := range lines {
		phase := math.Mod(offset, period)
		if phase < 0 {
			phase += period
		}
		var run polyline
		if phase < on {
			run = polyline{line[0]}
		}
		for i := 1; i < len(line); i++ {
			a, b := line[i-1], line[i]
			segLen := math.Hypot(b.x-a.x, b.y-a.y)
			for done := 0.0; done < segLen; {
				var boundary float64
				if phase < on {
					boundary = on
				} else {
					boundary = period
				}
				step := min(boundary-phase, segLen-done)
				done += step
				phase += step
				p := lerp(a, b, done/segLen)
				if run != nil {
					run = append(run, p)
				}
				if phase >= boundary {
					if boundary == on {
						if len(run) > 1 {
							out = append(out, run)
						}
						run = nil
					} else {
						phase = 0
						run = polyline{p}
					}
				}
			}
		}
		if len(run) > 1 {
			out = append(out, run)
		}
	}
	return out
}

func lerp(a, b pt, t float64) pt {
	return pt{a.x + (b.x-a.x)*t, a.y + (b.y-a.y)*t}
}

// stroke fills a quad of the given width around every segment. All quads
// share one winding so overlaps at joints add up instead of cancelling.
func (c *Canvas) stroke(lines []polyline, width float64, col color.Color) {
	if len(lines) == 0 {
		return
	}
	b := c.img.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	hw := width / 2
	for _, line := range lines {
		for i := 1; i < len(line); i++ {
			a, e := line[i-1], line[i]
			dx, dy := e.x-a.x, e.y-a.y
			l := math.Hypot(dx, dy)
			if l == 0 {
				continue
			}
			nx, ny := -dy/l*hw, dx/l*hw
			r.MoveTo(float32(a.x+nx), float32(a.y+ny))
			r.LineTo(float32(e.x+nx), float32(e.y+ny))
			r.LineTo(float32(e.x-nx), float32(e.y-ny))
			r.LineTo(float32(a.x-nx), float32(a.y-ny))
			r.ClosePath()
		}
	}
	r.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

// grid draws lines every cmd.Size scene units across the command's area.
func (c *Canvas) grid(cmd engine.DrawCommand) {
	col, ok := parseColor(cmd.Stroke)
	if !ok || cmd.Size <= 0 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, seg := range cmd.Path {
		if xy := seg.Coords(); len(xy) >= 2 {
			minX, maxX = min(minX, xy[0]), max(maxX, xy[0])
			minY, maxY = min(minY, xy[1]), max(maxY, xy[1])
		}
	}
	if minX > maxX || minY > maxY {
		return
	}
	area := geom.RectFromPoints(geom.Pt(minX, minY), geom.Pt(maxX, maxY))
	var lines []polyline
	for x := area.Left(); x <= area.Right(); x += cmd.Size {
		lines = append(lines, polyline{{x * c.scale, area.Top() * c.scale}, {x * c.scale, area.Bottom() * c.scale}})
	}
	for y := area.Top(); y <= area.Bottom(); y += cmd.Size {
		lines = append(lines, polyline{{area.Left() * c.scale, y * c.scale}, {area.Right() * c.scale, y * c.scale}})
	}
	c.stroke(lines, 1, col)
}

// label draws text with its top-left corner at p (scene units) using the
// first usable color in colors.
func (c *Canvas) label(p geom.Point, text string, colors ...string) {
	if text == "" {
		return
	}
	col := color.NRGBA{A: 255}
	for _, s := range colors {
		if v, ok := parseColor(s); ok {
			col = v
			break
		}
	}
	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(int(p.X*c.scale), int(p.Y*c.scale)+face.Ascent),
	}
	d.DrawString(text)
}

func matrixOf(s []float64) geom.Matrix2D {
	if len(s) != 6 {
		return geom.Identity()
	}
	return geom.Matrix2D{s[0], s[1], s[2], s[3], s[4], s[5]}
}

func firstPoint(path []engine.PathCommand) *geom.Point {
	for _, seg := range path {
		if xy := seg.Coords(); len(xy) >= 2 {
			p := geom.Pt(xy[0], xy[1])
			return &p
		}
	}
	return nil
}
