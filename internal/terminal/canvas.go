// Package terminal renders the particle field in a text terminal with tcell.
//
// The field runs in a virtual pixel space of CellWidth x CellHeight pixels
// per character cell, so densities and radii match the windowed client.
// Strokes are rasterized per cell and the stroke opacity is blended toward
// the background color, since a cell has no alpha channel.
package terminal

import (
	"image/color"
	"math"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/iburimskiy/neural-nexus/internal/particles"
)

const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

// layer orders what may overwrite a cell within a frame.
type layer uint8

const (
	layerEmpty layer = iota
	layerLine
	layerParticle
)

type cell struct {
	r     rune
	fg    color.NRGBA // already blended, opaque
	alpha float64
	layer layer
}

// Canvas buffers one frame of cells and flushes it on Present. All drawing
// methods must be called from the render loop goroutine; SetStatus may be
// called from anywhere.
type Canvas struct {
	screen     tcell.Screen
	theme      particles.ThemeSource
	cols, rows int
	cells      []cell
	bg         color.NRGBA
	status     atomic.Pointer[string]
}

// NewCanvas sizes the buffer to the screen.
func NewCanvas(screen tcell.Screen, theme particles.ThemeSource) *Canvas {
	c := &Canvas{screen: screen, theme: theme, bg: particles.Background(particles.Dark)}
	c.Resize(screen.Size())
	return c
}

// Resize reallocates the cell buffer.
func (c *Canvas) Resize(cols, rows int) {
	c.cols, c.rows = max(cols, 0), max(rows, 0)
	c.cells = make([]cell, c.cols*c.rows)
}

// PixelSize is the virtual pixel size of the grid.
func (c *Canvas) PixelSize() (float64, float64) {
	return float64(c.cols) * CellWidth, float64(c.rows) * CellHeight
}

// SetStatus replaces the status line drawn in the bottom-left corner.
func (c *Canvas) SetStatus(s string) { c.status.Store(&s) }

func (c *Canvas) Clear() {
	if c.theme != nil {
		c.bg = particles.Background(c.theme.Theme())
	}
	for i := range c.cells {
		c.cells[i] = cell{}
	}
}

func (c *Canvas) Line(x0, y0, x1, y1, _ float64, col color.NRGBA) {
	cx0, cy0 := toCell(x0, y0)
	cx1, cy1 := toCell(x1, y1)
	r := lineRune(x1-x0, (y1-y0)*CellWidth/CellHeight)
	alpha := float64(col.A) / 255
	fg := blend(col, c.bg, alpha)

	dx, dy := abs(cx1-cx0), -abs(cy1-cy0)
	sx, sy := sign(cx1-cx0), sign(cy1-cy0)
	e := dx + dy
	x, y := cx0, cy0
	for {
		c.put(x, y, cell{r: r, fg: fg, alpha: alpha, layer: layerLine})
		if x == cx1 && y == cy1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// Circle marks the particle's cell. The halo is finer than a cell and is
// not drawn.
func (c *Canvas) Circle(x, y, radius float64, fill color.NRGBA, _ float64, _ color.NRGBA) {
	cx, cy := toCell(x, y)
	r := '•'
	if radius >= 3.5 {
		r = '●'
	}
	c.put(cx, cy, cell{r: r, fg: blend(fill, c.bg, float64(fill.A)/255), alpha: 1, layer: layerParticle})
}

// put keeps the strongest mark per cell: particles over lines, and the more
// opaque of two lines.
func (c *Canvas) put(x, y int, v cell) {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return
	}
	cur := &c.cells[y*c.cols+x]
	if v.layer < cur.layer || (v.layer == cur.layer && v.alpha < cur.alpha) {
		return
	}
	*cur = v
}

// Present flushes the frame to the screen.
func (c *Canvas) Present() {
	bg := tcellColor(c.bg)
	base := tcell.StyleDefault.Background(bg)
	for y := 0; y < c.rows; y++ {
		for x := 0; x < c.cols; x++ {
			v := c.cells[y*c.cols+x]
			if v.layer == layerEmpty {
				c.screen.SetContent(x, y, ' ', nil, base)
				continue
			}
			c.screen.SetContent(x, y, v.r, nil, base.Foreground(tcellColor(v.fg)))
		}
	}
	if s := c.status.Load(); s != nil && c.rows > 0 {
		fg := tcellColor(particles.LineBase(themeOf(c.theme)))
		for i, r := range []rune(*s) {
			if i >= c.cols {
				break
			}
			c.screen.SetContent(i, c.rows-1, r, nil, base.Foreground(fg))
		}
	}
	c.screen.Show()
}

func themeOf(src particles.ThemeSource) particles.Theme {
	if src == nil {
		return particles.Dark
	}
	return src.Theme()
}

func toCell(x, y float64) (int, int) {
	return int(math.Floor(x / CellWidth)), int(math.Floor(y / CellHeight))
}

// lineRune picks a box-drawing glyph for a stroke direction given in
// square units.
func lineRune(dx, dy float64) rune {
	ax, ay := math.Abs(dx), math.Abs(dy)
	switch {
	case ax == 0 && ay == 0:
		return '·'
	case ax > 2*ay:
		return '─'
	case ay > 2*ax:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

// blend composes fg at opacity a over an opaque bg.
func blend(fg, bg color.NRGBA, a float64) color.NRGBA {
	a = math.Max(0, math.Min(1, a))
	mix := func(f, b uint8) uint8 {
		return uint8(float64(b) + (float64(f)-float64(b))*a + 0.5)
	}
	return color.NRGBA{R: mix(fg.R, bg.R), G: mix(fg.G, bg.G), B: mix(fg.B, bg.B), A: 255}
}

func tcellColor(c color.NRGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
