package game

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/iburimskiy/neural-nexus/internal/particles"
)

// glowRings approximates the blurred halo with stacked translucent discs.
const glowRings = 3

// Canvas draws particle frames onto an ebiten image. Target must be set
// before each frame.
type Canvas struct {
	dst   *ebiten.Image
	theme particles.ThemeSource
}

func NewCanvas(theme particles.ThemeSource) *Canvas {
	return &Canvas{theme: theme}
}

// Target sets the image the next frame is drawn on.
func (c *Canvas) Target(dst *ebiten.Image) { c.dst = dst }

func (c *Canvas) Clear() {
	t := particles.Dark
	if c.theme != nil {
		t = c.theme.Theme()
	}
	c.dst.Fill(particles.Background(t))
}

func (c *Canvas) Line(x0, y0, x1, y1, width float64, col color.NRGBA) {
	vector.StrokeLine(c.dst, float32(x0), float32(y0), float32(x1), float32(y1), float32(width), col, true)
}

func (c *Canvas) Circle(x, y, radius float64, fill color.NRGBA, glow float64, glowColor color.NRGBA) {
	if glow > 0 {
		halo := glowColor
		halo.A = uint8(float64(glowColor.A) * clamp01(0.6/glowRings))
		for i := glowRings; i >= 1; i-- {
			r := radius + glow*float64(i)/glowRings
			vector.DrawFilledCircle(c.dst, float32(x), float32(y), float32(r), halo, true)
		}
	}
	vector.DrawFilledCircle(c.dst, float32(x), float32(y), float32(radius), fill, true)
}
