package particles

import "image/color"

// Canvas is the drawing surface a Field renders into.
type Canvas interface {
	Clear()
	Line(x0, y0, x1, y1, width float64, c color.NRGBA)
	// Circle draws a filled circle with a soft halo of radius glow.
	Circle(x, y, r float64, fill color.NRGBA, glow float64, glowColor color.NRGBA)
}

// Presenter is implemented by canvases that buffer a frame and need an
// explicit flush once it is complete.
type Presenter interface {
	Present()
}

var (
	lightLineBase = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	darkLineBase  = color.NRGBA{R: 0, G: 243, B: 255, A: 255}
	darkFill      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	darkBackground  = color.NRGBA{R: 5, G: 5, B: 8, A: 255}
	lightBackground = color.NRGBA{R: 240, G: 240, B: 245, A: 255}
)

// Background is the color a canvas clears to.
func Background(t Theme) color.NRGBA {
	if t == Light {
		return lightBackground
	}
	return darkBackground
}

// LineBase is the stroke color of pointer and connection lines.
func LineBase(t Theme) color.NRGBA {
	if t == Light {
		return lightLineBase
	}
	return darkLineBase
}

// withAlpha scales c to opacity a in [0, 1].
func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(clamp01(a)*255 + 0.5)
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
