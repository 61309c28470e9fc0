// Package particles implements the animated backdrop: a field of drifting
// points joined by proximity lines, with an extra set of lines fanning out
// from the pointer.
//
// A Field is not safe for concurrent use. Every mutation (input, resize,
// frame) must come from the goroutine that renders it; Loop provides that
// goroutine for renderers that do not own a frame callback of their own.
package particles

import (
	"image/color"
	"math"
	"math/rand"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/iburimskiy/neural-nexus/internal/config"
)

// Particle is one moving point. Particles have no identity beyond their
// index in the field.
type Particle struct {
	X, Y   float64
	VX, VY float64
	Radius float64
	// Color is only used by the light theme.
	Color color.NRGBA
}

type Point struct {
	X, Y float64
}

type Size struct {
	Width, Height float64
}

// Area of the size, zero for degenerate sizes.
func (s Size) Area() float64 {
	if s.Width <= 0 || s.Height <= 0 {
		return 0
	}
	return s.Width * s.Height
}

// Theme selects the colors of a frame.
type Theme int

const (
	Dark Theme = iota
	Light
)

func (t Theme) String() string {
	if t == Light {
		return "light"
	}
	return "dark"
}

// Options carries the tuning constants of a field.
type Options struct {
	NarrowViewportWidth float64
	NarrowDensity       float64
	WideDensity         float64

	MaxSpeed     float64
	MinRadius    float64
	RadiusSpread float64

	ConnectRadius     float64
	PointerRadius     float64
	ConnectionDamping float64
	LineWidth         float64

	LightGlow float64
	DarkGlow  float64

	PointerHome       Point
	ResizeQuietPeriod time.Duration
}

// DefaultOptions returns the tuned defaults from internal/config.
func DefaultOptions() Options {
	return Options{
		NarrowViewportWidth: config.NarrowViewportWidth,
		NarrowDensity:       config.NarrowDensity,
		WideDensity:         config.WideDensity,
		MaxSpeed:            config.MaxParticleSpeed,
		MinRadius:           config.MinParticleRadius,
		RadiusSpread:        config.ParticleRadiusSpread,
		ConnectRadius:       config.ConnectRadius,
		PointerRadius:       config.PointerRadius,
		ConnectionDamping:   config.ConnectionDamping,
		LineWidth:           config.LineWidth,
		LightGlow:           config.LightGlow,
		DarkGlow:            config.DarkGlow,
		PointerHome:         Point{X: config.PointerHomeX, Y: config.PointerHomeY},
		ResizeQuietPeriod:   config.ResizeQuietPeriod,
	}
}

// Density returns the area-per-particle divisor for a viewport width.
func (o Options) Density(width float64) float64 {
	if width < o.NarrowViewportWidth {
		return o.NarrowDensity
	}
	return o.WideDensity
}

// ParticleCount is floor(area / density) for the given viewport.
func ParticleCount(width, height float64, opts Options) int {
	area := Size{Width: width, Height: height}.Area()
	density := opts.Density(width)
	if area == 0 || density <= 0 {
		return 0
	}
	return int(math.Floor(area / density))
}

// paletteHues are the light-theme particle hues, all at 100% saturation
// and 60% lightness.
var paletteHues = [...]float64{0, 30, 60, 120, 220, 270}

// Palette holds the light-theme particle colors.
var Palette = buildPalette()

func buildPalette() []color.NRGBA {
	out := make([]color.NRGBA, len(paletteHues))
	for i, h := range paletteHues {
		r, g, b := colorful.Hsl(h, 1.0, 0.6).RGB255()
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// spawn places a particle uniformly inside the viewport.
func spawn(rng *rand.Rand, size Size, opts Options) Particle {
	return Particle{
		X:      rng.Float64() * size.Width,
		Y:      rng.Float64() * size.Height,
		VX:     (rng.Float64() - 0.5) * 2 * opts.MaxSpeed,
		VY:     (rng.Float64() - 0.5) * 2 * opts.MaxSpeed,
		Radius: rng.Float64()*opts.RadiusSpread + opts.MinRadius,
		Color:  Palette[rng.Intn(len(Palette))],
	}
}
