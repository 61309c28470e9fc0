package particles

import (
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/iburimskiy/neural-nexus/internal/logging"
)

// Field owns the particles, the pointer position and the viewport.
type Field struct {
	opts      Options
	rng       *rand.Rand
	particles []Particle
	size      Size
	pointer   Point
	resize    resizeTimer
	log       zerolog.Logger
}

// New creates an empty field; call Resize to populate it.
func New(opts Options, rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Field{
		opts:    opts,
		rng:     rng,
		pointer: opts.PointerHome,
		resize:  resizeTimer{quiet: opts.ResizeQuietPeriod},
		log:     logging.WithComponent("particles"),
	}
}

// Resize discards every particle and regenerates the field for the new
// viewport immediately.
func (f *Field) Resize(width, height float64) {
	f.size = Size{Width: width, Height: height}
	n := ParticleCount(width, height, f.opts)

	f.particles = make([]Particle, n)
	for i := range f.particles {
		f.particles[i] = spawn(f.rng, f.size, f.opts)
	}

	f.log.Debug().
		Float64("width", width).
		Float64("height", height).
		Int("count", n).
		Msg("particle field regenerated")
}

// RequestResize schedules a debounced Resize. A burst of requests collapses
// into one regeneration using the last size, once no request has arrived
// for the quiet period.
func (f *Field) RequestResize(width, height float64, now time.Time) {
	size := Size{Width: width, Height: height}
	if !f.resize.Armed() && size == f.size {
		return
	}
	f.resize.Arm(size, now)
}

// ResizePending reports whether a debounced resize is waiting.
func (f *Field) ResizePending() bool { return f.resize.Armed() }

// MovePointer records the latest pointer position. It never affects motion.
func (f *Field) MovePointer(x, y float64) {
	f.pointer = Point{X: x, Y: y}
}

func (f *Field) Pointer() Point { return f.pointer }

func (f *Field) Size() Size { return f.size }

func (f *Field) Len() int { return len(f.particles) }

// Particles returns a copy of the current particles.
func (f *Field) Particles() []Particle {
	out := make([]Particle, len(f.particles))
	copy(out, f.particles)
	return out
}

// Frame fires a due resize, then advances and draws every particle:
// pointer line, the particle itself, then its connections to every later
// particle, in index order.
func (f *Field) Frame(c Canvas, theme Theme, now time.Time) {
	if size, ok := f.resize.Fire(now); ok {
		f.Resize(size.Width, size.Height)
	}

	c.Clear()
	line := LineBase(theme)
	opts := &f.opts

	for i := range f.particles {
		p := &f.particles[i]
		f.advance(p)

		dist := math.Hypot(f.pointer.X-p.X, f.pointer.Y-p.Y)
		if a, ok := PointerAlpha(dist, opts.PointerRadius); ok {
			c.Line(f.pointer.X, f.pointer.Y, p.X, p.Y, opts.LineWidth, withAlpha(line, a))
		}

		if theme == Light {
			c.Circle(p.X, p.Y, p.Radius, p.Color, opts.LightGlow, p.Color)
		} else {
			c.Circle(p.X, p.Y, p.Radius, darkFill, opts.DarkGlow, darkFill)
		}

		for j := i + 1; j < len(f.particles); j++ {
			q := &f.particles[j]
			d := math.Hypot(p.X-q.X, p.Y-q.Y)
			if a, ok := ConnectionAlpha(d, opts.ConnectRadius, opts.ConnectionDamping); ok {
				c.Line(p.X, p.Y, q.X, q.Y, opts.LineWidth, withAlpha(line, a))
			}
		}
	}
}

// advance moves p by its velocity and flips each velocity component whose
// axis left the viewport. Position is not clamped, so a particle may sit
// outside by up to one step before it heads back.
func (f *Field) advance(p *Particle) {
	p.X += p.VX
	p.Y += p.VY
	if p.X < 0 || p.X > f.size.Width {
		p.VX = -p.VX
	}
	if p.Y < 0 || p.Y > f.size.Height {
		p.VY = -p.VY
	}
}

// PointerAlpha fades linearly from 1 at the pointer to 0 at radius.
// ok is false at or beyond radius, where no line is drawn.
func PointerAlpha(dist, radius float64) (float64, bool) {
	if radius <= 0 || dist >= radius {
		return 0, false
	}
	return 1 - dist/radius, true
}

// ConnectionAlpha is PointerAlpha scaled down by damping.
func ConnectionAlpha(dist, radius, damping float64) (float64, bool) {
	a, ok := PointerAlpha(dist, radius)
	if !ok {
		return 0, false
	}
	return a * damping, true
}
