package particles

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ThemeSource is read once per frame.
type ThemeSource interface {
	Theme() Theme
}

// Loop drives a Field on its own goroutine for canvases that have no
// frame callback. Input is applied through Post between frames, so the
// field is only ever touched by the loop goroutine.
type Loop struct {
	field    *Field
	canvas   Canvas
	theme    ThemeSource
	interval time.Duration
	now      func() time.Time

	events   chan func(*Field)
	stop     chan struct{}
	stopOnce sync.Once
	frames   atomic.Uint64
}

// NewLoop builds a loop rendering field onto canvas every interval.
// A nil canvas yields an inert loop whose Run returns at once.
func NewLoop(field *Field, canvas Canvas, theme ThemeSource, interval time.Duration) *Loop {
	return &Loop{
		field:    field,
		canvas:   canvas,
		theme:    theme,
		interval: interval,
		now:      time.Now,
		events:   make(chan func(*Field), 64),
		stop:     make(chan struct{}),
	}
}

// Inert reports whether the loop has no surface to draw on.
func (l *Loop) Inert() bool { return l.canvas == nil }

// Frames returns the number of frames rendered so far.
func (l *Loop) Frames() uint64 { return l.frames.Load() }

// Run renders until ctx is done or Stop is called. Stop yields a nil error,
// context cancellation yields ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	if l.Inert() {
		return nil
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		case fn := <-l.events:
			fn(l.field)
		case <-ticker.C:
			l.renderFrame()
		}
	}
}

func (l *Loop) renderFrame() {
	theme := Dark
	if l.theme != nil {
		theme = l.theme.Theme()
	}
	l.field.Frame(l.canvas, theme, l.now())
	if p, ok := l.canvas.(Presenter); ok {
		p.Present()
	}
	l.frames.Add(1)
}

// Post queues fn to run on the loop goroutine before the next frame.
// It reports false when the loop has been stopped.
func (l *Loop) Post(fn func(*Field)) bool {
	select {
	case <-l.stop:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.stop:
		return false
	}
}

// Stop ends Run. Safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
