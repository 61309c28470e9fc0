package terminal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/iburimskiy/neural-nexus/internal/config"
	"github.com/iburimskiy/neural-nexus/internal/logging"
	"github.com/iburimskiy/neural-nexus/internal/particles"
	"github.com/iburimskiy/neural-nexus/internal/settings"
)

// App owns the terminal session: it turns tcell events into field input
// and leaves drawing to the particle loop.
type App struct {
	screen   tcell.Screen
	canvas   *Canvas
	field    *particles.Field
	loop     *particles.Loop
	settings *settings.Settings
	now      func() time.Time
	log      zerolog.Logger
}

// NewApp wires a field to screen. With a nil screen the app is inert: the
// loop never draws and Run returns at once.
func NewApp(screen tcell.Screen, field *particles.Field, s *settings.Settings) *App {
	a := &App{
		screen:   screen,
		field:    field,
		settings: s,
		now:      time.Now,
		log:      logging.WithComponent("terminal"),
	}
	var canvas particles.Canvas
	if screen != nil {
		screen.EnableMouse(tcell.MouseMotionEvents)
		a.canvas = NewCanvas(screen, s)
		w, h := a.canvas.PixelSize()
		field.Resize(w, h)
		canvas = a.canvas
	}
	a.loop = particles.NewLoop(field, canvas, s, config.TerminalFrameInterval)
	return a
}

// Loop is the render task, run by the caller under supervision.
func (a *App) Loop() *particles.Loop { return a.loop }

// SetStatus updates the status line. Safe from any goroutine.
func (a *App) SetStatus(s string) {
	if a.canvas != nil {
		a.canvas.SetStatus(s)
	}
}

// Run reads input until the user quits or ctx ends, then stops the loop.
func (a *App) Run(ctx context.Context) error {
	defer a.loop.Stop()
	if a.screen == nil {
		return nil
	}

	events := make(chan tcell.Event, 32)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !a.handle(ev) {
				return nil
			}
		}
	}
}

// handle applies one event and reports whether to keep running.
func (a *App) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == 't':
			theme, err := a.settings.ToggleTheme()
			if err != nil {
				a.log.Warn().Err(err).Msg("theme not saved")
			}
			a.log.Debug().Stringer("theme", theme).Msg("theme toggled")
		}
	case *tcell.EventMouse:
		x, y := ev.Position()
		px, py := (float64(x)+0.5)*CellWidth, (float64(y)+0.5)*CellHeight
		a.loop.Post(func(f *particles.Field) { f.MovePointer(px, py) })
	case *tcell.EventResize:
		cols, rows := ev.Size()
		now := a.now()
		a.loop.Post(func(f *particles.Field) {
			a.canvas.Resize(cols, rows)
			f.RequestResize(float64(cols)*CellWidth, float64(rows)*CellHeight, now)
		})
		a.screen.Sync()
	}
	return true
}
