package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/iburimskiy/neural-nexus/internal/api"
	"github.com/iburimskiy/neural-nexus/internal/audio"
	"github.com/iburimskiy/neural-nexus/internal/config"
	"github.com/iburimskiy/neural-nexus/internal/game"
	"github.com/iburimskiy/neural-nexus/internal/logging"
	"github.com/iburimskiy/neural-nexus/internal/particles"
	"github.com/iburimskiy/neural-nexus/internal/session"
	"github.com/iburimskiy/neural-nexus/internal/settings"
	"github.com/iburimskiy/neural-nexus/internal/store"
	"github.com/iburimskiy/neural-nexus/internal/supervisor"
	"github.com/iburimskiy/neural-nexus/internal/terminal"
)

// app holds what both front-ends share.
type app struct {
	cfg    *config.Config
	store  *store.Store
	prefs  *settings.Settings
	client *api.Client
	field  *particles.Field
	tree   *supervisor.Tree
}

func main() {
	opts := parseFlags()
	if err := run(opts); err != nil {
		logging.Fatal().Err(err).Msg("neural nexus exited")
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	out, closeLog, err := logOutput(cfg.Logging, opts.tui)
	if err != nil {
		return err
	}
	defer closeLog()
	level := cfg.Logging.Level
	if opts.debug {
		level = "debug"
	}
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logging.Init(logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller || opts.debug,
		Output: out,
	})

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Warn().Err(err).Msg("store close failed")
		}
	}()
	dropExpiredSession(st, time.Now())

	theme, err := st.Theme()
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logging.Warn().Err(err).Msg("stored theme unreadable")
	}

	a := &app{
		cfg:    cfg,
		store:  st,
		prefs:  settings.New(theme, st),
		client: api.New(cfg.API),
		field:  particles.New(particles.DefaultOptions(), rand.New(rand.NewSource(time.Now().UnixNano()))),
		tree:   supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{}),
	}
	logging.Info().
		Str("api", a.client.BaseURL()).
		Str("store", cfg.Store.Path).
		Bool("tui", opts.tui).
		Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.tui {
		return a.runTerminal(ctx)
	}
	return a.runWindow(ctx)
}

func (a *app) runWindow(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	health := supervisor.NewHealthService(a.client, a.cfg.Health.Interval, nil, logging.WithComponent("health"))
	a.tree.AddNetworkService(health)
	treeErr := a.tree.ServeBackground(ctx)
	defer func() {
		cancel()
		waitTree(treeErr)
	}()

	a.field.Resize(float64(a.cfg.Window.Width), float64(a.cfg.Window.Height))
	g := game.New(a.field, game.Deps{
		Backend:  a.client,
		Store:    a.store,
		Dialogs:  game.NativeDialogs{},
		Settings: a.prefs,
		Status:   health,
		Cues:     audio.New(a.cfg.Audio),
		Model:    a.cfg.API.Model,
		Done:     ctx.Done(),
	})
	g.Start()
	defer g.Close()

	ebiten.SetWindowSize(a.cfg.Window.Width, a.cfg.Window.Height)
	ebiten.SetWindowTitle(a.cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}

func (a *app) runTerminal(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	screen, err := newScreen()
	if err != nil {
		logging.Warn().Err(err).Msg("terminal unavailable, backdrop disabled")
	} else {
		defer screen.Fini()
	}

	tui := terminal.NewApp(screen, a.field, a.prefs)
	health := supervisor.NewHealthService(a.client, a.cfg.Health.Interval, func(s supervisor.Status) {
		tui.SetStatus(s.String())
	}, logging.WithComponent("health"))
	tui.SetStatus(health.Status().String())

	a.tree.AddNetworkService(health)
	a.tree.AddRenderService(supervisor.NewLoopService(tui.Loop()))
	treeErr := a.tree.ServeBackground(ctx)

	err = tui.Run(ctx)
	cancel()
	waitTree(treeErr)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// waitTree blocks until the supervisor tree has stopped and reports any
// failure other than the shutdown itself.
func waitTree(errCh <-chan error) {
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor tree stopped")
	}
}

func newScreen() (tcell.Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("new screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	return s, nil
}

// dropExpiredSession logs out when the stored token has visibly expired,
// so the first request is not sent with a dead token.
func dropExpiredSession(st *store.Store, now time.Time) {
	token, err := st.Token()
	if err != nil {
		return
	}
	claims := session.Inspect(token)
	if !claims.Expired(now) {
		return
	}
	logging.Info().Time("expired_at", claims.ExpiresAt).Str("subject", claims.Subject).Msg("stored session expired")
	if err := st.Logout(); err != nil {
		logging.Warn().Err(err).Msg("expired session not cleared")
	}
}

// logOutput picks the log destination. The terminal front-end owns the
// screen, so it logs to a file even when none is configured.
func logOutput(cfg config.LoggingConfig, tui bool) (io.Writer, func(), error) {
	path := cfg.File
	if path == "" && tui {
		path = filepath.Join(os.TempDir(), "neural-nexus.log")
	}
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
