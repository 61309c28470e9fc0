// Package supervisor runs the client's background work under a suture tree:
// the service health probe and, in terminal mode, the particle render loop.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds restart policy for the tree.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   5 * time.Second,
		ShutdownTimeout:  3 * time.Second,
	}
}

// Tree has two layers so a crashing probe never takes the renderer down:
// network (health polling) and render (the terminal frame loop).
type Tree struct {
	root    *suture.Supervisor
	network *suture.Supervisor
	render  *suture.Supervisor
	config  TreeConfig
}

// NewTree builds the tree. Zero fields in cfg take the defaults.
func NewTree(logger *slog.Logger, cfg TreeConfig) *Tree {
	def := DefaultTreeConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = def.FailureDecay
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = def.FailureBackoff
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	spec := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	rootSpec := spec
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &Tree{
		root:    suture.New("neural-nexus", rootSpec),
		network: suture.New("network", spec),
		render:  suture.New("render", spec),
		config:  cfg,
	}
	t.root.Add(t.network)
	t.root.Add(t.render)
	return t
}

func (t *Tree) AddNetworkService(svc suture.Service) suture.ServiceToken {
	return t.network.Add(svc)
}

func (t *Tree) AddRenderService(svc suture.Service) suture.ServiceToken {
	return t.render.Add(svc)
}

// ServeBackground starts the tree; the channel yields its exit error.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}
