package supervisor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Status is the reachability of the recommendation service.
type Status int32

const (
	StatusUnknown Status = iota
	StatusOnline
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "ONLINE"
	case StatusOffline:
		return "OFFLINE"
	default:
		return "CONNECTING"
	}
}

// Prober is satisfied by *api.Client.
type Prober interface {
	Health(ctx context.Context) error
}

// HealthService probes the service once at start and then every interval.
// The latest result is readable from any goroutine.
type HealthService struct {
	prober   Prober
	interval time.Duration
	status   atomic.Int32
	onChange func(Status)
	logger   zerolog.Logger
}

// NewHealthService creates the probe. onChange, if set, runs on the
// service goroutine whenever the status flips.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewHealthService(p Prober, interval time.Duration, onChange func(Status), logger zerolog.Logger) *HealthService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &HealthService{
		prober:   p,
		interval: interval,
		onChange: onChange,
		logger:   logger.With().Str("service", "health").Logger(),
	}
}

func (s *HealthService) Status() Status { return Status(s.status.Load()) }

func (s *HealthService) String() string { return "health-probe" }

// Serve implements suture.Service.
func (s *HealthService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.probe(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *HealthService) probe(ctx context.Context) {
	next := StatusOnline
	if err := s.prober.Health(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		next = StatusOffline
		s.logger.Debug().Err(err).Msg("health probe failed")
	}
	prev := Status(s.status.Swap(int32(next)))
	if prev == next {
		return
	}
	s.logger.Info().Stringer("from", prev).Stringer("to", next).Msg("service status changed")
	if s.onChange != nil {
		s.onChange(next)
	}
}
