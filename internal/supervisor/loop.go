package supervisor

import (
	"context"

	"github.com/thejerf/suture/v4"

	"github.com/iburimskiy/neural-nexus/internal/particles"
)

// LoopService supervises a particle render loop. A loop that was stopped
// on purpose, or has no canvas, is not restarted.
type LoopService struct {
	loop *particles.Loop
}

func NewLoopService(loop *particles.Loop) *LoopService {
	return &LoopService{loop: loop}
}

func (s *LoopService) String() string { return "particle-loop" }

// Serve implements suture.Service.
func (s *LoopService) Serve(ctx context.Context) error {
	if err := s.loop.Run(ctx); err != nil {
		return err
	}
	return suture.ErrDoNotRestart
}
