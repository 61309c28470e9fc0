// Package settings holds process-wide user preferences read by the
// renderers every frame.
package settings

import (
	"sync/atomic"

	"github.com/iburimskiy/neural-nexus/internal/particles"
)

// Persister saves a changed theme. *store.Store satisfies it.
type Persister interface {
	SetTheme(theme string) error
}

// Settings is safe for concurrent use.
type Settings struct {
	light   atomic.Bool
	persist Persister
}

// New starts from the stored theme name ("light" or anything else for dark).
// persist may be nil.
func New(theme string, persist Persister) *Settings {
	s := &Settings{persist: persist}
	s.light.Store(theme == particles.Light.String())
	return s
}

// Theme is the read accessor used by the particle field each frame.
func (s *Settings) Theme() particles.Theme {
	if s.light.Load() {
		return particles.Light
	}
	return particles.Dark
}

// SetTheme switches the theme and persists it.
func (s *Settings) SetTheme(t particles.Theme) error {
	s.light.Store(t == particles.Light)
	if s.persist == nil {
		return nil
	}
	return s.persist.SetTheme(t.String())
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *Settings) ToggleTheme() (particles.Theme, error) {
	next := particles.Light
	if s.Theme() == particles.Light {
		next = particles.Dark
	}
	return next, s.SetTheme(next)
}
