package config

import "time"

const (
	WindowWidth  = 1280
	WindowHeight = 800
	WindowTitle  = "Neural Nexus - Enter: search, F1: about, Esc: back/quit"

	// Particle field population
	NarrowViewportWidth = 768
	NarrowDensity       = 15000
	WideDensity         = 9000

	// Particle motion and size
	MaxParticleSpeed     = 0.4
	MinParticleRadius    = 2.0
	ParticleRadiusSpread = 2.5

	// Connective lines. The damping factor and both radii are tuned by eye.
	ConnectRadius     = 160.0
	PointerRadius     = 250.0
	ConnectionDamping = 0.4
	LineWidth         = 1.5

	// Glow radius around each particle per theme
	LightGlow = 5.0
	DarkGlow  = 10.0

	// Pointer parks far off-canvas until the first input event
	PointerHomeX = -1000.0
	PointerHomeY = -1000.0

	ResizeQuietPeriod = 100 * time.Millisecond

	// Terminal renderer frame pacing
	TerminalFrameInterval = time.Second / 30

	// Search
	DefaultTopK    = 12
	HistoryLimit   = 50
	DefaultModel   = "internal"
	AlternateModel = "api"
)
