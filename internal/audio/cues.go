// Package audio synthesizes the short interface cues played on login,
// search results and failures. Nothing is loaded from disk.
package audio

import (
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/rs/zerolog"

	"github.com/iburimskiy/neural-nexus/internal/config"
	"github.com/iburimskiy/neural-nexus/internal/logging"
)

// SampleRate of every synthesized cue.
const SampleRate = beep.SampleRate(44100)

// Cue names a sound.
type Cue int

const (
	CueSuccess Cue = iota
	CueFailure
)

func (c Cue) String() string {
	switch c {
	case CueSuccess:
		return "success"
	case CueFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Cues plays interface sounds. A disabled Cues never touches the speaker.
type Cues struct {
	enabled bool
	volume  float64 // base-2 exponent, 0 is unity gain

	initOnce sync.Once
	initErr  error
	log      zerolog.Logger
}

func New(cfg config.AudioConfig) *Cues {
	return &Cues{
		enabled: cfg.Enabled,
		volume:  cfg.Volume,
		log:     logging.WithComponent("audio"),
	}
}

func (c *Cues) Enabled() bool { return c != nil && c.enabled }

// Play starts cue and returns immediately. The speaker is opened on first
// use; if that fails the cues go quiet for the rest of the run.
func (c *Cues) Play(cue Cue) {
	if !c.Enabled() {
		return
	}
	c.initOnce.Do(func() {
		c.initErr = speaker.Init(SampleRate, SampleRate.N(time.Second/10))
		if c.initErr != nil {
			c.log.Warn().Err(c.initErr).Msg("audio output unavailable, cues disabled")
		}
	})
	if c.initErr != nil {
		return
	}
	speaker.Play(c.stream(cue))
}

// stream builds the cue at the configured volume.
func (c *Cues) stream(cue Cue) beep.Streamer {
	var s beep.Streamer
	switch cue {
	case CueSuccess:
		// Rising fifth.
		s = beep.Seq(
			tone(660, 90*time.Millisecond, waveSine),
			tone(990, 140*time.Millisecond, waveSine),
		)
	default:
		s = tone(110, 220*time.Millisecond, waveSaw)
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: c.volume}
}

func tone(freq float64, d time.Duration, wave waveType) beep.Streamer {
	osc := newOscillator(freq, d, wave, SampleRate)
	return newEnvelope(osc, d, 5*time.Millisecond, d/2, SampleRate)
}
