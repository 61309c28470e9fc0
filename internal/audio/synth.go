package audio

import (
	"math"
	"time"

	"github.com/faiface/beep"
)

type waveType int

const (
	waveSine waveType = iota
	waveSaw
)

// oscillator produces a fixed number of samples of a periodic wave.
type oscillator struct {
	freq     float64
	phase    float64 // [0, 1)
	position int
	total    int
	wave     waveType
	rate     beep.SampleRate
}

func newOscillator(freq float64, d time.Duration, wave waveType, rate beep.SampleRate) *oscillator {
	return &oscillator{freq: freq, total: rate.N(d), wave: wave, rate: rate}
}

func (o *oscillator) Stream(samples [][2]float64) (int, bool) {
	if o.position >= o.total {
		return 0, false
	}
	for i := range samples {
		if o.position >= o.total {
			return i, true
		}
		var v float64
		switch o.wave {
		case waveSaw:
			v = 2*o.phase - 1
		default:
			v = math.Sin(2 * math.Pi * o.phase)
		}
		samples[i][0], samples[i][1] = v, v

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope fades a stream in over attack and out over the final release.
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func newEnvelope(s beep.Streamer, d, attack, release time.Duration, rate beep.SampleRate) *envelope {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(d),
	}
}

func (e *envelope) gain() float64 {
	g := 1.0
	if e.attack > 0 && e.position < e.attack {
		g = float64(e.position) / float64(e.attack)
	}
	if remaining := e.total - e.position; e.release > 0 && remaining < e.release {
		g = math.Min(g, math.Max(0, float64(remaining)/float64(e.release)))
	}
	return g
}

func (e *envelope) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		g := e.gain()
		samples[i][0] *= g
		samples[i][1] *= g
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }
