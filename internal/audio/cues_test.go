package audio

import (
	"math"
	"testing"
	"time"

	"github.com/faiface/beep"

	"github.com/iburimskiy/neural-nexus/internal/config"
)

// drain counts every sample s produces and tracks the peak amplitude.
func drain(s beep.Streamer) (n int, peak float64) {
	buf := make([][2]float64, 512)
	for {
		k, ok := s.Stream(buf)
		for i := 0; i < k; i++ {
			peak = math.Max(peak, math.Abs(buf[i][0]))
		}
		n += k
		if !ok {
			return n, peak
		}
	}
}

func TestOscillatorLength(t *testing.T) {
	t.Parallel()

	for _, wave := range []waveType{waveSine, waveSaw} {
		osc := newOscillator(440, 100*time.Millisecond, wave, SampleRate)
		n, peak := drain(osc)
		if n != SampleRate.N(100*time.Millisecond) {
			t.Errorf("wave %d produced %d samples, want %d", wave, n, SampleRate.N(100*time.Millisecond))
		}
		if peak > 1 || peak < 0.9 {
			t.Errorf("wave %d peak = %f", wave, peak)
		}
		if osc.Err() != nil {
			t.Errorf("Err() = %v", osc.Err())
		}
	}
}

func TestEnvelopeFades(t *testing.T) {
	t.Parallel()

	d := 50 * time.Millisecond
	env := newEnvelope(newOscillator(440, d, waveSaw, SampleRate), d, 10*time.Millisecond, 10*time.Millisecond, SampleRate)

	buf := make([][2]float64, SampleRate.N(d))
	n, _ := env.Stream(buf)
	if n != len(buf) {
		t.Fatalf("streamed %d of %d", n, len(buf))
	}
	// Saw starts at -1; the envelope must pull it to silence.
	if buf[0][0] != 0 {
		t.Errorf("first sample = %f, want 0", buf[0][0])
	}
	if last := math.Abs(buf[n-1][0]); last > 0.01 {
		t.Errorf("last sample = %f, want near 0", last)
	}
	mid := n / 2
	if math.Abs(buf[mid][0]-(2*math.Mod(float64(mid)*440/float64(SampleRate), 1)-1)) > 1e-9 {
		t.Errorf("sustain sample altered: %f", buf[mid][0])
	}
}

func TestCueStreams(t *testing.T) {
	t.Parallel()

	c := New(config.AudioConfig{Enabled: true, Volume: -1})
	success, peakS := drain(c.stream(CueSuccess))
	failure, peakF := drain(c.stream(CueFailure))

	if want := SampleRate.N(90*time.Millisecond) + SampleRate.N(140*time.Millisecond); success != want {
		t.Errorf("success cue = %d samples, want %d", success, want)
	}
	if want := SampleRate.N(220 * time.Millisecond); failure != want {
		t.Errorf("failure cue = %d samples, want %d", failure, want)
	}
	// Volume -1 in base 2 halves the amplitude.
	if peakS > 0.5+1e-9 || peakF > 0.5+1e-9 {
		t.Errorf("peaks %f, %f exceed half scale", peakS, peakF)
	}
}

func TestDisabledCuesAreNoOps(t *testing.T) {
	t.Parallel()

	c := New(config.AudioConfig{Enabled: false})
	c.Play(CueSuccess)
	c.Play(CueFailure)
	if c.initErr != nil {
		t.Error("disabled cues touched the speaker")
	}

	var nilCues *Cues
	if nilCues.Enabled() {
		t.Error("nil Cues reported enabled")
	}
	nilCues.Play(CueSuccess)

	if CueSuccess.String() != "success" || Cue(9).String() != "unknown" {
		t.Error("Cue.String mismatch")
	}
}
