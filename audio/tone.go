/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package audio renders the round cues as short synthesized tones.
package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
)

const (
	SampleRate = beep.SampleRate(48000)

	startGain = 0.3
	endGain   = 0.01
)

// Cue names a sound.
type Cue string

const (
	CueCorrect   Cue = "correct"
	CuePass      Cue = "pass"
	CueCountdown Cue = "countdown"
)

// Wave is an oscillator shape.
type Wave int

const (
	Sine Wave = iota
	Triangle
)

// Envelope scales a streamer from startGain down to endGain along an
// exponential curve over length samples, then stops.
type Envelope struct {
	Streamer beep.Streamer
	length   int
	pos      int
}

func NewEnvelope(s beep.Streamer, length int) *Envelope {
	return &Envelope{Streamer: s, length: length}
}

// Gain is the multiplier applied at sample i.
func (e *Envelope) Gain(i int) float64 {
	if e.length <= 0 {
		return endGain
	}
	return startGain * math.Pow(endGain/startGain, float64(i)/float64(e.length))
}

func (e *Envelope) Stream(samples [][2]float64) (int, bool) {
	if e.pos >= e.length {
		return 0, false
	}

	if left := e.length - e.pos; len(samples) > left {
		samples = samples[:left]
	}

	n, ok := e.Streamer.Stream(samples)
	for i := range samples[:n] {
		g := e.Gain(e.pos)
		samples[i][0] *= g
		samples[i][1] *= g
		e.pos++
	}

	return n, ok || n > 0
}

func (e *Envelope) Err() error {
	return e.Streamer.Err()
}

// Tone is one enveloped note.
func Tone(sr beep.SampleRate, freq float64, d time.Duration, wave Wave) (beep.Streamer, error) {
	var (
		osc beep.Streamer
		err error
	)

	switch wave {
	case Triangle:
		osc, err = generators.TriangleTone(sr, freq)
	default:
		osc, err = generators.SineTone(sr, freq)
	}
	if err != nil {
		return nil, fmt.Errorf("tone %.0fHz: %w", freq, err)
	}

	return NewEnvelope(osc, sr.N(d)), nil
}

// Render builds the streamer for cue. The correct cue is two rising notes,
// the second starting 100ms into the first.
func Render(sr beep.SampleRate, cue Cue) (beep.Streamer, error) {
	switch cue {
	case CueCorrect:
		first, err := Tone(sr, 880, 150*time.Millisecond, Sine)
		if err != nil {
			return nil, err
		}
		second, err := Tone(sr, 1108, 200*time.Millisecond, Sine)
		if err != nil {
			return nil, err
		}
		return beep.Mix(first, beep.Seq(beep.Silence(sr.N(100*time.Millisecond)), second)), nil
	case CuePass:
		return Tone(sr, 260, 300*time.Millisecond, Triangle)
	case CueCountdown:
		return Tone(sr, 440, 100*time.Millisecond, Sine)
	}

	return nil, fmt.Errorf("unknown cue %q", cue)
}
