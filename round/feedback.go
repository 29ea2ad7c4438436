package round

import (
	"time"

	"github.com/rs/zerolog"
)

// Cues plays the audio feedback of a round. Implementations must return
// quickly and must not block on playback.
type Cues interface {
	PlayCorrect()
	PlayPass()
	PlayCountdownBeep()
}

// Haptics buzzes the device. Unsupported devices do nothing.
type Haptics interface {
	Vibrate(pattern ...time.Duration)
}

var (
	CorrectPattern = []time.Duration{100 * time.Millisecond, 50 * time.Millisecond, 100 * time.Millisecond}
	PassPattern    = []time.Duration{200 * time.Millisecond}
)

type silentCues struct{}

func (silentCues) PlayCorrect()       {}
func (silentCues) PlayPass()          {}
func (silentCues) PlayCountdownBeep() {}

type stillHaptics struct{}

func (stillHaptics) Vibrate(...time.Duration) {}

// safely runs a side effect, swallowing any panic it raises.
func safely(log zerolog.Logger, what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Str("effect", what).Msg("feedback failed")
		}
	}()

	fn()
}
