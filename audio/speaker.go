/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"
)

// Speaker plays cues on the local sound device. It satisfies round.Cues.
type Speaker struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	log    zerolog.Logger
	closed bool
}

// OpenSpeaker claims the sound device. Callers fall back to silence when
// it fails; there is no device on most servers.
func OpenSpeaker(log zerolog.Logger) (*Speaker, error) {
	if err := speaker.Init(SampleRate, SampleRate.N(50*time.Millisecond)); err != nil {
		return nil, err
	}

	s := &Speaker{
		mixer: &beep.Mixer{},
		log:   log,
	}
	speaker.Play(s.mixer)

	return s, nil
}

// Play queues cue on the mixer and returns at once.
func (s *Speaker) Play(cue Cue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	streamer, err := Render(SampleRate, cue)
	if err != nil {
		s.log.Debug().Err(err).Msg("rendering cue")
		return
	}

	speaker.Lock()
	s.mixer.Add(streamer)
	speaker.Unlock()
}

func (s *Speaker) PlayCorrect() {
	s.Play(CueCorrect)
}

func (s *Speaker) PlayPass() {
	s.Play(CuePass)
}

func (s *Speaker) PlayCountdownBeep() {
	s.Play(CueCountdown)
}

// Close silences anything still playing.
func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
}
