/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"github.com/Seednode/tete/round"
	"github.com/Seednode/tete/store"
)

// gatedCues reads the sound setting before every cue, so toggling it
// takes effect mid-round.
type gatedCues struct {
	cues  round.Cues
	prefs store.Preferences
}

func (g gatedCues) enabled() bool {
	return g.cues != nil && g.prefs.LoadSettings().SoundEnabled
}

func (g gatedCues) PlayCorrect() {
	if g.enabled() {
		g.cues.PlayCorrect()
	}
}

func (g gatedCues) PlayPass() {
	if g.enabled() {
		g.cues.PlayPass()
	}
}

func (g gatedCues) PlayCountdownBeep() {
	if g.enabled() {
		g.cues.PlayCountdownBeep()
	}
}

// defaults backs a session with no preference store.
type defaults struct{}

func (defaults) LoadSettings() store.Settings {
	return store.DefaultSettings()
}

func (defaults) SaveSettings(store.Settings) {}

type noScores struct{}

func (noScores) Best(string, round.Mode) (int, bool) {
	return 0, false
}

func (noScores) SaveBest(string, round.Mode, int) bool {
	return false
}
