/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package store holds the best-effort persistence behind a game: custom
// packs, best scores per pack and mode, and the sound setting.
package store

import (
	"github.com/Seednode/tete/cards"
	"github.com/Seednode/tete/round"
)

// Scores keeps the best correct count for each pack and mode. Failures are
// logged and read as "no record".
type Scores interface {
	Best(packID string, mode round.Mode) (int, bool)
	// SaveBest stores score if it beats the current best and reports
	// whether it did. A missing record counts as a best of zero.
	SaveBest(packID string, mode round.Mode, score int) bool
}

// Settings are the user preferences.
type Settings struct {
	SoundEnabled bool `json:"soundEnabled" mapstructure:"sound_enabled"`
}

// DefaultSettings is what a failed or empty read yields.
func DefaultSettings() Settings {
	return Settings{SoundEnabled: true}
}

// Preferences loads and saves Settings. LoadSettings never fails.
type Preferences interface {
	LoadSettings() Settings
	SaveSettings(Settings)
}

// Backend is everything a game host persists.
type Backend interface {
	cards.Store
	Scores
}

func scoreKey(packID string, mode round.Mode) string {
	return packID + ":" + string(mode)
}
