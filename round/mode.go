/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package round

import (
	"fmt"
	"time"
)

// Mode picks the round duration. It is fixed for the length of a round.
type Mode string

const (
	ModeChill  Mode = "chill"
	ModeNormal Mode = "normal"
	ModeHard   Mode = "hard"
)

// ModeConfig is the display and timing data for a mode.
type ModeConfig struct {
	Label       string `json:"label"`
	Duration    int    `json:"duration"` // seconds
	Description string `json:"description"`
}

var modeConfigs = map[Mode]ModeConfig{
	ModeChill:  {Label: "Chill", Duration: 90, Description: "90 seconds, take it easy"},
	ModeNormal: {Label: "Normal", Duration: 60, Description: "60 seconds, classic mode"},
	ModeHard:   {Label: "Hard", Duration: 45, Description: "45 seconds, fast pace"},
}

var modeOrder = []Mode{ModeChill, ModeNormal, ModeHard}

// Modes lists every mode, slowest first.
func Modes() []Mode {
	return append([]Mode(nil), modeOrder...)
}

// ParseMode accepts a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

func (m Mode) Valid() bool {
	_, ok := modeConfigs[m]
	return ok
}

// Config returns the mode's settings; unknown modes get normal's.
func (m Mode) Config() ModeConfig {
	if cfg, ok := modeConfigs[m]; ok {
		return cfg
	}
	return modeConfigs[ModeNormal]
}

// Seconds is the round length in whole seconds.
func (m Mode) Seconds() int {
	return m.Config().Duration
}

func (m Mode) Duration() time.Duration {
	return time.Duration(m.Seconds()) * time.Second
}

// Next cycles through the modes in order.
func (m Mode) Next() Mode {
	for i, mode := range modeOrder {
		if mode == m {
			return modeOrder[(i+1)%len(modeOrder)]
		}
	}
	return ModeNormal
}
