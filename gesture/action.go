/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gesture

import (
	"fmt"
	"time"
)

// Action is what a tilt or key press means for the current card.
type Action int

const (
	ActionNone Action = iota
	ActionCorrect
	ActionPass
)

var actionNames = map[Action]string{
	ActionNone:    "none",
	ActionCorrect: "correct",
	ActionPass:    "pass",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

const (
	// Tilting the top of the device towards the floor.
	TiltDownThreshold = 45.0
	// Tilting the top of the device towards the ceiling.
	TiltUpThreshold = 135.0

	// Cooldown is the minimum gap between two fired intents, across both
	// input modalities.
	Cooldown = 1000 * time.Millisecond

	// IndicatorReset is how long a key press shows its action.
	IndicatorReset = 300 * time.Millisecond
)

// Key is a discrete key event used as a fallback for tilting.
type Key int

const (
	KeyOther Key = iota
	KeyUp
	KeyDown
)

func (k Key) Action() Action {
	switch k {
	case KeyDown:
		return ActionCorrect
	case KeyUp:
		return ActionPass
	}
	return ActionNone
}

// ParseKey maps a browser key name ("ArrowUp", "up") to a Key.
func ParseKey(name string) Key {
	switch name {
	case "ArrowUp", "up", "Up":
		return KeyUp
	case "ArrowDown", "down", "Down":
		return KeyDown
	}
	return KeyOther
}

// Sample is one orientation reading in degrees. Beta is front-back tilt,
// about 90 when the device is held upright against the forehead.
type Sample struct {
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}
