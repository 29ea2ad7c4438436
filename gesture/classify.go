/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gesture

import "time"

// Classify maps a front-back tilt to a raw action.
func Classify(beta float64) Action {
	switch {
	case beta < TiltDownThreshold:
		return ActionCorrect
	case beta > TiltUpThreshold:
		return ActionPass
	}
	return ActionNone
}

// Memory is the cooldown record shared by tilt and keys: the last fired
// action and when it fired. Both fields always change together.
type Memory struct {
	LastAction Action
	LastFire   time.Time
}

func (m Memory) cooled(now time.Time) bool {
	return m.LastFire.IsZero() || now.Sub(m.LastFire) >= Cooldown
}

// Step classifies one orientation sample against mem. An intent fires only
// for a non-neutral action that differs from the last fired one, once the
// cooldown since the last fire has passed. A neutral sample re-arms both
// directions but never shortens the cooldown.
func Step(beta float64, mem Memory, now time.Time) (action Action, fire bool, next Memory) {
	action = Classify(beta)
	next = mem

	fire = action != ActionNone && action != mem.LastAction && mem.cooled(now)
	if fire {
		next = Memory{LastAction: action, LastFire: now}
	}

	if action == ActionNone {
		next.LastAction = ActionNone
	}

	return action, fire, next
}

// Press is Step for a key event. Keys fire on every press once the
// cooldown has passed; they do not need a change of direction.
func Press(key Key, mem Memory, now time.Time) (action Action, fire bool, next Memory) {
	action = key.Action()
	if action == ActionNone || !mem.cooled(now) {
		return action, false, mem
	}

	return action, true, Memory{LastAction: action, LastFire: now}
}
