/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package round

import "fmt"

// Phase is the stage of the game a controller is in.
type Phase int

const (
	PhaseHome    Phase = iota // Choosing a pack
	PhaseReady                // Round shuffled, waiting for the player
	PhasePlaying              // Timer running, cards resolving
	PhaseResults              // Round over, showing the tally
)

var phaseNames = map[Phase]string{
	PhaseHome:    "home",
	PhaseReady:   "ready",
	PhasePlaying: "playing",
	PhaseResults: "results",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// CanTransitionTo reports whether the state machine has an edge from p to
// target. Every phase may go home.
func (p Phase) CanTransitionTo(target Phase) bool {
	if target == PhaseHome {
		return true
	}

	switch p {
	case PhaseHome:
		return target == PhaseReady
	case PhaseReady:
		return target == PhasePlaying || target == PhaseReady
	case PhasePlaying:
		return target == PhaseResults
	case PhaseResults:
		return target == PhaseReady
	}

	return false
}
