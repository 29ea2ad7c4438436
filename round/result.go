/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package round

import (
	"math"

	"github.com/Seednode/tete/cards"
)

// Outcome is how a card was resolved.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomePass    Outcome = "pass"
)

// Result records one resolved card. Results are appended in the order the
// cards were shown and never changed afterwards.
type Result struct {
	Card    cards.Card `json:"card"`
	Outcome Outcome    `json:"result"`
}

// Tally counts outcomes. Accuracy is the rounded percentage of correct
// results, or 0 for an empty round.
func Tally(results []Result) (correct, passed, accuracy int) {
	for _, r := range results {
		switch r.Outcome {
		case OutcomeCorrect:
			correct++
		case OutcomePass:
			passed++
		}
	}

	if total := len(results); total > 0 {
		accuracy = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return correct, passed, accuracy
}
