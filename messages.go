/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"time"

	"github.com/Seednode/tete/audio"
	"github.com/Seednode/tete/cards"
	"github.com/Seednode/tete/round"
	"github.com/Seednode/tete/session"
)

// Messages coming from the phone
type ClientMessage struct {
	Type      string       `json:"type"`                // see handleMessage
	Supported bool         `json:"supported,omitempty"` // hello
	Gated     bool         `json:"gated,omitempty"`     // hello
	Pack      string       `json:"pack,omitempty"`      // select
	Mode      round.Mode   `json:"mode,omitempty"`      // select / mode
	Beta      float64      `json:"beta,omitempty"`      // orientation
	Gamma     float64      `json:"gamma,omitempty"`     // orientation
	Key       string       `json:"key,omitempty"`       // key
	Granted   bool         `json:"granted,omitempty"`   // permission
	Error     string       `json:"error,omitempty"`     // permission
	Enabled   bool         `json:"enabled,omitempty"`   // sound
	Draft     *cards.Draft `json:"draft,omitempty"`     // save_pack
	ID        string       `json:"id,omitempty"`        // delete_pack / dismiss
}

// StateMessage carries everything the phone draws.
type StateMessage struct {
	Type string       `json:"type"` // "state"
	View session.View `json:"view"`
}

// CueMessage asks the phone to play a sound.
type CueMessage struct {
	Type string    `json:"type"` // "cue"
	Cue  audio.Cue `json:"cue"`
}

// VibrateMessage asks the phone to buzz, in milliseconds.
type VibrateMessage struct {
	Type    string  `json:"type"` // "vibrate"
	Pattern []int64 `json:"pattern"`
}

// SimpleMessage is for generic notifications ("replaced", "closed")
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func vibration(pattern []time.Duration) VibrateMessage {
	ms := make([]int64, len(pattern))
	for i, d := range pattern {
		ms[i] = d.Milliseconds()
	}

	return VibrateMessage{Type: "vibrate", Pattern: ms}
}
