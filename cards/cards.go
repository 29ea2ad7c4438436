/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package cards holds the word packs played during a round.
package cards

// Card is a single word or phrase shown to the player.
type Card struct {
	Text string `json:"text"`
}

// Pack is a named collection of cards. Built-in packs are read-only;
// custom packs are created by the user and persisted by a store.
type Pack struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Cards       []Card `json:"cards"`
	Custom      bool   `json:"isCustom,omitempty"`
}

// DefaultIcon is used for custom packs saved without an icon.
const DefaultIcon = "📦"

// Texts returns the text of every card in order.
func (p Pack) Texts() []string {
	texts := make([]string, len(p.Cards))
	for i, c := range p.Cards {
		texts[i] = c.Text
	}
	return texts
}

// Clone returns a deep copy, so callers can't mutate a shared card slice.
func (p Pack) Clone() Pack {
	out := p
	out.Cards = append([]Card(nil), p.Cards...)
	return out
}

// FromTexts builds cards from plain strings.
func FromTexts(texts ...string) []Card {
	out := make([]Card, len(texts))
	for i, t := range texts {
		out[i] = Card{Text: t}
	}
	return out
}
