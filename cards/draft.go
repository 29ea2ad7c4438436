/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package cards

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Draft is a custom pack being edited. Cards are kept as plain text until
// the draft is built.
type Draft struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Cards       []string `json:"cards"`
}

// NewDraft starts an empty draft for a new pack.
func NewDraft() *Draft {
	return &Draft{Icon: DefaultIcon}
}

// EditDraft starts a draft from an existing custom pack.
func EditDraft(p Pack) (*Draft, error) {
	if !p.Custom {
		return nil, ErrReadOnlyPack
	}

	return &Draft{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Icon:        p.Icon,
		Cards:       p.Texts(),
	}, nil
}

// AddCard appends a trimmed card. Blank text and duplicates are rejected.
func (d *Draft) AddCard(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyCard
	}

	if slices.Contains(d.Cards, trimmed) {
		return ErrDuplicateCard
	}

	d.Cards = append(d.Cards, trimmed)

	return nil
}

// RemoveCard drops the card at index i; out of range is a no-op.
func (d *Draft) RemoveCard(i int) {
	if i < 0 || i >= len(d.Cards) {
		return
	}
	d.Cards = slices.Delete(d.Cards, i, i+1)
}

// Build validates the draft and produces a custom pack. Drafts without an
// id get a fresh UUID.
func (d *Draft) Build() (Pack, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Pack{}, ErrNameRequired
	}

	texts := make([]string, 0, len(d.Cards))
	for _, c := range d.Cards {
		c = strings.TrimSpace(c)
		if c == "" || slices.Contains(texts, c) {
			continue
		}
		texts = append(texts, c)
	}

	if len(texts) == 0 {
		return Pack{}, ErrNoCards
	}

	id := d.ID
	if id == "" {
		id = uuid.NewString()
	}

	if IsBuiltin(id) {
		return Pack{}, ErrReadOnlyPack
	}

	icon := strings.TrimSpace(d.Icon)
	if icon == "" {
		icon = DefaultIcon
	}

	return Pack{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(d.Description),
		Icon:        icon,
		Cards:       FromTexts(texts...),
		Custom:      true,
	}, nil
}
