/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/Seednode/tete/cards"
	"github.com/Seednode/tete/round"
)

// Memory keeps everything in process. Nothing survives a restart.
type Memory struct {
	mu       sync.Mutex
	packs    map[string]cards.Pack
	scores   map[string]int
	settings Settings
}

func NewMemory() *Memory {
	return &Memory{
		packs:    make(map[string]cards.Pack),
		scores:   make(map[string]int),
		settings: DefaultSettings(),
	}
}

func (m *Memory) List(ctx context.Context) ([]cards.Pack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	packs := make([]cards.Pack, 0, len(m.packs))
	for _, p := range m.packs {
		packs = append(packs, p.Clone())
	}
	slices.SortFunc(packs, func(a, b cards.Pack) int {
		return strings.Compare(a.Name, b.Name)
	})

	return packs, nil
}

func (m *Memory) Save(ctx context.Context, pack cards.Pack) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.packs[pack.ID] = pack.Clone()

	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.packs[id]; !ok {
		return ErrNotFound
	}
	delete(m.packs, id)

	return nil
}

func (m *Memory) Best(packID string, mode round.Mode) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	score, ok := m.scores[scoreKey(packID, mode)]
	return score, ok
}

func (m *Memory) SaveBest(packID string, mode round.Mode, score int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := scoreKey(packID, mode)
	if score <= m.scores[key] {
		return false
	}
	m.scores[key] = score

	return true
}

func (m *Memory) LoadSettings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.settings
}

func (m *Memory) SaveSettings(s Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings = s
}
