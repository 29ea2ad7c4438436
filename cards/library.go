/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package cards

import (
	"context"
	"fmt"
	"sync"
)

// Store persists custom packs.
type Store interface {
	List(ctx context.Context) ([]Pack, error)
	Save(ctx context.Context, pack Pack) error
	Delete(ctx context.Context, id string) error
}

// Library merges the built-in packs with the custom packs of a Store.
// Custom packs are cached after each successful load, so a failing store
// still leaves the last known list playable.
type Library struct {
	store Store

	mu     sync.RWMutex
	custom []Pack
}

// NewLibrary wraps store. A nil store yields built-ins only.
func NewLibrary(store Store) *Library {
	return &Library{store: store}
}

// Reload refreshes the custom pack cache from the store.
func (l *Library) Reload(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	packs, err := l.store.List(ctx)
	if err != nil {
		return fmt.Errorf("loading custom packs: %w", err)
	}

	custom := make([]Pack, 0, len(packs))
	for _, p := range packs {
		p.Custom = true
		custom = append(custom, p.Clone())
	}

	l.mu.Lock()
	l.custom = custom
	l.mu.Unlock()

	return nil
}

// Packs returns built-ins followed by custom packs.
func (l *Library) Packs() []Pack {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := Builtins()
	for _, p := range l.custom {
		out = append(out, p.Clone())
	}
	return out
}

// Find looks a pack up by id.
func (l *Library) Find(id string) (Pack, bool) {
	for _, p := range l.Packs() {
		if p.ID == id {
			return p, true
		}
	}
	return Pack{}, false
}

// Save persists a custom pack and updates the cache.
func (l *Library) Save(ctx context.Context, pack Pack) error {
	if !pack.Custom || IsBuiltin(pack.ID) {
		return ErrReadOnlyPack
	}

	if l.store == nil {
		return fmt.Errorf("saving pack %q: no store configured", pack.Name)
	}

	if err := l.store.Save(ctx, pack); err != nil {
		return fmt.Errorf("saving pack %q: %w", pack.Name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, p := range l.custom {
		if p.ID == pack.ID {
			l.custom[i] = pack.Clone()
			return nil
		}
	}
	l.custom = append(l.custom, pack.Clone())

	return nil
}

// Delete removes a custom pack from the store and the cache.
func (l *Library) Delete(ctx context.Context, id string) error {
	if IsBuiltin(id) {
		return ErrReadOnlyPack
	}

	l.mu.RLock()
	found := false
	for _, p := range l.custom {
		if p.ID == id {
			found = true
			break
		}
	}
	l.mu.RUnlock()

	if !found {
		return ErrPackNotFound
	}

	if l.store == nil {
		return fmt.Errorf("deleting pack %s: no store configured", id)
	}

	if err := l.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting pack %s: %w", id, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, p := range l.custom {
		if p.ID == id {
			l.custom = append(l.custom[:i], l.custom[i+1:]...)
			break
		}
	}

	return nil
}
