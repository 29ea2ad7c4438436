/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Seednode/tete/cards"
	"github.com/Seednode/tete/round"
)

const (
	packsFile    = "packs.json"
	scoresFile   = "scores.json"
	settingsFile = "settings.toml"

	soundKey = "sound_enabled"
)

// File keeps packs and scores as JSON documents and settings as TOML, all
// in one directory. Writes go through a temporary file and a rename.
type File struct {
	dir string
	log zerolog.Logger

	mu sync.Mutex
}

type FileOption func(*File)

func WithFileLogger(log zerolog.Logger) FileOption {
	return func(f *File) {
		f.log = log
	}
}

// OpenFile uses dir, creating it if needed.
func OpenFile(dir string, opts ...FileOption) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpected, err)
	}

	f := &File{dir: dir, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *File) Dir() string {
	return f.dir
}

func (f *File) path(name string) string {
	return filepath.Join(f.dir, name)
}

// readJSON decodes name into v. A missing file leaves v untouched.
func (f *File) readJSON(name string, v any) error {
	data, err := os.ReadFile(f.path(name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("%w: %w", ErrUnexpected, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrUnexpected, name, err)
	}

	return nil
}

func (f *File) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpected, err)
	}

	return f.writeFile(name, data)
}

func (f *File) writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpected, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrUnexpected, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpected, err)
	}

	if err := os.Rename(tmp.Name(), f.path(name)); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpected, err)
	}

	return nil
}

func (f *File) loadPacks() (map[string]cards.Pack, error) {
	packs := make(map[string]cards.Pack)
	if err := f.readJSON(packsFile, &packs); err != nil {
		return nil, err
	}
	return packs, nil
}

func (f *File) List(ctx context.Context) ([]cards.Pack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byID, err := f.loadPacks()
	if err != nil {
		return nil, err
	}

	packs := make([]cards.Pack, 0, len(byID))
	for id, p := range byID {
		p.ID = id
		p.Custom = true
		packs = append(packs, p)
	}
	slices.SortFunc(packs, func(a, b cards.Pack) int {
		return strings.Compare(a.Name, b.Name)
	})

	return packs, nil
}

func (f *File) Save(ctx context.Context, pack cards.Pack) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	packs, err := f.loadPacks()
	if err != nil {
		return err
	}
	packs[pack.ID] = pack

	return f.writeJSON(packsFile, packs)
}

func (f *File) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	packs, err := f.loadPacks()
	if err != nil {
		return err
	}
	if _, ok := packs[id]; !ok {
		return ErrNotFound
	}
	delete(packs, id)

	return f.writeJSON(packsFile, packs)
}

func (f *File) loadScores() map[string]int {
	scores := make(map[string]int)
	if err := f.readJSON(scoresFile, &scores); err != nil {
		f.log.Warn().Err(err).Msg("reading best scores")
		return make(map[string]int)
	}
	return scores
}

func (f *File) Best(packID string, mode round.Mode) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	score, ok := f.loadScores()[scoreKey(packID, mode)]
	return score, ok
}

func (f *File) SaveBest(packID string, mode round.Mode, score int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	scores := f.loadScores()
	key := scoreKey(packID, mode)
	if score <= scores[key] {
		return false
	}
	scores[key] = score

	if err := f.writeJSON(scoresFile, scores); err != nil {
		f.log.Warn().Err(err).Str("pack", packID).Msg("saving best score")
	}

	return true
}

func (f *File) settings() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(f.path(settingsFile))
	v.SetDefault(soundKey, DefaultSettings().SoundEnabled)
	return v
}

func (f *File) LoadSettings() Settings {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := f.settings()
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.log.Debug().Err(err).Msg("reading settings")
		}
		return DefaultSettings()
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		f.log.Debug().Err(err).Msg("decoding settings")
		return DefaultSettings()
	}

	return s
}

func (f *File) SaveSettings(s Settings) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := f.settings()
	v.Set(soundKey, s.SoundEnabled)

	if err := v.WriteConfigAs(f.path(settingsFile)); err != nil {
		f.log.Warn().Err(err).Msg("saving settings")
	}
}
