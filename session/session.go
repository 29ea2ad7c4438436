/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package session hosts one game on one device: it wires the round
// controller to the gesture classifier, keeps best scores and the sound
// setting, and renders everything the presentation layer draws.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Seednode/tete/cards"
	"github.com/Seednode/tete/gesture"
	"github.com/Seednode/tete/round"
	"github.com/Seednode/tete/store"
)

// ReadyDelay is how long the presentation waits between the player
// confirming and the round starting.
const ReadyDelay = 1000 * time.Millisecond

// ModeView is a mode with its display data.
type ModeView struct {
	Mode round.Mode `json:"id"`
	round.ModeConfig
}

// View is everything needed to draw the current screen.
type View struct {
	Phase        round.Phase    `json:"phase"`
	Mode         round.Mode     `json:"mode"`
	Modes        []ModeView     `json:"modes"`
	Packs        []cards.Pack   `json:"packs"`
	Round        round.Snapshot `json:"round"`
	Input        gesture.State  `json:"input"`
	BestScore    *int           `json:"bestScore"`
	NewBest      bool           `json:"isNewBest"`
	SoundEnabled bool           `json:"soundEnabled"`
	Notices      []Notice       `json:"toasts"`
}

type config struct {
	log     zerolog.Logger
	cues    round.Cues
	haptics round.Haptics
	caps    gesture.Capability
	clock   gesture.Clock
	ticker  round.TickerFunc
	shuffle func([]cards.Card) []cards.Card
	mode    round.Mode
}

// Option configures a Session.
type Option func(*config)

func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithCues sets where round sounds go. They are muted while the sound
// setting is off.
func WithCues(cues round.Cues) Option {
	return func(c *config) {
		c.cues = cues
	}
}

func WithHaptics(h round.Haptics) Option {
	return func(c *config) {
		c.haptics = h
	}
}

// WithCapability describes the device's orientation support. Without it
// the session is keyboard only.
func WithCapability(caps gesture.Capability) Option {
	return func(c *config) {
		c.caps = caps
	}
}

func WithClock(clock gesture.Clock) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithTicker(fn round.TickerFunc) Option {
	return func(c *config) {
		c.ticker = fn
	}
}

func WithShuffle(fn func([]cards.Card) []cards.Card) Option {
	return func(c *config) {
		c.shuffle = fn
	}
}

// WithMode picks the mode preselected on the home screen.
func WithMode(m round.Mode) Option {
	return func(c *config) {
		if m.Valid() {
			c.mode = m
		}
	}
}

// Session is a single device's game.
type Session struct {
	library *cards.Library
	scores  store.Scores
	prefs   store.Preferences
	log     zerolog.Logger

	ctl     *round.Controller
	input   *gesture.Classifier
	feed    *gesture.Feed
	notices *Notices
	unsub   func()

	mu        sync.Mutex
	mode      round.Mode
	best      *int
	newBest   bool
	lastInput gesture.State
	closed    bool

	obsMu     sync.Mutex
	observers map[int]func(View)
	nextObs   int
}

// New builds a session at the home screen. Nil scores or prefs leave
// those features without persistence.
func New(library *cards.Library, scores store.Scores, prefs store.Preferences, opts ...Option) *Session {
	cfg := config{
		log:   zerolog.Nop(),
		clock: gesture.SystemClock(),
		caps:  gesture.Ungated{},
		mode:  round.ModeNormal,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if library == nil {
		library = cards.NewLibrary(nil)
	}
	if scores == nil {
		scores = noScores{}
	}
	if prefs == nil {
		prefs = defaults{}
	}

	s := &Session{
		library:   library,
		scores:    scores,
		prefs:     prefs,
		log:       cfg.log,
		feed:      gesture.NewFeed(),
		mode:      cfg.mode,
		observers: make(map[int]func(View)),
	}

	s.notices = newNotices(cfg.clock, s.changed)

	s.input = gesture.New(cfg.caps, s.feed,
		gesture.WithClock(cfg.clock),
		gesture.WithLogger(cfg.log),
		gesture.OnCorrect(func() { s.ctl.MarkCorrect() }),
		gesture.OnPass(func() { s.ctl.MarkPass() }),
		gesture.OnChange(s.inputChanged),
	)

	ctlOpts := []round.Option{
		round.WithCues(gatedCues{cues: cfg.cues, prefs: prefs}),
		round.WithHaptics(cfg.haptics),
		round.WithTicker(cfg.ticker),
		round.WithShuffle(cfg.shuffle),
		round.WithMode(cfg.mode),
		round.WithLogger(cfg.log),
		round.WithPlayHooks(
			func() { s.input.SetEnabled(true) },
			func() { s.input.SetEnabled(false) },
		),
	}
	s.ctl = round.New(ctlOpts...)
	s.unsub = s.ctl.Subscribe(s.roundChanged)
	s.lastInput = s.input.State()

	return s
}

// Subscribe registers fn for every change of the view. The returned
// function removes it.
func (s *Session) Subscribe(fn func(View)) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()

		delete(s.observers, id)
	}
}

// Reload refreshes the custom packs. A failing store keeps the last known
// packs and shows a notice.
func (s *Session) Reload(ctx context.Context) error {
	if err := s.library.Reload(ctx); err != nil {
		s.log.Warn().Err(err).Msg("loading custom packs")
		s.notices.Push("Failed to load custom packs", NoticeError)
		return err
	}

	s.changed()

	return nil
}

// Packs lists built-in then custom packs.
func (s *Session) Packs() []cards.Pack {
	return s.library.Packs()
}

// SetMode picks the mode for the next round.
func (s *Session) SetMode(m round.Mode) error {
	if !m.Valid() {
		return round.ErrUnknownMode
	}

	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()

	s.changed()

	return nil
}

// Mode is the mode the next round will use.
func (s *Session) Mode() round.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mode
}

// Select shuffles the pack with id into a new round and shows the ready
// screen. An invalid mode keeps the current one.
func (s *Session) Select(packID string, mode round.Mode) bool {
	pack, ok := s.library.Find(packID)
	if !ok {
		s.log.Debug().Str("pack", packID).Msg("selected unknown pack")
		return false
	}

	s.mu.Lock()
	if mode.Valid() {
		s.mode = mode
	}
	mode = s.mode
	s.mu.Unlock()

	return s.ctl.SelectPack(&pack, mode)
}

// Begin starts the clock. Presentations call it ReadyDelay after the
// player confirms.
func (s *Session) Begin() bool {
	return s.ctl.Begin()
}

// End stops a round early.
func (s *Session) End() bool {
	return s.ctl.End()
}

// Replay reshuffles the last pack.
func (s *Session) Replay() bool {
	return s.ctl.Replay()
}

// GoHome abandons the round.
func (s *Session) GoHome() {
	s.ctl.GoHome()
}

// MarkCorrect and MarkPass resolve the current card directly, without
// going through the gesture cooldown.
func (s *Session) MarkCorrect() bool {
	return s.ctl.MarkCorrect()
}

func (s *Session) MarkPass() bool {
	return s.ctl.MarkPass()
}

// Tilt feeds an orientation reading. It only counts while the round is
// playing and orientation permission has been granted.
func (s *Session) Tilt(sample gesture.Sample) {
	s.feed.Publish(sample)
}

// Key feeds an arrow key press.
func (s *Session) Key(key gesture.Key) bool {
	return s.input.HandleKey(key)
}

// RequestPermission asks the device for orientation access. A refusal
// leaves the keyboard as the only input.
func (s *Session) RequestPermission(ctx context.Context) bool {
	granted := s.input.RequestPermission(ctx)
	if !granted {
		s.log.Debug().Msg("orientation unavailable, keyboard only")
	}
	return granted
}

// Listening reports whether orientation readings are being classified.
func (s *Session) Listening() bool {
	return s.input.Listening()
}

// SetSound saves the sound setting.
func (s *Session) SetSound(enabled bool) {
	settings := s.prefs.LoadSettings()
	settings.SoundEnabled = enabled
	s.prefs.SaveSettings(settings)

	s.changed()
}

// SavePack validates and stores a custom pack. Failures are shown as a
// notice and returned.
func (s *Session) SavePack(ctx context.Context, draft *cards.Draft) (cards.Pack, error) {
	pack, err := draft.Build()
	if err != nil {
		s.notices.Push(noticeFor(err, "Failed to save pack"), NoticeError)
		return cards.Pack{}, err
	}

	if err := s.library.Save(ctx, pack); err != nil {
		s.log.Warn().Err(err).Str("pack", pack.ID).Msg("saving pack")
		s.notices.Push(noticeFor(err, "Failed to save pack"), NoticeError)
		return cards.Pack{}, err
	}

	s.notices.Push("Saved "+pack.Name, NoticeSuccess)

	return pack, nil
}

// DeletePack removes a custom pack.
func (s *Session) DeletePack(ctx context.Context, id string) error {
	if err := s.library.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("pack", id).Msg("deleting pack")
		s.notices.Push(noticeFor(err, "Failed to delete pack"), NoticeError)
		return err
	}

	s.notices.Push("Pack deleted", NoticeSuccess)

	return nil
}

// Notices is the session's toast queue.
func (s *Session) Notices() *Notices {
	return s.notices
}

// Snapshot is the controller's round state.
func (s *Session) Snapshot() round.Snapshot {
	return s.ctl.Snapshot()
}

// View renders the session. Best score fields are only set on the
// results screen.
func (s *Session) View() View {
	snap := s.ctl.Snapshot()

	s.mu.Lock()
	mode, best, newBest := s.mode, s.best, s.newBest
	s.mu.Unlock()

	v := View{
		Phase:        snap.Phase,
		Mode:         mode,
		Modes:        modeViews(),
		Packs:        s.library.Packs(),
		Round:        snap,
		Input:        s.input.State(),
		SoundEnabled: s.prefs.LoadSettings().SoundEnabled,
		Notices:      s.notices.List(),
	}

	if snap.Phase == round.PhaseResults {
		v.NewBest = newBest
		if best != nil {
			b := *best
			v.BestScore = &b
		}
	}

	return v
}

// Close ends the round and releases timers and listeners. Observers are
// not called afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.unsub()
	s.ctl.Close()
	s.input.Close()
	s.notices.close()
}

// roundChanged records the best score when a round ends.
func (s *Session) roundChanged(ev round.Event) {
	if ev.Kind == round.EventPhase && ev.To == round.PhaseResults {
		snap := ev.Snapshot

		newBest := s.scores.SaveBest(snap.PackID, snap.Mode, snap.Correct)

		var best *int
		if score, ok := s.scores.Best(snap.PackID, snap.Mode); ok {
			best = &score
		}

		s.mu.Lock()
		s.best, s.newBest = best, newBest
		s.mu.Unlock()

		s.log.Debug().
			Str("pack", snap.PackID).
			Str("mode", string(snap.Mode)).
			Int("correct", snap.Correct).
			Bool("new_best", newBest).
			Msg("round over")
	}

	s.changed()
}

// inputChanged skips plain angle updates; only indicator and permission
// changes are worth a redraw.
func (s *Session) inputChanged(st gesture.State) {
	s.mu.Lock()
	prev := s.lastInput
	s.lastInput = st
	s.mu.Unlock()

	if prev.CurrentAction == st.CurrentAction && prev.Permission == st.Permission {
		return
	}

	s.changed()
}

func (s *Session) changed() {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return
	}

	s.obsMu.Lock()
	observers := make([]func(View), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.obsMu.Unlock()

	if len(observers) == 0 {
		return
	}

	v := s.View()
	for _, fn := range observers {
		fn(v)
	}
}

func modeViews() []ModeView {
	modes := round.Modes()
	out := make([]ModeView, len(modes))
	for i, m := range modes {
		out[i] = ModeView{Mode: m, ModeConfig: m.Config()}
	}
	return out
}

func noticeFor(err error, fallback string) string {
	switch {
	case errors.Is(err, cards.ErrNameRequired):
		return "Pack name is required"
	case errors.Is(err, cards.ErrNoCards):
		return "Add at least one card"
	case errors.Is(err, cards.ErrDuplicateCard):
		return "This card already exists in the pack"
	case errors.Is(err, cards.ErrReadOnlyPack):
		return "Built-in packs cannot be changed"
	case errors.Is(err, cards.ErrPackNotFound):
		return "That pack no longer exists"
	}
	return fallback
}
