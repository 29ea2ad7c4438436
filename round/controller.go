/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package round drives a single Heads Up! round: pack selection, the ready
// pause, the timed play phase and the results tally.
package round

import (
	"sync"
	"time"

	"github.com/Seednode/tete/cards"
	"github.com/rs/zerolog"
)

// countdownFrom is the first second that beeps.
const countdownFrom = 10

// EventKind tells observers what changed.
type EventKind int

const (
	EventPhase  EventKind = iota // Phase changed
	EventReset                   // Round state was reset without a phase change
	EventResult                  // A card was resolved
	EventTick                    // A second elapsed
)

// Event is delivered to observers after the controller releases its lock.
type Event struct {
	Kind     EventKind
	From, To Phase
	Snapshot Snapshot
}

// Snapshot is a read-only copy of the round state.
type Snapshot struct {
	Phase         Phase       `json:"phase"`
	Mode          Mode        `json:"mode"`
	Duration      int         `json:"duration"`
	PackID        string      `json:"packId,omitempty"`
	Card          *cards.Card `json:"card,omitempty"`
	Cursor        int         `json:"cursor"`
	Total         int         `json:"total"`
	Results       []Result    `json:"results"`
	TimeRemaining int         `json:"timeRemaining"`
	Correct       int         `json:"correct"`
	Passed        int         `json:"passed"`
	Accuracy      int         `json:"accuracy"`
}

type roundTimer struct {
	ticker Ticker
	done   chan struct{}
}

// batch collects the work a locked section wants done once the lock is
// released, so user callbacks never run under the controller's mutex.
type batch struct {
	effects []func()
	names   []string
	events  []Event
}

func (b *batch) effect(name string, fn func()) {
	b.names = append(b.names, name)
	b.effects = append(b.effects, fn)
}

// Controller owns the phase machine and round state. It is safe for
// concurrent use; the timer goroutine and input handlers all serialize
// through one mutex.
type Controller struct {
	mu sync.Mutex

	phase         Phase
	pack          *cards.Pack
	mode          Mode
	queue         []cards.Card
	cursor        int
	results       []Result
	timeRemaining int
	lastBeep      int
	timer         *roundTimer

	cues      Cues
	haptics   Haptics
	newTicker TickerFunc
	shuffle   func([]cards.Card) []cards.Card
	onPlay    func()
	onStop    func()
	log       zerolog.Logger

	obsMu     sync.Mutex
	observers map[int]func(Event)
	nextObs   int
}

// Option configures a Controller.
type Option func(*Controller)

func WithCues(c Cues) Option {
	return func(ctl *Controller) {
		if c != nil {
			ctl.cues = c
		}
	}
}

func WithHaptics(h Haptics) Option {
	return func(ctl *Controller) {
		if h != nil {
			ctl.haptics = h
		}
	}
}

// WithTicker replaces the wall-clock round ticker.
func WithTicker(fn TickerFunc) Option {
	return func(ctl *Controller) {
		if fn != nil {
			ctl.newTicker = fn
		}
	}
}

// WithShuffle replaces the fair shuffle, mostly for tests.
func WithShuffle(fn func([]cards.Card) []cards.Card) Option {
	return func(ctl *Controller) {
		if fn != nil {
			ctl.shuffle = fn
		}
	}
}

// WithPlayHooks registers functions run while the controller's lock is
// held: enter when play starts, exit exactly once when play ends by any
// path. They must not call back into the controller.
func WithPlayHooks(enter, exit func()) Option {
	return func(ctl *Controller) {
		ctl.onPlay = enter
		ctl.onStop = exit
	}
}

// WithMode sets the mode used until a round picks another one.
func WithMode(m Mode) Option {
	return func(ctl *Controller) {
		if m.Valid() {
			ctl.mode = m
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(ctl *Controller) {
		ctl.log = log
	}
}

// New returns a controller at home.
func New(opts ...Option) *Controller {
	c := &Controller{
		phase:     PhaseHome,
		mode:      ModeNormal,
		cues:      silentCues{},
		haptics:   stillHaptics{},
		newTicker: NewTicker,
		shuffle:   cards.Shuffle[cards.Card],
		log:       zerolog.Nop(),
		observers: make(map[int]func(Event)),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.timeRemaining = c.mode.Seconds()

	return c
}

// Subscribe registers fn for every event. The returned function removes it.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()

	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn

	return func() {
		c.obsMu.Lock()
		defer c.obsMu.Unlock()

		delete(c.observers, id)
	}
}

// SelectPack shuffles pack into a fresh round and moves to ready. A nil pack
// or a round in progress makes it a no-op. An invalid mode keeps the last.
func (c *Controller) SelectPack(pack *cards.Pack, mode Mode) bool {
	if pack == nil {
		return false
	}

	c.mu.Lock()
	if !c.phase.CanTransitionTo(PhaseReady) {
		c.mu.Unlock()
		return false
	}

	p := pack.Clone()
	c.pack = &p
	if mode.Valid() {
		c.mode = mode
	}

	b := &batch{}
	c.startRoundLocked(b)
	c.mu.Unlock()

	c.flush(b)

	return true
}

// Replay reshuffles the last pack and returns to ready.
func (c *Controller) Replay() bool {
	c.mu.Lock()
	if c.phase != PhaseResults || c.pack == nil {
		c.mu.Unlock()
		return false
	}

	b := &batch{}
	c.startRoundLocked(b)
	c.mu.Unlock()

	c.flush(b)

	return true
}

// Begin starts play from ready.
func (c *Controller) Begin() bool {
	c.mu.Lock()
	if c.phase != PhaseReady {
		c.mu.Unlock()
		return false
	}

	b := &batch{}
	c.transitionLocked(PhasePlaying, b)
	c.checkEndLocked(b)
	c.mu.Unlock()

	c.flush(b)

	return true
}

// End stops play early and shows the results.
func (c *Controller) End() bool {
	c.mu.Lock()
	if c.phase != PhasePlaying {
		c.mu.Unlock()
		return false
	}

	b := &batch{}
	c.transitionLocked(PhaseResults, b)
	c.mu.Unlock()

	c.flush(b)

	return true
}

// GoHome abandons whatever is happening and clears the round.
func (c *Controller) GoHome() {
	c.mu.Lock()
	b := &batch{}

	prev := c.phase
	c.transitionLocked(PhaseHome, b)
	c.pack = nil
	c.queue = nil
	c.cursor = 0
	c.results = nil
	c.timeRemaining = c.mode.Seconds()

	if prev == PhaseHome {
		b.events = append(b.events, c.eventLocked(EventReset, prev))
	} else {
		// the phase event was captured before the clear
		b.events[len(b.events)-1].Snapshot = c.snapshotLocked()
	}
	c.mu.Unlock()

	c.flush(b)
}

// Close releases the round timer. Safe to call more than once.
func (c *Controller) Close() {
	c.GoHome()
}

// MarkCorrect resolves the current card as guessed.
func (c *Controller) MarkCorrect() bool {
	return c.mark(OutcomeCorrect)
}

// MarkPass skips the current card.
func (c *Controller) MarkPass() bool {
	return c.mark(OutcomePass)
}

func (c *Controller) mark(outcome Outcome) bool {
	c.mu.Lock()
	if c.phase != PhasePlaying || c.cursor >= len(c.queue) {
		c.mu.Unlock()
		return false
	}

	b := &batch{}
	c.results = append(c.results, Result{Card: c.queue[c.cursor], Outcome: outcome})
	c.cursor++

	switch outcome {
	case OutcomeCorrect:
		b.effect("correct cue", c.cues.PlayCorrect)
		b.effect("correct vibration", func() { c.haptics.Vibrate(CorrectPattern...) })
	case OutcomePass:
		b.effect("pass cue", c.cues.PlayPass)
		b.effect("pass vibration", func() { c.haptics.Vibrate(PassPattern...) })
	}

	b.events = append(b.events, c.eventLocked(EventResult, c.phase))
	c.checkEndLocked(b)
	c.mu.Unlock()

	c.flush(b)

	return true
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.phase
}

// Pack returns the selected pack, if any.
func (c *Controller) Pack() (cards.Pack, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pack == nil {
		return cards.Pack{}, false
	}
	return c.pack.Clone(), true
}

// Mode returns the mode of the current or last round.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mode
}

func (c *Controller) startRoundLocked(b *batch) {
	c.queue = c.shuffle(c.pack.Cards)
	c.cursor = 0
	c.results = nil
	c.timeRemaining = c.mode.Seconds()

	prev := c.phase
	if prev == PhaseReady {
		b.events = append(b.events, c.eventLocked(EventReset, prev))
		return
	}
	c.transitionLocked(PhaseReady, b)
}

// transitionLocked is the only place the phase changes. Leaving play always
// runs stopPlayingLocked, whichever path got us here.
func (c *Controller) transitionLocked(next Phase, b *batch) {
	prev := c.phase
	if prev == next {
		return
	}

	if prev == PhasePlaying {
		c.stopPlayingLocked()
	}

	c.phase = next

	if next == PhasePlaying {
		c.startPlayingLocked()
	}

	c.log.Debug().Stringer("from", prev).Stringer("to", next).Msg("phase")
	b.events = append(b.events, c.eventLocked(EventPhase, prev))
}

func (c *Controller) startPlayingLocked() {
	c.lastBeep = 0

	rt := &roundTimer{
		ticker: c.newTicker(time.Second),
		done:   make(chan struct{}),
	}
	c.timer = rt
	go c.run(rt)

	if c.onPlay != nil {
		c.onPlay()
	}
}

func (c *Controller) stopPlayingLocked() {
	if c.timer != nil {
		close(c.timer.done)
		c.timer.ticker.Stop()
		c.timer = nil
	}
	c.lastBeep = 0

	if c.onStop != nil {
		c.onStop()
	}
}

func (c *Controller) run(rt *roundTimer) {
	for {
		select {
		case <-rt.done:
			return
		case <-rt.ticker.C():
			c.tick(rt)
		}
	}
}

// tick advances the clock by one second for the timer rt. Ticks from a
// timer that has since been released are dropped.
func (c *Controller) tick(rt *roundTimer) {
	c.mu.Lock()
	if c.timer != rt || c.phase != PhasePlaying {
		c.mu.Unlock()
		return
	}

	b := &batch{}
	if c.timeRemaining > 0 {
		c.timeRemaining--
	}

	if c.timeRemaining >= 1 && c.timeRemaining <= countdownFrom && c.timeRemaining != c.lastBeep {
		c.lastBeep = c.timeRemaining
		b.effect("countdown cue", c.cues.PlayCountdownBeep)
	}

	b.events = append(b.events, c.eventLocked(EventTick, c.phase))
	c.checkEndLocked(b)
	c.mu.Unlock()

	c.flush(b)
}

// checkEndLocked is the single point that decides a round is over: either
// the clock ran out or every card has been resolved. Because it moves the
// phase to results, a second check in the same step is a no-op.
func (c *Controller) checkEndLocked(b *batch) {
	if c.phase != PhasePlaying {
		return
	}

	exhausted := c.cursor >= len(c.queue)
	if c.timeRemaining <= 0 || exhausted {
		c.transitionLocked(PhaseResults, b)
	}
}

func (c *Controller) eventLocked(kind EventKind, from Phase) Event {
	return Event{
		Kind:     kind,
		From:     from,
		To:       c.phase,
		Snapshot: c.snapshotLocked(),
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Phase:         c.phase,
		Mode:          c.mode,
		Duration:      c.mode.Seconds(),
		Cursor:        c.cursor,
		Total:         len(c.queue),
		Results:       append([]Result(nil), c.results...),
		TimeRemaining: c.timeRemaining,
	}

	if c.pack != nil {
		s.PackID = c.pack.ID
	}

	if c.cursor < len(c.queue) {
		card := c.queue[c.cursor]
		s.Card = &card
	}

	s.Correct, s.Passed, s.Accuracy = Tally(c.results)

	return s
}

func (c *Controller) flush(b *batch) {
	for i, fn := range b.effects {
		safely(c.log, b.names[i], fn)
	}

	if len(b.events) == 0 {
		return
	}

	c.obsMu.Lock()
	observers := make([]func(Event), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.obsMu.Unlock()

	for _, ev := range b.events {
		for _, fn := range observers {
			fn(ev)
		}
	}
}
