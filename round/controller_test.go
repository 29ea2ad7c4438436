package round

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Seednode/tete/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Ticker ---

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type tickerFactory struct {
	mu   sync.Mutex
	made []*fakeTicker
}

func (tf *tickerFactory) New(time.Duration) Ticker {
	tf.mu.Lock()
	defer tf.mu.Unlock()

	t := &fakeTicker{ch: make(chan time.Time)}
	tf.made = append(tf.made, t)
	return t
}

func (tf *tickerFactory) all() []*fakeTicker {
	tf.mu.Lock()
	defer tf.mu.Unlock()

	return append([]*fakeTicker(nil), tf.made...)
}

// --- Cues / Haptics ---

type MockCues struct {
	mock.Mock
}

func (m *MockCues) PlayCorrect()       { m.Called() }
func (m *MockCues) PlayPass()          { m.Called() }
func (m *MockCues) PlayCountdownBeep() { m.Called() }

type MockHaptics struct {
	mock.Mock
}

func (m *MockHaptics) Vibrate(pattern ...time.Duration) { m.Called(pattern) }

type panickyCues struct{}

func (panickyCues) PlayCorrect()       { panic("speaker unplugged") }
func (panickyCues) PlayPass()          { panic("speaker unplugged") }
func (panickyCues) PlayCountdownBeep() { panic("speaker unplugged") }

// --- helpers ---

func identity(c []cards.Card) []cards.Card {
	return append([]cards.Card(nil), c...)
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *tickerFactory) {
	t.Helper()

	tf := &tickerFactory{}
	c := New(append([]Option{WithTicker(tf.New)}, opts...)...)
	t.Cleanup(c.Close)

	return c, tf
}

// advance drives n ticks synchronously through the current timer.
func advance(c *Controller, n int) {
	for range n {
		c.mu.Lock()
		rt := c.timer
		c.mu.Unlock()

		if rt == nil {
			return
		}
		c.tick(rt)
	}
}

func assertInvariants(t *testing.T, c *Controller) {
	t.Helper()

	s := c.Snapshot()
	assert.Equal(t, s.Cursor, len(s.Results), "results must track cursor")
	assert.LessOrEqual(t, s.Cursor, s.Total)
	assert.GreaterOrEqual(t, s.TimeRemaining, 0)
	assert.LessOrEqual(t, s.TimeRemaining, s.Duration)
}

func pack(texts ...string) *cards.Pack {
	return &cards.Pack{ID: "p", Name: "Test", Cards: cards.FromTexts(texts...)}
}

// --- tests ---

func TestNew_StartsHome(t *testing.T) {
	c, _ := newTestController(t)

	s := c.Snapshot()
	assert.Equal(t, PhaseHome, s.Phase)
	assert.Equal(t, ModeNormal, s.Mode)
	assert.Equal(t, 60, s.TimeRemaining)
	assert.Nil(t, s.Card)
}

func TestModes_Durations(t *testing.T) {
	assert.Equal(t, 90, ModeChill.Seconds())
	assert.Equal(t, 60, ModeNormal.Seconds())
	assert.Equal(t, 45, ModeHard.Seconds())
	assert.Greater(t, ModeChill.Seconds(), ModeNormal.Seconds())
	assert.Greater(t, ModeNormal.Seconds(), ModeHard.Seconds())

	for _, m := range Modes() {
		c, _ := newTestController(t)
		require.True(t, c.SelectPack(pack("a"), m))
		assert.Equal(t, m.Seconds(), c.Snapshot().TimeRemaining, "mode %s", m)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("hard")
	require.NoError(t, err)
	assert.Equal(t, ModeHard, m)

	_, err = ParseMode("turbo")
	assert.ErrorIs(t, err, ErrUnknownMode)

	assert.Equal(t, ModeNormal, ModeChill.Next())
	assert.Equal(t, ModeChill, ModeHard.Next())
}

func TestPhase_CanTransitionTo(t *testing.T) {
	assert.True(t, PhaseHome.CanTransitionTo(PhaseReady))
	assert.True(t, PhaseReady.CanTransitionTo(PhasePlaying))
	assert.True(t, PhasePlaying.CanTransitionTo(PhaseResults))
	assert.True(t, PhaseResults.CanTransitionTo(PhaseReady))
	assert.False(t, PhasePlaying.CanTransitionTo(PhaseReady))
	assert.False(t, PhaseHome.CanTransitionTo(PhasePlaying))

	for _, p := range []Phase{PhaseHome, PhaseReady, PhasePlaying, PhaseResults} {
		assert.True(t, p.CanTransitionTo(PhaseHome))

		text, err := p.MarshalText()
		require.NoError(t, err)

		var back Phase
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, p, back)
	}
}

func TestSelectPack_NilIsNoop(t *testing.T) {
	c, _ := newTestController(t)

	assert.False(t, c.SelectPack(nil, ModeHard))
	assert.Equal(t, PhaseHome, c.Phase())
	assert.Equal(t, ModeNormal, c.Mode())
}

func TestSelectPack_QueueIsPermutation(t *testing.T) {
	c, _ := newTestController(t)
	p := pack("a", "b", "c", "d", "e", "f")

	require.True(t, c.SelectPack(p, ModeNormal))

	c.mu.Lock()
	queue := append([]cards.Card(nil), c.queue...)
	c.mu.Unlock()

	assert.Len(t, queue, len(p.Cards))
	assert.ElementsMatch(t, p.Cards, queue)
	assert.Equal(t, PhaseReady, c.Phase())
	assertInvariants(t, c)
}

func TestSelectPack_RefusedWhilePlaying(t *testing.T) {
	c, _ := newTestController(t)
	require.True(t, c.SelectPack(pack("a", "b"), ModeNormal))
	require.True(t, c.Begin())

	assert.False(t, c.SelectPack(pack("x"), ModeHard))
	assert.Equal(t, PhasePlaying, c.Phase())
	assert.Equal(t, ModeNormal, c.Mode())
}

func TestEndToEnd_PizzaDogSun(t *testing.T) {
	c, _ := newTestController(t)
	p := pack("Pizza", "Dog", "Sun")

	require.True(t, c.SelectPack(p, ModeHard))
	s := c.Snapshot()
	assert.Equal(t, 45, s.TimeRemaining)
	assert.Equal(t, 3, s.Total)

	require.True(t, c.Begin())
	assert.Equal(t, PhasePlaying, c.Phase())

	require.True(t, c.MarkCorrect())
	require.True(t, c.MarkPass())

	s = c.Snapshot()
	assert.Equal(t, 1, s.Correct)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 50, s.Accuracy)
	assert.Equal(t, PhasePlaying, s.Phase)
	assertInvariants(t, c)

	require.True(t, c.MarkCorrect())

	s = c.Snapshot()
	assert.Equal(t, PhaseResults, s.Phase)
	assert.Equal(t, 45, s.TimeRemaining, "exhaustion must not wait for the clock")
	assert.Nil(t, s.Card)
	require.Len(t, s.Results, 3)

	seen := map[string]bool{}
	for _, r := range s.Results {
		seen[r.Card.Text] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, OutcomeCorrect, s.Results[0].Outcome)
	assert.Equal(t, OutcomePass, s.Results[1].Outcome)
	assertInvariants(t, c)
}

func TestMark_NoopOutsidePlaying(t *testing.T) {
	c, _ := newTestController(t)

	assert.False(t, c.MarkCorrect())
	assert.False(t, c.MarkPass())

	require.True(t, c.SelectPack(pack("a"), ModeNormal))
	before := c.Snapshot()
	assert.False(t, c.MarkCorrect())
	assert.Equal(t, before, c.Snapshot())

	require.True(t, c.Begin())
	require.True(t, c.MarkPass())
	require.Equal(t, PhaseResults, c.Phase())

	before = c.Snapshot()
	assert.False(t, c.MarkCorrect())
	assert.False(t, c.MarkPass())
	assert.Equal(t, before, c.Snapshot())
}

func TestMark_Feedback(t *testing.T) {
	cues := &MockCues{}
	cues.On("PlayCorrect").Once()
	cues.On("PlayPass").Once()

	haptics := &MockHaptics{}
	haptics.On("Vibrate", CorrectPattern).Once()
	haptics.On("Vibrate", PassPattern).Once()

	c, _ := newTestController(t, WithCues(cues), WithHaptics(haptics))
	require.True(t, c.SelectPack(pack("a", "b", "c"), ModeNormal))
	require.True(t, c.Begin())

	c.MarkCorrect()
	c.MarkPass()

	cues.AssertExpectations(t)
	haptics.AssertExpectations(t)
}

func TestMark_FeedbackFailureIsSwallowed(t *testing.T) {
	c, _ := newTestController(t, WithCues(panickyCues{}))
	require.True(t, c.SelectPack(pack("a", "b"), ModeNormal))
	require.True(t, c.Begin())

	assert.NotPanics(t, func() {
		c.MarkCorrect()
		advance(c, 55)
	})
	assert.Equal(t, 1, c.Snapshot().Correct)
	assert.Equal(t, 5, c.Snapshot().TimeRemaining)
}

func TestTimer_CountdownAndExpiry(t *testing.T) {
	cues := &MockCues{}
	cues.On("PlayCountdownBeep").Times(10)

	c, tf := newTestController(t, WithCues(cues))
	require.True(t, c.SelectPack(pack("a", "b"), ModeHard))
	require.True(t, c.Begin())

	advance(c, 34)
	assert.Equal(t, 11, c.Snapshot().TimeRemaining)
	cues.AssertNotCalled(t, "PlayCountdownBeep")

	advance(c, 10)
	s := c.Snapshot()
	assert.Equal(t, 1, s.TimeRemaining)
	assert.Equal(t, PhasePlaying, s.Phase)

	advance(c, 1)
	s = c.Snapshot()
	assert.Equal(t, 0, s.TimeRemaining)
	assert.Equal(t, PhaseResults, s.Phase)

	// the released timer no longer moves the clock
	advance(c, 5)
	assert.Equal(t, 0, c.Snapshot().TimeRemaining)

	require.Len(t, tf.all(), 1)
	assert.True(t, tf.all()[0].stopped.Load())
	cues.AssertExpectations(t)
}

func TestTimer_StaleTickIgnored(t *testing.T) {
	c, _ := newTestController(t)
	require.True(t, c.SelectPack(pack("a", "b"), ModeNormal))
	require.True(t, c.Begin())

	c.mu.Lock()
	old := c.timer
	c.mu.Unlock()

	c.GoHome()
	require.True(t, c.SelectPack(pack("a", "b"), ModeNormal))
	require.True(t, c.Begin())

	c.tick(old)
	assert.Equal(t, 60, c.Snapshot().TimeRemaining)
}

func TestTimer_RunsOnTicker(t *testing.T) {
	c, tf := newTestController(t)
	require.True(t, c.SelectPack(pack("a", "b"), ModeNormal))
	require.True(t, c.Begin())

	ft := tf.all()[0]
	ft.ch <- time.Now()
	ft.ch <- time.Now()

	assert.Eventually(t, func() bool {
		return c.Snapshot().TimeRemaining == 58
	}, time.Second, 5*time.Millisecond)
}

func TestBoundary_ExhaustionAndExpirySameStep(t *testing.T) {
	var toResults atomic.Int32

	c, _ := newTestController(t)
	c.Subscribe(func(ev Event) {
		if ev.Kind == EventPhase && ev.To == PhaseResults {
			toResults.Add(1)
		}
	})

	require.True(t, c.SelectPack(pack("only"), ModeHard))
	require.True(t, c.Begin())
	advance(c, 44)
	require.Equal(t, 1, c.Snapshot().TimeRemaining)

	// both end conditions become true in the same step
	c.mu.Lock()
	c.timeRemaining = 0
	b := &batch{}
	c.results = append(c.results, Result{Card: c.queue[0], Outcome: OutcomeCorrect})
	c.cursor++
	c.checkEndLocked(b)
	c.checkEndLocked(b)
	c.mu.Unlock()
	c.flush(b)

	advance(c, 3)
	assert.False(t, c.MarkCorrect())

	assert.Equal(t, int32(1), toResults.Load())
	assertInvariants(t, c)
}

func TestBoundary_LastCardOnFinalSecond(t *testing.T) {
	var toResults atomic.Int32

	c, _ := newTestController(t)
	c.Subscribe(func(ev Event) {
		if ev.Kind == EventPhase && ev.To == PhaseResults {
			toResults.Add(1)
		}
	})

	require.True(t, c.SelectPack(pack("only"), ModeHard))
	require.True(t, c.Begin())
	advance(c, 44)
	require.True(t, c.MarkCorrect())
	advance(c, 1)

	assert.Equal(t, PhaseResults, c.Phase())
	assert.Equal(t, 1, c.Snapshot().TimeRemaining)
	assert.Equal(t, int32(1), toResults.Load())
}

func TestGoHome_ReleasesEverything(t *testing.T) {
	var enters, exits int

	c, tf := newTestController(t,
		WithShuffle(identity),
		WithPlayHooks(func() { enters++ }, func() { exits++ }),
	)
	require.True(t, c.SelectPack(pack("a", "b", "c"), ModeChill))
	require.True(t, c.Begin())
	advance(c, 3)
	c.MarkCorrect()

	c.GoHome()

	s := c.Snapshot()
	assert.Equal(t, PhaseHome, s.Phase)
	assert.Zero(t, s.Cursor)
	assert.Zero(t, s.Total)
	assert.Empty(t, s.Results)
	assert.Equal(t, 90, s.TimeRemaining)
	assert.Empty(t, s.PackID)

	assert.Equal(t, 1, enters)
	assert.Equal(t, 1, exits)
	assert.True(t, tf.all()[0].stopped.Load())

	c.GoHome()
	assert.Equal(t, 1, exits, "going home twice releases once")
}

func TestPhaseFlapping_DoesNotLeak(t *testing.T) {
	var active atomic.Int32

	c, tf := newTestController(t, WithPlayHooks(
		func() { active.Add(1) },
		func() { active.Add(-1) },
	))

	for i := range 200 {
		require.True(t, c.SelectPack(pack("a", "b"), ModeNormal))
		require.True(t, c.Begin())
		if i%2 == 0 {
			c.GoHome()
		} else {
			c.End()
		}
	}

	assert.Equal(t, int32(0), active.Load())
	for _, ft := range tf.all() {
		assert.True(t, ft.stopped.Load())
	}

	c.mu.Lock()
	assert.Nil(t, c.timer)
	c.mu.Unlock()
}

func TestReplay_ReshufflesSamePack(t *testing.T) {
	calls := 0
	c, _ := newTestController(t, WithShuffle(func(in []cards.Card) []cards.Card {
		calls++
		return identity(in)
	}))

	assert.False(t, c.Replay())

	require.True(t, c.SelectPack(pack("a", "b"), ModeHard))
	require.True(t, c.Begin())
	c.MarkCorrect()
	advance(c, 10)
	require.True(t, c.End())

	require.True(t, c.Replay())
	s := c.Snapshot()
	assert.Equal(t, PhaseReady, s.Phase)
	assert.Equal(t, "p", s.PackID)
	assert.Equal(t, ModeHard, s.Mode)
	assert.Equal(t, 45, s.TimeRemaining)
	assert.Zero(t, s.Cursor)
	assert.Empty(t, s.Results)
	assert.Equal(t, 2, calls)
}

func TestBegin_EmptyPackEndsImmediately(t *testing.T) {
	c, tf := newTestController(t)
	require.True(t, c.SelectPack(pack(), ModeNormal))
	require.True(t, c.Begin())

	assert.Equal(t, PhaseResults, c.Phase())
	for _, ft := range tf.all() {
		assert.True(t, ft.stopped.Load())
	}
}

func TestBegin_OnlyFromReady(t *testing.T) {
	c, _ := newTestController(t)
	assert.False(t, c.Begin())
	assert.False(t, c.End())
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	c, _ := newTestController(t)

	var kinds []EventKind
	stop := c.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	c.SelectPack(pack("a"), ModeNormal)
	c.Begin()
	c.MarkCorrect()

	assert.Equal(t, []EventKind{EventPhase, EventPhase, EventResult, EventPhase}, kinds)

	stop()
	c.GoHome()
	assert.Len(t, kinds, 4)
}

func TestTally(t *testing.T) {
	correct, passed, accuracy := Tally(nil)
	assert.Zero(t, correct)
	assert.Zero(t, passed)
	assert.Zero(t, accuracy)

	results := []Result{
		{Outcome: OutcomeCorrect},
		{Outcome: OutcomeCorrect},
		{Outcome: OutcomePass},
	}
	correct, passed, accuracy = Tally(results)
	assert.Equal(t, 2, correct)
	assert.Equal(t, 1, passed)
	assert.Equal(t, 67, accuracy)
}
