package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/tete/cards"
	"github.com/Seednode/tete/gesture"
	"github.com/Seednode/tete/round"
	"github.com/Seednode/tete/store"
)

// --- Clock ---

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) gesture.Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)

	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.at.After(c.now) {
			t.stopped = true
			due = append(due, t.fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}

// --- Ticker ---

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

type tickers struct {
	mu   sync.Mutex
	made []*manualTicker
}

func (ts *tickers) New(time.Duration) round.Ticker {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	t := &manualTicker{ch: make(chan time.Time)}
	ts.made = append(ts.made, t)
	return t
}

func (ts *tickers) last() *manualTicker {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if len(ts.made) == 0 {
		return nil
	}
	return ts.made[len(ts.made)-1]
}

// --- collaborators ---

type MockCues struct {
	mock.Mock
}

func (m *MockCues) PlayCorrect()       { m.Called() }
func (m *MockCues) PlayPass()          { m.Called() }
func (m *MockCues) PlayCountdownBeep() { m.Called() }

func newMockCues() *MockCues {
	m := &MockCues{}
	m.On("PlayCorrect").Return()
	m.On("PlayPass").Return()
	m.On("PlayCountdownBeep").Return()
	return m
}

var errDisk = errors.New("disk on fire")

type brokenStore struct{}

func (brokenStore) List(context.Context) ([]cards.Pack, error) { return nil, errDisk }
func (brokenStore) Save(context.Context, cards.Pack) error { return errDisk }
func (brokenStore) Delete(context.Context, string) error { return errDisk }
func (brokenStore) Best(string, round.Mode) (int, bool) { return 0, false }
func (brokenStore) SaveBest(string, round.Mode, int) bool { return false }
func (brokenStore) LoadSettings() store.Settings { return store.DefaultSettings() }
func (brokenStore) SaveSettings(store.Settings) {}

type harness struct {
	s     *Session
	mem   *store.Memory
	clock *fakeClock
	ticks *tickers
	cues  *MockCues
}

func identity(c []cards.Card) []cards.Card {
	return append([]cards.Card(nil), c...)
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		mem:   store.NewMemory(),
		clock: newFakeClock(),
		ticks: &tickers{},
		cues:  newMockCues(),
	}

	base := []Option{
		WithClock(h.clock),
		WithTicker(h.ticks.New),
		WithShuffle(identity),
		WithCues(h.cues),
	}
	h.s = New(cards.NewLibrary(h.mem), h.mem, h.mem, append(base, opts...)...)
	t.Cleanup(h.s.Close)

	return h
}

func (h *harness) savePizza(t *testing.T) cards.Pack {
	t.Helper()

	d := cards.NewDraft()
	d.Name = "Lunch"
	for _, c := range []string{"Pizza", "Dog", "Sun"} {
		require.NoError(t, d.AddCard(c))
	}

	pack, err := h.s.SavePack(context.Background(), d)
	require.NoError(t, err)
	return pack
}

// --- tests ---

func TestSession_EndToEnd(t *testing.T) {
	h := newHarness(t)
	pack := h.savePizza(t)

	require.True(t, h.s.Select(pack.ID, round.ModeHard))

	v := h.s.View()
	assert.Equal(t, round.PhaseReady, v.Phase)
	assert.Equal(t, 45, v.Round.TimeRemaining)
	assert.Equal(t, 3, v.Round.Total)

	assert.False(t, h.s.Key(gesture.KeyDown), "keys are ignored until play starts")

	require.True(t, h.s.Begin())
	assert.True(t, h.s.Key(gesture.KeyDown))
	assert.False(t, h.s.Key(gesture.KeyUp), "still cooling down")

	h.clock.Advance(1100 * time.Millisecond)
	assert.True(t, h.s.Key(gesture.KeyUp))

	v = h.s.View()
	assert.Equal(t, round.PhasePlaying, v.Phase)
	assert.Equal(t, 1, v.Round.Correct)
	assert.Equal(t, 1, v.Round.Passed)
	assert.Equal(t, 50, v.Round.Accuracy)
	assert.Nil(t, v.BestScore, "best score only shows on results")

	h.clock.Advance(1100 * time.Millisecond)
	assert.True(t, h.s.Key(gesture.KeyDown))

	v = h.s.View()
	assert.Equal(t, round.PhaseResults, v.Phase, "exhausting the queue ends the round")
	assert.Equal(t, 2, v.Round.Correct)
	assert.True(t, v.NewBest)
	require.NotNil(t, v.BestScore)
	assert.Equal(t, 2, *v.BestScore)
	assert.False(t, h.s.Listening())

	h.cues.AssertNumberOfCalls(t, "PlayCorrect", 2)
	h.cues.AssertNumberOfCalls(t, "PlayPass", 1)

	// a worse round keeps the old best
	require.True(t, h.s.Replay())
	require.True(t, h.s.Begin())
	for range 3 {
		require.True(t, h.s.MarkPass())
	}

	v = h.s.View()
	assert.Equal(t, round.PhaseResults, v.Phase)
	assert.False(t, v.NewBest)
	require.NotNil(t, v.BestScore)
	assert.Equal(t, 2, *v.BestScore)

	score, ok := h.mem.Best(pack.ID, round.ModeHard)
	assert.True(t, ok)
	assert.Equal(t, 2, score)
}

func TestSession_SelectUnknownPack(t *testing.T) {
	h := newHarness(t)

	assert.False(t, h.s.Select("nope", round.ModeHard))
	assert.Equal(t, round.PhaseHome, h.s.View().Phase)
	assert.Equal(t, round.ModeNormal, h.s.Mode(), "mode unchanged")
}

func TestSession_SetMode(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.s.SetMode("frantic"), round.ErrUnknownMode)
	require.NoError(t, h.s.SetMode(round.ModeChill))

	require.True(t, h.s.Select("animals", ""))
	assert.Equal(t, 90, h.s.Snapshot().TimeRemaining)
	assert.Equal(t, round.ModeChill, h.s.View().Mode)
}

func TestSession_TimerExpiryRecordsBest(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.s.Select("animals", round.ModeHard))
	require.True(t, h.s.Begin())
	require.True(t, h.s.MarkCorrect())

	tk := h.ticks.last()
	require.NotNil(t, tk)
	for range round.ModeHard.Seconds() {
		tk.ch <- time.Now()
	}

	require.Eventually(t, func() bool {
		v := h.s.View()
		return v.Phase == round.PhaseResults && v.BestScore != nil
	}, time.Second, 5*time.Millisecond)

	assert.True(t, tk.stopped.Load())
	v := h.s.View()
	assert.True(t, v.NewBest)
	assert.Equal(t, 1, *v.BestScore)
	h.cues.AssertNumberOfCalls(t, "PlayCountdownBeep", 10)
}

func TestSession_SoundSetting(t *testing.T) {
	h := newHarness(t)

	h.s.SetSound(false)
	assert.False(t, h.s.View().SoundEnabled)
	assert.False(t, h.mem.LoadSettings().SoundEnabled)

	require.True(t, h.s.Select("food", round.ModeNormal))
	require.True(t, h.s.Begin())
	require.True(t, h.s.MarkCorrect())
	h.cues.AssertNotCalled(t, "PlayCorrect")

	h.s.SetSound(true)
	require.True(t, h.s.MarkPass())
	h.cues.AssertNumberOfCalls(t, "PlayPass", 1)
}

func TestSession_TiltNeedsPermission(t *testing.T) {
	cases := []struct {
		name    string
		caps    gesture.Capability
		granted bool
	}{
		{"ungated", gesture.Ungated{Available: true}, true},
		{"gated grant", gesture.Gated{Available: true, Prompt: func(context.Context) (bool, error) {
			return true, nil
		}}, true},
		{"gated refusal", gesture.Gated{Available: true, Prompt: func(context.Context) (bool, error) {
			return false, nil
		}}, false},
		{"gated failure", gesture.Gated{Available: true, Prompt: func(context.Context) (bool, error) {
			return false, errors.New("NotAllowedError")
		}}, false},
		{"gated panic", gesture.Gated{Available: true, Prompt: func(context.Context) (bool, error) {
			panic("no sensor")
		}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, WithCapability(tc.caps))

			assert.Equal(t, gesture.PermissionUnknown, h.s.View().Input.Permission)
			assert.Equal(t, tc.granted, h.s.RequestPermission(context.Background()))

			require.True(t, h.s.Select("animals", round.ModeNormal))
			require.True(t, h.s.Begin())
			assert.Equal(t, tc.granted, h.s.Listening())

			h.s.Tilt(gesture.Sample{Beta: 20})

			want := 0
			if tc.granted {
				want = 1
			}
			assert.Equal(t, want, h.s.Snapshot().Correct)

			// the keyboard works either way
			h.clock.Advance(gesture.Cooldown)
			assert.True(t, h.s.Key(gesture.KeyUp))

			h.s.GoHome()
			assert.False(t, h.s.Listening())
		})
	}
}

func TestSession_FlappingDoesNotLeak(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.s.RequestPermission(context.Background()))

	for range 25 {
		require.True(t, h.s.Select("places", round.ModeHard))
		require.True(t, h.s.Begin())
		assert.True(t, h.s.Listening())
		h.s.GoHome()
		assert.False(t, h.s.Listening())
	}

	for _, tk := range h.ticks.made {
		assert.True(t, tk.stopped.Load())
	}
	assert.Equal(t, 0, h.s.feed.Listeners())
}

func TestSession_PackNotices(t *testing.T) {
	h := newHarness(t)

	_, err := h.s.SavePack(context.Background(), cards.NewDraft())
	assert.ErrorIs(t, err, cards.ErrNameRequired)

	notices := h.s.Notices().List()
	require.Len(t, notices, 1)
	assert.Equal(t, "Pack name is required", notices[0].Message)
	assert.Equal(t, NoticeError, notices[0].Kind)

	pack := h.savePizza(t)
	notices = h.s.Notices().List()
	require.Len(t, notices, 2)
	assert.Equal(t, NoticeSuccess, notices[1].Kind)

	_, ok := cards.NewLibrary(h.mem).Find(pack.ID)
	assert.False(t, ok, "a fresh library has not loaded yet")
	require.NoError(t, h.s.Reload(context.Background()))

	assert.ErrorIs(t, h.s.DeletePack(context.Background(), "animals"), cards.ErrReadOnlyPack)
	require.NoError(t, h.s.DeletePack(context.Background(), pack.ID))

	h.clock.Advance(NoticeTTL)
	assert.Empty(t, h.s.Notices().List(), "notices dismiss themselves")
}

func TestSession_BrokenStoreKeepsPlaying(t *testing.T) {
	var broken brokenStore
	clock := newFakeClock()
	s := New(cards.NewLibrary(broken), broken, broken, WithClock(clock), WithShuffle(identity), WithTicker((&tickers{}).New))
	t.Cleanup(s.Close)

	assert.ErrorIs(t, s.Reload(context.Background()), errDisk)

	d := cards.NewDraft()
	d.Name = "Broken"
	require.NoError(t, d.AddCard("Thing"))
	_, err := s.SavePack(context.Background(), d)
	assert.ErrorIs(t, err, errDisk)

	var messages []string
	for _, n := range s.Notices().List() {
		messages = append(messages, n.Message)
	}
	assert.Equal(t, []string{"Failed to load custom packs", "Failed to save pack"}, messages)

	require.True(t, s.Select("animals", round.ModeNormal))
	require.True(t, s.Begin())
	require.True(t, s.MarkCorrect())
	assert.True(t, s.End())

	v := s.View()
	assert.Equal(t, round.PhaseResults, v.Phase)
	assert.False(t, v.NewBest)
	assert.Nil(t, v.BestScore)
	assert.True(t, v.SoundEnabled)
}

func TestSession_Subscribe(t *testing.T) {
	h := newHarness(t)

	var (
		mu     sync.Mutex
		phases []round.Phase
	)
	unsub := h.s.Subscribe(func(v View) {
		mu.Lock()
		defer mu.Unlock()
		phases = append(phases, v.Phase)
	})

	require.True(t, h.s.Select("animals", round.ModeNormal))
	require.True(t, h.s.Begin())
	unsub()
	h.s.GoHome()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []round.Phase{round.PhaseReady, round.PhasePlaying}, phases)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.s.Select("animals", round.ModeNormal))
	require.True(t, h.s.Begin())

	h.s.Close()
	h.s.Close()

	assert.Equal(t, round.PhaseHome, h.s.Snapshot().Phase)
	assert.False(t, h.s.Listening())
}
