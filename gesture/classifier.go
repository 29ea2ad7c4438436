/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package gesture turns device tilt and arrow keys into debounced
// "correct" and "pass" intents.
package gesture

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// State is what the presentation layer shows about the input.
type State struct {
	Supported     bool       `json:"isSupported"`
	Permission    Permission `json:"hasPermission"`
	CurrentAction Action     `json:"currentAction"`
	Beta          float64    `json:"beta"`
	Gamma         float64    `json:"gamma"`
}

// Classifier feeds orientation samples and key presses through one shared
// cooldown. Orientation is listened to only while the classifier is
// enabled and permission has been granted.
type Classifier struct {
	mu sync.Mutex

	caps   Capability
	source Source
	clock  Clock
	log    zerolog.Logger

	onCorrect func()
	onPass    func()
	onChange  func(State)

	state   State
	mem     Memory
	enabled bool

	cancel   func()
	listenID uint64
	reset    Stopper
	resetID  uint64
}

// Option configures a Classifier.
type Option func(*Classifier)

func WithClock(clock Clock) Option {
	return func(c *Classifier) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Classifier) {
		c.log = log
	}
}

// OnCorrect is called, outside any lock, each time a correct intent fires.
func OnCorrect(fn func()) Option {
	return func(c *Classifier) {
		c.onCorrect = fn
	}
}

// OnPass is called, outside any lock, each time a pass intent fires.
func OnPass(fn func()) Option {
	return func(c *Classifier) {
		c.onPass = fn
	}
}

// OnChange is called after samples, key presses, indicator resets and
// permission changes. It is not called from SetEnabled.
func OnChange(fn func(State)) Option {
	return func(c *Classifier) {
		c.onChange = fn
	}
}

// New builds a classifier. A nil source means keyboard only. The platform
// capability is checked once, here.
func New(caps Capability, source Source, opts ...Option) *Classifier {
	if caps == nil {
		caps = Ungated{}
	}

	c := &Classifier{
		caps:   caps,
		source: source,
		clock:  wallClock{},
		log:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.state.Supported = caps.Supported()

	return c
}

// State returns a copy of the current input state.
func (c *Classifier) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Listening reports whether an orientation listener is registered.
func (c *Classifier) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cancel != nil
}

// RequestPermission asks the platform for orientation access and records
// the answer. Errors and panics from the platform count as a denial.
func (c *Classifier) RequestPermission(ctx context.Context) bool {
	granted, err := c.ask(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("orientation permission denied")
		granted = false
	}

	c.mu.Lock()
	if granted {
		c.state.Permission = PermissionGranted
	} else {
		c.state.Permission = PermissionDenied
	}
	c.reconcileLocked()
	st, notify := c.state, c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify(st)
	}

	return granted
}

func (c *Classifier) ask(ctx context.Context) (granted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			granted, err = false, fmt.Errorf("permission request panicked: %v", r)
		}
	}()

	return c.caps.RequestPermission(ctx)
}

// SetEnabled turns input handling on or off. Turning it off removes the
// orientation listener and cancels a pending indicator reset before it
// returns. It may be called while other locks are held.
func (c *Classifier) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled == enabled {
		return
	}
	c.enabled = enabled

	if !enabled {
		if c.reset != nil {
			c.reset.Stop()
			c.reset = nil
		}
		c.state.CurrentAction = ActionNone
		c.mem.LastAction = ActionNone
	}

	c.reconcileLocked()
}

// Enabled reports whether input is being handled.
func (c *Classifier) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.enabled
}

// Close disables the classifier and releases its listener.
func (c *Classifier) Close() {
	c.SetEnabled(false)
}

// reconcileLocked registers or removes the orientation listener so that it
// exists exactly when enabled with permission granted.
func (c *Classifier) reconcileLocked() {
	want := c.enabled && c.state.Permission == PermissionGranted && c.source != nil

	switch {
	case want && c.cancel == nil:
		c.listenID++
		id := c.listenID
		c.cancel = c.source.Subscribe(func(s Sample) {
			c.handleSample(id, s)
		})
	case !want && c.cancel != nil:
		c.cancel()
		c.cancel = nil
		c.listenID++
	}
}

// HandleSample classifies one reading directly, bypassing the source. It
// is ignored unless the listener would be active.
func (c *Classifier) HandleSample(s Sample) bool {
	c.mu.Lock()
	id := c.listenID
	c.mu.Unlock()

	return c.handleSample(id, s)
}

func (c *Classifier) handleSample(id uint64, s Sample) bool {
	c.mu.Lock()
	if id != c.listenID || c.cancel == nil {
		c.mu.Unlock()
		return false
	}

	action, fire, next := Step(s.Beta, c.mem, c.clock.Now())
	c.mem = next
	c.state.Beta = s.Beta
	c.state.Gamma = s.Gamma
	c.state.CurrentAction = action

	callback := c.callbackLocked(action, fire)
	st, notify := c.state, c.onChange
	c.mu.Unlock()

	if callback != nil {
		callback()
	}
	if notify != nil {
		notify(st)
	}

	return fire
}

// HandleKey applies a key press. The indicator shows the action for
// IndicatorReset, then clears on its own.
func (c *Classifier) HandleKey(key Key) bool {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return false
	}

	action, fire, next := Press(key, c.mem, c.clock.Now())
	if !fire {
		c.mu.Unlock()
		return false
	}

	c.mem = next
	c.state.CurrentAction = action

	if c.reset != nil {
		c.reset.Stop()
	}
	c.resetID++
	id := c.resetID
	c.reset = c.clock.AfterFunc(IndicatorReset, func() {
		c.clearIndicator(id)
	})

	callback := c.callbackLocked(action, true)
	st, notify := c.state, c.onChange
	c.mu.Unlock()

	if callback != nil {
		callback()
	}
	if notify != nil {
		notify(st)
	}

	return true
}

func (c *Classifier) clearIndicator(id uint64) {
	c.mu.Lock()
	if c.reset == nil || c.resetID != id {
		c.mu.Unlock()
		return
	}

	c.reset = nil
	c.state.CurrentAction = ActionNone
	c.mem.LastAction = ActionNone
	st, notify := c.state, c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify(st)
	}
}

func (c *Classifier) callbackLocked(action Action, fire bool) func() {
	if !fire {
		return nil
	}

	switch action {
	case ActionCorrect:
		return c.onCorrect
	case ActionPass:
		return c.onPass
	}

	return nil
}
