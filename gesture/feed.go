/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gesture

import "sync"

// Source is an orientation event stream. Implementations must not call
// handlers from inside Subscribe or the returned cancel function.
type Source interface {
	Subscribe(fn func(Sample)) (cancel func())
}

// Feed is an in-process Source; transports push readings into it.
type Feed struct {
	mu   sync.Mutex
	subs map[int]func(Sample)
	next int
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[int]func(Sample))}
}

func (f *Feed) Subscribe(fn func(Sample)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	f.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()

			delete(f.subs, id)
		})
	}
}

// Publish hands s to every current listener. Listeners run outside the
// feed's lock.
func (f *Feed) Publish(s Sample) {
	f.mu.Lock()
	subs := make([]func(Sample), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Listeners counts active subscriptions.
func (f *Feed) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.subs)
}
