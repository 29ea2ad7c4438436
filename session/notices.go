/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"strconv"
	"sync"
	"time"

	"github.com/Seednode/tete/gesture"
)

// NoticeTTL is how long a toast stays up.
const NoticeTTL = 4 * time.Second

type NoticeKind string

const (
	NoticeError   NoticeKind = "error"
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a transient message for the player.
type Notice struct {
	ID      string     `json:"id"`
	Message string     `json:"message"`
	Kind    NoticeKind `json:"type"`
}

// Notices is the toast queue. Every notice dismisses itself after
// NoticeTTL unless dismissed earlier.
type Notices struct {
	mu      sync.Mutex
	clock   gesture.Clock
	list    []Notice
	timers  map[string]gesture.Stopper
	counter int
	closed  bool

	onChange func()
}

func newNotices(clock gesture.Clock, onChange func()) *Notices {
	return &Notices{
		clock:    clock,
		timers:   make(map[string]gesture.Stopper),
		onChange: onChange,
	}
}

// Push adds a notice and returns it. Kind defaults to error.
func (n *Notices) Push(message string, kind NoticeKind) Notice {
	if kind == "" {
		kind = NoticeError
	}

	n.mu.Lock()
	n.counter++
	notice := Notice{ID: strconv.Itoa(n.counter), Message: message, Kind: kind}

	if n.closed {
		n.mu.Unlock()
		return notice
	}

	n.list = append(n.list, notice)
	n.timers[notice.ID] = n.clock.AfterFunc(NoticeTTL, func() {
		n.Dismiss(notice.ID)
	})
	n.mu.Unlock()

	n.changed()

	return notice
}

// Dismiss removes a notice; unknown ids are ignored.
func (n *Notices) Dismiss(id string) {
	n.mu.Lock()
	found := false
	for i, notice := range n.list {
		if notice.ID == id {
			n.list = append(n.list[:i], n.list[i+1:]...)
			found = true
			break
		}
	}
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	n.mu.Unlock()

	if found {
		n.changed()
	}
}

// List returns the notices currently showing, oldest first.
func (n *Notices) List() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]Notice(nil), n.list...)
}

func (n *Notices) close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.list = nil
}

func (n *Notices) changed() {
	if n.onChange != nil {
		n.onChange()
	}
}
