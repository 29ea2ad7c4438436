/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Têtê web sessions
//
// Every session is one phone held to one forehead. The phone renders the
// screens and reports tilt and key presses; the server owns the round.
//
// Features:
// - WebSockets per session ID: /play/:session and /play/:session/ws
// - A newer connection to a session replaces the older one
// - Orientation samples are rate limited per connection
// - Sessions auto-reaped after configurable idle timeout
// - Random 8-char session IDs via crypto/rand, with server-side collision check
// - QR code of the session URL, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Seednode/tete/audio"
	"github.com/Seednode/tete/gesture"
	"github.com/Seednode/tete/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
	sendBuffer     = 32
)

type Client struct {
	conn    *websocket.Conn
	send    chan any
	limiter *rate.Limiter
}

func newClient(cfg *Config, conn *websocket.Conn) *Client {
	return &Client{
		conn:    conn,
		send:    make(chan any, sendBuffer),
		limiter: rate.NewLimiter(rate.Limit(cfg.maxMessages), cfg.maxMessages),
	}
}

type inbound struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id  string
	cfg *Config
	svc *services
	ctx context.Context

	register chan *Client
	unreg    chan *Client
	inbox    chan inbound
	done     chan struct{}
	once     sync.Once

	mu         sync.RWMutex
	client     *Client
	sess       *session.Session
	unsub      func()
	createdAt  time.Time
	lastActive time.Time

	// the phone's answer to its own permission prompt; only run touches it
	granted bool
	denial  error
}

func newHub(ctx context.Context, cfg *Config, svc *services, id string) *Hub {
	now := time.Now()
	return &Hub{
		id:         id,
		cfg:        cfg,
		svc:        svc,
		ctx:        ctx,
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		inbox:      make(chan inbound, 16),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()

			if old := h.client; old != nil {
				select {
				case old.send <- SimpleMessage{Type: "replaced", Message: "This game was opened on another device."}:
				default:
				}
				close(old.send)
			}
			h.client = c
			sess := h.sess
			h.mu.Unlock()

			logf(h.cfg, "GAMES: Device connected to session %s", h.id)

			if sess != nil {
				h.push(StateMessage{Type: "state", View: sess.View()})
			}

		case c := <-h.unreg:
			h.mu.Lock()
			if h.client == c {
				close(c.send)
				h.client = nil
			}
			h.mu.Unlock()

		case in := <-h.inbox:
			h.handleMessage(in)
		}
	}
}

// push queues msg for the current device. A device too slow to keep up
// misses messages rather than stalling the round.
func (h *Hub) push(msg any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.client == nil {
		return
	}

	select {
	case h.client.send <- msg:
	default:
		h.cfg.logger.Debug().Str("session", h.id).Msg("dropped message for slow device")
	}
}

func (h *Hub) session() *session.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.sess
}

// start creates the session on the first hello, once the phone has said
// how it exposes orientation.
func (h *Hub) start(msg ClientMessage) *session.Session {
	if sess := h.session(); sess != nil {
		return sess
	}

	var caps gesture.Capability = gesture.Ungated{Available: msg.Supported}
	if msg.Gated {
		caps = gesture.Gated{
			Available: msg.Supported,
			Prompt: func(context.Context) (bool, error) {
				return h.granted, h.denial
			},
		}
	}

	sess := session.New(h.svc.library, h.svc.scores, h.svc.prefs,
		session.WithCapability(caps),
		session.WithCues(phoneCues{h}),
		session.WithHaptics(phoneHaptics{h}),
		session.WithMode(h.cfg.defaultMode),
		session.WithLogger(h.cfg.logger.With().Str("session", h.id).Logger()),
	)
	unsub := sess.Subscribe(func(v session.View) {
		h.push(StateMessage{Type: "state", View: v})
	})

	h.mu.Lock()
	h.sess, h.unsub = sess, unsub
	h.mu.Unlock()

	logf(h.cfg, "GAMES: Started session %s (orientation supported: %t, gated: %t)", h.id, msg.Supported, msg.Gated)

	return sess
}

func (h *Hub) handleMessage(in inbound) {
	h.mu.Lock()
	current := h.client == in.client
	if current {
		h.lastActive = time.Now()
	}
	h.mu.Unlock()

	if !current {
		return
	}

	msg := in.msg

	if msg.Type == "hello" {
		sess := h.start(msg)
		h.push(StateMessage{Type: "state", View: sess.View()})
		return
	}

	sess := h.session()
	if sess == nil {
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, timeout)
	defer cancel()

	switch msg.Type {
	case "select":
		sess.Select(msg.Pack, msg.Mode)
	case "mode":
		_ = sess.SetMode(msg.Mode)
	case "begin":
		sess.Begin()
	case "cancel", "home":
		sess.GoHome()
	case "replay":
		sess.Replay()
	case "end":
		sess.End()
	case "orientation":
		sess.Tilt(gesture.Sample{Beta: msg.Beta, Gamma: msg.Gamma})
	case "key":
		sess.Key(gesture.ParseKey(msg.Key))
	case "permission":
		h.granted, h.denial = msg.Granted, nil
		if msg.Error != "" {
			h.denial = permissionError(msg.Error)
		}
		sess.RequestPermission(ctx)
	case "sound":
		sess.SetSound(msg.Enabled)
	case "save_pack":
		if msg.Draft != nil {
			_, _ = sess.SavePack(ctx, msg.Draft)
		}
	case "delete_pack":
		_ = sess.DeletePack(ctx, msg.ID)
	case "dismiss":
		sess.Notices().Dismiss(msg.ID)
	default:
		// ignore unknown types
	}
}

// closeAll ends the round, releasing its timer and listener, and hangs
// up on the device.
func (h *Hub) closeAll() {
	h.once.Do(func() {
		close(h.done)

		h.mu.Lock()
		if c := h.client; c != nil {
			select {
			case c.send <- SimpleMessage{Type: "closed", Message: "This game has ended."}:
			default:
			}
			close(c.send)
			h.client = nil
		}
		sess, unsub := h.sess, h.unsub
		h.mu.Unlock()

		if sess != nil {
			unsub()
			sess.Close()
		}
	})
}

type permissionError string

func (e permissionError) Error() string {
	return "orientation permission: " + string(e)
}

type phoneCues struct {
	h *Hub
}

func (p phoneCues) PlayCorrect() {
	p.h.push(CueMessage{Type: "cue", Cue: audio.CueCorrect})
}

func (p phoneCues) PlayPass() {
	p.h.push(CueMessage{Type: "cue", Cue: audio.CuePass})
}

func (p phoneCues) PlayCountdownBeep() {
	p.h.push(CueMessage{Type: "cue", Cue: audio.CueCountdown})
}

type phoneHaptics struct {
	h *Hub
}

func (p phoneHaptics) Vibrate(pattern ...time.Duration) {
	p.h.push(vibration(pattern))
}

// Manager holds a set of hubs keyed by session ID.
type Manager struct {
	cfg *Config
	svc *services
	ctx context.Context

	mu   sync.Mutex
	hubs map[string]*Hub
}

func newManager(ctx context.Context, cfg *Config, svc *services) *Manager {
	m := &Manager{
		cfg:  cfg,
		svc:  svc,
		ctx:  ctx,
		hubs: make(map[string]*Hub),
	}
	if cfg.sessionTimeout > 0 {
		go m.reaperLoop()
	}
	return m
}

func (m *Manager) getHub(id string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[id]; ok {
		return hub
	}

	hub := newHub(m.ctx, m.cfg, m.svc, id)
	m.hubs[id] = hub
	go hub.run()
	return hub
}

// newSessionID generates a crypto-random session ID and ensures it doesn't
// collide with existing sessions.
func (m *Manager) newSessionID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		m.mu.Lock()
		_, exists := m.hubs[id]
		m.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// Len counts live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.hubs)
}

// idleFor reports how long since the session last heard from its device.
func (h *Hub) idleFor(now time.Time) time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return now.Sub(h.lastActive)
}

// reap removes hubs that have been idle longer than the session timeout.
func (m *Manager) reap(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, hub := range m.hubs {
		if hub.idleFor(now) <= m.cfg.sessionTimeout {
			continue
		}

		delete(m.hubs, id)
		go hub.closeAll()

		logf(m.cfg, "GAMES: Reaped idle session %s after %s", id, now.Sub(hub.createdAt).Round(time.Second))
	}
}

func (m *Manager) reaperLoop() {
	ticker := time.NewTicker(m.cfg.sessionTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.reap(time.Now())
		}
	}
}

// closeAll ends every session, for shutdown.
func (m *Manager) closeAll() {
	m.mu.Lock()
	hubs := m.hubs
	m.hubs = make(map[string]*Hub)
	m.mu.Unlock()

	for _, hub := range hubs {
		hub.closeAll()
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if msg.Type == "orientation" && !c.limiter.Allow() {
			continue
		}

		select {
		case h.inbox <- inbound{client: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
