/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, m *Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("session")
		if id == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		hub := m.getHub(id)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.logger.Debug().Err(err).Str("session", id).Msg("websocket upgrade failed")
			return
		}

		client := newClient(cfg, conn)

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		logf(cfg, "GAMES: Device %s joined session %s", realIP(r), id)

		go client.writePump()
		client.readPump(hub)
	}
}

func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("session") == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// Strip the trailing "/qr" to get the session URL.
		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		securityHeaders(cfg, w)

		_, _ = w.Write(png)
	}
}

func serveSessionPage(cfg *Config, page []byte) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_, _ = w.Write(page)
	}
}

// redirectNewSession handles GET /path by generating a new random session
// ID and redirecting to /path/:session.
func redirectNewSession(cfg *Config, path string, m *Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		id := m.newSessionID()
		logf(cfg, "GAMES: Created session %s%s/%s", cfg.prefix, path, id)
		http.Redirect(w, r, cfg.prefix+path+"/"+id, http.StatusTemporaryRedirect)
	}
}

// registerPlay sets up routes so that:
//   - $path             → redirects to a new random session (8-char ID)
//   - $path/:session    → phone client
//   - $path/:session/ws → WebSocket for that session
//   - $path/:session/qr → PNG QR code for that session URL
//
// The returned manager must be closed on shutdown.
func registerPlay(ctx context.Context, cfg *Config, svc *services, path string, mux *httprouter.Router, errs chan<- error) (*Manager, error) {
	m := newManager(ctx, cfg, svc)

	index, err := assets.ReadFile("play/index.html")
	if err != nil {
		return nil, err
	}
	page := bytes.ReplaceAll(index, []byte("{{prefix}}"), []byte(cfg.prefix))

	mux.GET(cfg.prefix+path, redirectNewSession(cfg, path, m))
	mux.GET(cfg.prefix+path+"/:session", serveSessionPage(cfg, page))
	mux.GET(cfg.prefix+path+"/:session/ws", serveWS(cfg, m))
	mux.GET(cfg.prefix+path+"/:session/qr", qrHandler(cfg))

	mux.GET(cfg.prefix+"/assets/play/:file", serveAssets(cfg, errs))

	return m, nil
}

