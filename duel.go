// Gridduel
//
// Two players share a room code, then race through ten rounds of spotting
// the target symbol in a 3x3 grid. Each player moves through their own
// rounds at their own pace; the duel ends once both have cleared round ten,
// and the loser can demand a rematch.
//
// Features:
// - Room codes chosen by the first player, or generated via /duel redirect
// - WebSocket per room page: /duel/:roomcode and /duel/:roomcode/ws
// - Start authority belongs to the first seat only
// - Correctness is judged client-side and reported as a boolean
// - Independent per-player round counters, merged into a single game_over
// - Unanimous rematch voting
// - In-browser QR button to share the current room, backed by go-qrcode

package main

import (
	"crypto/rand"
	_ "embed"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
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

// newRoomCode generates a crypto-random room code that is not in use by any
// live room. Ambiguous characters are excluded.
func newRoomCode(reg *Registry) string {
	const letters = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	for {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 4)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		code := string(out)

		if !reg.Exists(code) {
			return code
		}
	}
}

// WebSocket handler; the room itself is entered via a join_room message,
// so the :roomcode here is only used for connection logging.
func serveWSForRegistry(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 8),
			id:   uuid.NewString(),
		}

		logf(cfg, "DUEL: Connection %s to %s from %s", client.id, ps.ByName("roomcode"), realIP(r))

		go client.writePump()
		client.readPump(cfg, reg)
	}
}

// QR handler: generates a PNG QR code for the current room URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomCode := ps.ByName("roomcode")
	if roomCode == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:roomcode/qr; strip trailing "/qr" to get the room URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// ---- Static file paths ----

//go:embed duel/index.html
var indexHTML []byte

//go:embed duel/app.css
var duelCSS []byte

//go:embed duel/app.js
var duelJS []byte

func getIndexHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(indexHTML)
	}
}

func getCssHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(duelCSS)
	}
}

func getJsHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(duelJS)
	}
}

// redirectNewDuel handles GET /path by generating a fresh random room code
// and redirecting to /path/:roomcode.
func redirectNewDuel(cfg *Config, path string, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		roomCode := newRoomCode(reg)
		logf(cfg, "DUEL: Suggested room %s/%s", path, roomCode)
		http.Redirect(w, r, cfg.prefix+path+"/"+roomCode, http.StatusTemporaryRedirect)
	}
}

// registerDuelGame sets up routes so that:
//   - $path                  → redirects to a fresh random room code
//   - $path/:roomcode        → HTML client
//   - $path/:roomcode/ws     → WebSocket for that room
//   - $path/:roomcode/qr     → PNG QR code for that room URL
func registerDuelGame(cfg *Config, path string, mux *httprouter.Router) {
	reg := newRegistry()

	// Root path → redirect to a fresh room
	mux.GET(cfg.prefix+path, redirectNewDuel(cfg, path, reg))

	// Per-room client view (HTML)
	mux.GET(cfg.prefix+path+"/:roomcode", getIndexHandler(cfg))

	// Shared assets (no room code in route)
	mux.GET(cfg.prefix+"/assets/duel/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/duel/app.js", getJsHandler(cfg))

	// Per-room websocket
	mux.GET(cfg.prefix+path+"/:roomcode/ws", serveWSForRegistry(cfg, reg))

	// Per-room QR code
	mux.GET(cfg.prefix+path+"/:roomcode/qr", qrHandler)
}
