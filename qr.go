package main

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// qrHandler generates a PNG QR code pointing at the join URL for a live
// room, for passing a phone around the table.
func qrHandler(cfg *Config, dir *directory) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := strings.ToUpper(ps.ByName("roomcode"))

		if _, exists := dir.lookup(code); !exists {
			http.Error(w, "room not found", http.StatusNotFound)
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

		url := scheme + "://" + r.Host + cfg.prefix + "/impostor?join=" + code

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// registerImpostorGame sets up routes so that:
//   - $path/ws              → the game WebSocket (all commands as JSON)
//   - $path/qr/:roomcode    → PNG QR code linking to a live room
func registerImpostorGame(cfg *Config, path string, mux *httprouter.Router) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	dir := newDirectory(cfg, cat)

	mux.GET(cfg.prefix+path+"/ws", serveWS(cfg, dir))

	mux.GET(cfg.prefix+path+"/qr/:roomcode", qrHandler(cfg, dir))

	return nil
}
