package api

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 320 // mobile-friendly size

type countryResponse struct {
	Country string `json:"country"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) country(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, countryResponse{Country: s.geo.Country(r.Context(), clientIP(r))})
}

// shareQR renders a PNG QR code pointing at the game, optionally tagged with a player
func (s *Server) shareQR(w http.ResponseWriter, r *http.Request) {
	link := strings.TrimRight(s.publicURL, "/") + "/"
	if player := strings.TrimSpace(r.URL.Query().Get("player")); player != "" {
		link += "?player=" + url.QueryEscape(player)
	}

	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		s.logger.Error("QR generation failed", zap.String("link", link), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}

// clientIP prefers proxy headers over the socket address
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if net.ParseIP(first) != nil {
			host = first
		}
	}
	return host
}
