package api

import (
	"net/http"
	"strconv"

	"clicker/internal/domain"

	"github.com/gorilla/mux"
)

type submitScoreRequest struct {
	PlayerName string `json:"playerName"`
	Score      *int64 `json:"score"`
	Country    string `json:"country"`
}

func (s *Server) submitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "body", "must be a JSON object with playerName, score and optional country")
		return
	}
	if req.Score == nil {
		badRequest(w, "score", "is required")
		return
	}

	entry, err := s.leaderboard.SubmitScore(r.Context(), req.PlayerName, *req.Score, req.Country)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// parseLimit reads ?limit=; absent means zero, which the service turns into its default
func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, false
	}
	return limit, true
}

func (s *Server) globalLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		badRequest(w, "limit", "must be a non-negative integer")
		return
	}

	entries, err := s.leaderboard.GlobalLeaderboard(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) countryLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		badRequest(w, "limit", "must be a non-negative integer")
		return
	}

	entries, err := s.leaderboard.CountryLeaderboard(r.Context(), mux.Vars(r)["country"], limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) totalScore(w http.ResponseWriter, r *http.Request) {
	total, err := s.leaderboard.TotalScore(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.TotalScore{TotalScore: total})
}
