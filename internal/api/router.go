// Package api exposes the leaderboard and account services over HTTP.
package api

import (
	"context"
	"net/http"

	"clicker/internal/domain"
	"clicker/internal/geo"
	"clicker/internal/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// LeaderboardService is the ranking engine as seen by the HTTP layer
type LeaderboardService interface {
	SubmitScore(ctx context.Context, playerName string, score int64, country string) (*domain.LeaderboardEntry, error)
	GlobalLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	CountryLeaderboard(ctx context.Context, country string, limit int) ([]domain.LeaderboardEntry, error)
	TotalScore(ctx context.Context) (int64, error)
}

// AuthService is the account collaborator as seen by the HTTP layer
type AuthService interface {
	CreateAccount(ctx context.Context, username, email string) (*domain.EmailToken, error)
	VerifyToken(ctx context.Context, token string) (*domain.EmailToken, error)
	SetPassword(ctx context.Context, token, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// Deps holds everything the router needs
type Deps struct {
	Leaderboard LeaderboardService
	Auth        AuthService
	Geo         geo.Resolver
	// Live serves the websocket score feed; nil disables the route
	Live      http.Handler
	JWTSecret []byte
	PublicURL string
	Logger    *zap.Logger
}

// Server holds the HTTP handlers
type Server struct {
	leaderboard LeaderboardService
	auth        AuthService
	geo         geo.Resolver
	publicURL   string
	logger      *zap.Logger
}

// NewRouter builds the HTTP routing table
func NewRouter(d Deps) http.Handler {
	s := &Server{
		leaderboard: d.Leaderboard,
		auth:        d.Auth,
		geo:         d.Geo,
		publicURL:   d.PublicURL,
		logger:      d.Logger,
	}

	r := mux.NewRouter()
	r.Use(middleware.Recoverer(d.Logger))
	r.Use(middleware.RequestLogger(d.Logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Leaderboard
	api.HandleFunc("/leaderboard", s.submitScore).Methods(http.MethodPost)
	api.HandleFunc("/leaderboard", s.globalLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/total", s.totalScore).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/country/{country}", s.countryLeaderboard).Methods(http.MethodGet)
	if d.Live != nil {
		api.Handle("/leaderboard/live", d.Live).Methods(http.MethodGet)
	}

	// Auth
	api.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify", s.verify).Methods(http.MethodGet)
	api.HandleFunc("/auth/password", s.setPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)

	authenticated := api.PathPrefix("/auth").Subrouter()
	authenticated.Use(middleware.RequireAuth(d.JWTSecret, d.Logger))
	authenticated.HandleFunc("/me", s.me).Methods(http.MethodGet)

	// Misc
	api.HandleFunc("/geo", s.country).Methods(http.MethodGet)
	api.HandleFunc("/share/qr", s.shareQR).Methods(http.MethodGet)

	return r
}
