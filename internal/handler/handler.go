package handler

import (
	"context"
	"sync"

	"clicker/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// LeaderboardService is the ranking engine as seen by the bot
type LeaderboardService interface {
	SubmitScore(ctx context.Context, playerName string, score int64, country string) (*domain.LeaderboardEntry, error)
	GlobalLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	CountryLeaderboard(ctx context.Context, country string, limit int) ([]domain.LeaderboardEntry, error)
	TotalScore(ctx context.Context) (int64, error)
}

// botLeaderboardLimit is how many rows /top shows
const botLeaderboardLimit = 10

// Handler manages all bot interactions
type Handler struct {
	bot         *tele.Bot
	leaderboard LeaderboardService
	logger      *zap.Logger

	// Click sessions, one per Telegram user
	sessions   map[int64]*domain.ClickState
	sessionMux sync.Mutex

	// Per-user locks serializing button presses
	callbackLocks map[int64]*sync.Mutex
	callbackMux   sync.Mutex
}

// NewHandler creates a new handler instance
func NewHandler(bot *tele.Bot, leaderboard LeaderboardService, logger *zap.Logger) *Handler {
	return &Handler{
		bot:           bot,
		leaderboard:   leaderboard,
		logger:        logger,
		sessions:      make(map[int64]*domain.ClickState),
		callbackLocks: make(map[int64]*sync.Mutex),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/top", h.handleTop)
	h.bot.Handle("/total", h.handleTotal)

	// Callback queries (inline buttons)
	h.bot.Handle(&btnHare, h.handleClick)
	h.bot.Handle(&btnKrishna, h.handleClick)
	h.bot.Handle(&btnSubmit, h.handleSubmit)
	h.bot.Handle(&btnTop, h.handleTop)

	// Generic callback handler for buttons whose Unique did not come through
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// session returns the user's click session, creating it on first use
func (h *Handler) session(userID int64) *domain.ClickState {
	h.sessionMux.Lock()
	defer h.sessionMux.Unlock()

	state, exists := h.sessions[userID]
	if !exists {
		state = domain.NewClickState()
		h.sessions[userID] = state
	}
	return state
}

// resetSession starts a new round for the user
func (h *Handler) resetSession(userID int64) *domain.ClickState {
	h.sessionMux.Lock()
	defer h.sessionMux.Unlock()

	state := domain.NewClickState()
	h.sessions[userID] = state
	return state
}

// userLock returns the mutex serializing userID's button presses
func (h *Handler) userLock(userID int64) *sync.Mutex {
	h.callbackMux.Lock()
	defer h.callbackMux.Unlock()

	lock, exists := h.callbackLocks[userID]
	if !exists {
		lock = &sync.Mutex{}
		h.callbackLocks[userID] = lock
	}
	return lock
}

// Inline keyboard buttons
var (
	btnHare = tele.Btn{
		Unique: "hare",
		Text:   "Hare",
	}
	btnKrishna = tele.Btn{
		Unique: "krishna",
		Text:   "Krishna",
	}
	btnSubmit = tele.Btn{
		Unique: "submit",
		Text:   "📤 Submit",
	}
	btnTop = tele.Btn{
		Unique: "top",
		Text:   "🏆 Top",
	}
)

// gameMarkup returns the game keyboard
func gameMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnHare, btnKrishna),
		menu.Row(btnSubmit, btnTop),
	)
	return menu
}
