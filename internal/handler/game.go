package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clicker/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("User started game",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	state := h.resetSession(userID)
	return c.Send(gameText(state, nil), gameMarkup())
}

// handleClick applies a Hare or Krishna press to the user's session
func (h *Handler) handleClick(c tele.Context) error {
	userID := c.Sender().ID

	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	symbol, ok := callbackSymbol(c.Callback())
	if !ok {
		return c.Respond()
	}

	state := h.session(userID)
	res := state.Click(symbol)

	return h.editGame(c, userID, gameText(state, &res))
}

// handleSubmit sends the session score to the leaderboard and starts a new round
func (h *Handler) handleSubmit(c tele.Context) error {
	userID := c.Sender().ID

	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	state := h.session(userID)
	if state.Score == 0 {
		return c.Respond(&tele.CallbackResponse{Text: "Complete at least one Hare Krishna pair first"})
	}

	name := playerName(c.Sender())
	entry, err := h.leaderboard.SubmitScore(context.Background(), name, state.Score, "")
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.Respond(&tele.CallbackResponse{
			Text:      "Your Telegram name can't be used on the leaderboard",
			ShowAlert: true,
		})
	}
	if err != nil {
		return fmt.Errorf("submit score: %w", err)
	}

	h.logger.Info("Bot score submitted",
		zap.Int64("user_id", userID),
		zap.String("player", name),
		zap.Int64("score", state.Score),
		zap.Int64("best", entry.Score),
	)

	submitted := state.Score
	next := h.resetSession(userID)
	text := submitText(submitted, entry) + "\n\n" + gameText(next, nil)
	return h.editGame(c, userID, text)
}

// editGame redraws the game message in place
func (h *Handler) editGame(c tele.Context, userID int64, text string) error {
	if c.Callback() == nil {
		return c.Send(text, gameMarkup())
	}

	if err := c.Edit(text, gameMarkup()); err != nil {
		if handleErr := h.handleEditError(err, c, userID); handleErr == nil {
			return nil // Message was already modified, just acknowledged
		}
		return c.Send(text, gameMarkup())
	}
	return c.Respond()
}

// callbackSymbol maps the pressed button to a click symbol
func callbackSymbol(cb *tele.Callback) (domain.Symbol, bool) {
	if cb == nil {
		return domain.NoSymbol, false
	}

	key := cb.Unique
	if key == "" {
		key = cleanCallbackData(cb.Data)
	}
	s, err := domain.ParseSymbol(key)
	if err != nil {
		return domain.NoSymbol, false
	}
	return s, true
}

// playerName picks the leaderboard name for a Telegram user
func playerName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	if name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName)); name != "" {
		return name
	}
	return fmt.Sprintf("tg%d", u.ID)
}

func gameText(state *domain.ClickState, res *domain.ClickResult) string {
	var b strings.Builder

	b.WriteString("🙏 Hare Krishna\n\n")
	if res != nil {
		switch {
		case res.MalaCompleted:
			b.WriteString("📿 Mala completed!\n\n")
		case !res.Correct:
			b.WriteString("❌ Out of order\n\n")
		}
	}
	fmt.Fprintf(&b, "Score: %d\n", state.Score)
	fmt.Fprintf(&b, "Malas: %d\n", state.MalaCount())
	fmt.Fprintf(&b, "Next: %s", buttonLabel(state.Expecting))

	return b.String()
}

func submitText(submitted int64, entry *domain.LeaderboardEntry) string {
	if entry.Score > submitted {
		return fmt.Sprintf("📤 Submitted %d. Your best stays %d.", submitted, entry.Score)
	}
	return fmt.Sprintf("📤 Submitted %d. New best!", submitted)
}

func buttonLabel(s domain.Symbol) string {
	if s == domain.Krishna {
		return btnKrishna.Text
	}
	return btnHare.Text
}
