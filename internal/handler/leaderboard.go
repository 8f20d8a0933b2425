package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clicker/internal/domain"

	tele "gopkg.in/telebot.v3"
)

// handleTop handles /top [CC] and the Top button
func (h *Handler) handleTop(c tele.Context) error {
	ctx := context.Background()

	country := ""
	if args := c.Args(); c.Callback() == nil && len(args) > 0 {
		country = args[0]
	}

	var (
		entries []domain.LeaderboardEntry
		err     error
	)
	if country == "" {
		entries, err = h.leaderboard.GlobalLeaderboard(ctx, botLeaderboardLimit)
	} else {
		entries, err = h.leaderboard.CountryLeaderboard(ctx, country, botLeaderboardLimit)
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.Send("Usage: /top or /top US (two-letter region code)")
	}
	if err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}

	text := formatLeaderboard(strings.ToUpper(country), entries)
	if c.Callback() != nil {
		if err := c.Send(text); err != nil {
			return err
		}
		return c.Respond()
	}
	return c.Send(text)
}

// handleTotal handles /total
func (h *Handler) handleTotal(c tele.Context) error {
	total, err := h.leaderboard.TotalScore(context.Background())
	if err != nil {
		return fmt.Errorf("load total: %w", err)
	}
	return c.Send(fmt.Sprintf("🌍 Pairs chanted by everyone: %d (%d malas)", total, total/domain.MalaSize))
}

func formatLeaderboard(country string, entries []domain.LeaderboardEntry) string {
	title := "🏆 Leaderboard"
	if country != "" {
		title += " " + country
	}

	if len(entries) == 0 {
		return title + "\n\nNo scores yet."
	}

	var b strings.Builder
	b.WriteString(title + "\n\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s · %d", i+1, e.PlayerName, e.Score)
		if e.Country != domain.UnknownCountry {
			fmt.Fprintf(&b, " (%s)", e.Country)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
