package testutil

import (
	"time"

	"clicker/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestEntry creates a test leaderboard entry
func NewTestEntry(playerName string, score int64, country string) *domain.LeaderboardEntry {
	now := time.Now()
	return &domain.LeaderboardEntry{
		ID:         "entry-" + playerName,
		PlayerName: playerName,
		Score:      score,
		Country:    country,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewTestUser creates a test user
func NewTestUser(id, username, email string) *domain.User {
	return &domain.User{
		ID:        id,
		Username:  username,
		Email:     email,
		CreatedAt: time.Now(),
	}
}
