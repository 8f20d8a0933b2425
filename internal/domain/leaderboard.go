package domain

import "time"

// UnknownCountry is stored when no region code was supplied
const UnknownCountry = "unknown"

// PlayerNameMaxLength is the maximum player name length in characters
const PlayerNameMaxLength = 50

// LeaderboardEntry represents a player's best recorded score
type LeaderboardEntry struct {
	ID         string    `json:"id" dynamo:"id"`
	PlayerName string    `json:"playerName" dynamo:"player_name,hash"`
	Score      int64     `json:"score" dynamo:"score"`
	Country    string    `json:"country" dynamo:"country"`
	CreatedAt  time.Time `json:"createdAt" dynamo:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" dynamo:"updated_at"`
}

// Outranks reports whether e sorts before other on a leaderboard:
// higher score first, then earlier insertion
func (e LeaderboardEntry) Outranks(other LeaderboardEntry) bool {
	if e.Score != other.Score {
		return e.Score > other.Score
	}
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.Before(other.CreatedAt)
	}
	return e.ID < other.ID
}

// TotalScore is the aggregate of all players' best scores
type TotalScore struct {
	TotalScore int64 `json:"totalScore"`
}
