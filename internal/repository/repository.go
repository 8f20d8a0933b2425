package repository

import (
	"context"
	"time"

	"clicker/internal/domain"
)

// LeaderboardRepository defines leaderboard storage primitives
type LeaderboardRepository interface {
	// FindByName returns domain.ErrNotFound when the player has no entry
	FindByName(ctx context.Context, playerName string) (*domain.LeaderboardEntry, error)
	// Insert returns domain.ErrDuplicate when the player name is taken
	Insert(ctx context.Context, entry *domain.LeaderboardEntry) (*domain.LeaderboardEntry, error)
	// UpdateScoreIfHigher stores score only if it beats the stored one.
	// An empty country keeps the stored country.
	// It returns domain.ErrNotModified when no row qualified.
	UpdateScoreIfHigher(ctx context.Context, playerName string, score int64, country string) (*domain.LeaderboardEntry, error)
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	TopByCountry(ctx context.Context, country string, limit int) ([]domain.LeaderboardEntry, error)
	TotalScore(ctx context.Context) (int64, error)
}

// UserRepository defines account storage operations
type UserRepository interface {
	// Create returns domain.ErrAlreadyExists on a username or email clash
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
}

// EmailTokenRepository defines verification token storage operations
type EmailTokenRepository interface {
	Save(ctx context.Context, token *domain.EmailToken) error
	Find(ctx context.Context, token string) (*domain.EmailToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
