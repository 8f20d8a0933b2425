package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"clicker/internal/domain"
	"clicker/internal/repository"

	"github.com/finnbear/moderation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultGlobalLimit  = 100
	DefaultCountryLimit = 50
	MaxLimit            = 1000

	maxMergeAttempts = 3
)

// LeaderboardService applies best-score-wins merges and answers ranked queries
type LeaderboardService struct {
	repo         repository.LeaderboardRepository
	logger       *zap.Logger
	queryTimeout time.Duration
	now          func() time.Time
	rejectName   func(string) bool
	notifier     Notifier
}

// Notifier receives entries whose stored score changed
type Notifier interface {
	Publish(entry domain.LeaderboardEntry)
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(repo repository.LeaderboardRepository, logger *zap.Logger, queryTimeout time.Duration) *LeaderboardService {
	return &LeaderboardService{
		repo:         repo,
		logger:       logger,
		queryTimeout: queryTimeout,
		now:          time.Now,
		rejectName:   isSeverelyInappropriate,
	}
}

// SetNotifier registers n to be told about created and raised entries
func (s *LeaderboardService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *LeaderboardService) publish(entry *domain.LeaderboardEntry) {
	if s.notifier != nil {
		s.notifier.Publish(*entry)
	}
}

func isSeverelyInappropriate(name string) bool {
	return moderation.Scan(name).Is(moderation.Inappropriate & moderation.Severe)
}

// NormalizeCountry upper-cases a region code; empty input or the unknown sentinel means absent
func NormalizeCountry(country string) (string, error) {
	country = strings.TrimSpace(country)
	if country == "" || strings.EqualFold(country, domain.UnknownCountry) {
		return "", nil
	}
	if len(country) != 2 || !isASCIILetter(country[0]) || !isASCIILetter(country[1]) {
		return "", fmt.Errorf("must be a two-letter region code")
	}
	return strings.ToUpper(country), nil
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (s *LeaderboardService) validate(playerName string, score int64, country string) (string, string, error) {
	verr := domain.NewValidationError()

	name := strings.TrimSpace(playerName)
	switch {
	case name == "":
		verr.Add("playerName", "is required")
	case !utf8.ValidString(name):
		verr.Add("playerName", "must be valid UTF-8")
	case utf8.RuneCountInString(name) > domain.PlayerNameMaxLength:
		verr.Add("playerName", fmt.Sprintf("must be at most %d characters", domain.PlayerNameMaxLength))
	case s.rejectName(name):
		verr.Add("playerName", "is not allowed")
	}

	if score < 0 {
		verr.Add("score", "must not be negative")
	}

	cc, err := NormalizeCountry(country)
	if err != nil {
		verr.Add("country", err.Error())
	}

	return name, cc, verr.OrNil()
}

// SubmitScore records score for the player if it beats the stored best.
// A dominated submission returns the stored entry unchanged.
func (s *LeaderboardService) SubmitScore(ctx context.Context, playerName string, score int64, country string) (*domain.LeaderboardEntry, error) {
	name, cc, err := s.validate(playerName, score, country)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		existing, err := s.findByName(ctx, name)
		if errors.Is(err, domain.ErrNotFound) {
			entry, err := s.insert(ctx, name, score, cc)
			if errors.Is(err, domain.ErrDuplicate) {
				s.logger.Debug("Concurrent insert won, retrying as update", zap.String("player", name))
				continue
			}
			if err != nil {
				return nil, err
			}
			s.logger.Info("Leaderboard entry created",
				zap.String("player", name), zap.Int64("score", score), zap.String("country", entry.Country))
			s.publish(entry)
			return entry, nil
		}
		if err != nil {
			return nil, err
		}

		if score <= existing.Score {
			s.logger.Debug("Dominated submission ignored",
				zap.String("player", name), zap.Int64("score", score), zap.Int64("best", existing.Score))
			return existing, nil
		}

		entry, err := s.updateScoreIfHigher(ctx, name, score, cc)
		if errors.Is(err, domain.ErrNotModified) {
			s.logger.Debug("Conditional update lost, re-reading", zap.String("player", name))
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("Leaderboard score raised",
			zap.String("player", name), zap.Int64("from", existing.Score), zap.Int64("to", score))
		s.publish(entry)
		return entry, nil
	}

	s.logger.Warn("Submission abandoned after repeated conflicts", zap.String("player", name))
	return nil, domain.ErrContention
}

func (s *LeaderboardService) findByName(ctx context.Context, name string) (*domain.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.repo.FindByName(ctx, name)
}

func (s *LeaderboardService) insert(ctx context.Context, name string, score int64, country string) (*domain.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if country == "" {
		country = domain.UnknownCountry
	}
	now := s.now().UTC()
	return s.repo.Insert(ctx, &domain.LeaderboardEntry{
		ID:         uuid.New().String(),
		PlayerName: name,
		Score:      score,
		Country:    country,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (s *LeaderboardService) updateScoreIfHigher(ctx context.Context, name string, score int64, country string) (*domain.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.repo.UpdateScoreIfHigher(ctx, name, score, country)
}

// GlobalLeaderboard returns the best entries across all regions
func (s *LeaderboardService) GlobalLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.repo.Top(ctx, clampLimit(limit, DefaultGlobalLimit))
}

// CountryLeaderboard returns the best entries of one region
func (s *LeaderboardService) CountryLeaderboard(ctx context.Context, country string, limit int) ([]domain.LeaderboardEntry, error) {
	cc, err := NormalizeCountry(country)
	if err != nil || cc == "" {
		verr := domain.NewValidationError()
		verr.Add("country", "must be a two-letter region code")
		return nil, verr
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.repo.TopByCountry(ctx, cc, clampLimit(limit, DefaultCountryLimit))
}

// TotalScore returns the sum of every player's best score
func (s *LeaderboardService) TotalScore(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.repo.TotalScore(ctx)
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
