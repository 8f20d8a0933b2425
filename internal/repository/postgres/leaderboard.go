package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clicker/internal/domain"
)

const entryColumns = `id, player_name, score, country, created_at, updated_at`

// LeaderboardRepo implements repository.LeaderboardRepository
type LeaderboardRepo struct {
	db *sql.DB
}

// NewLeaderboardRepo creates a new leaderboard repository
func NewLeaderboardRepo(db *sql.DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.LeaderboardEntry, error) {
	var e domain.LeaderboardEntry
	if err := row.Scan(&e.ID, &e.PlayerName, &e.Score, &e.Country, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// FindByName returns the entry for a player
func (r *LeaderboardRepo) FindByName(ctx context.Context, playerName string) (*domain.LeaderboardEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM leaderboard_entries WHERE player_name = $1`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, playerName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// Insert creates a new entry, relying on the player_name UNIQUE constraint
func (r *LeaderboardRepo) Insert(ctx context.Context, entry *domain.LeaderboardEntry) (*domain.LeaderboardEntry, error) {
	query := `
		INSERT INTO leaderboard_entries (id, player_name, score, country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.PlayerName, entry.Score, entry.Country, entry.CreatedAt, entry.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return nil, domain.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entry, nil
}

// UpdateScoreIfHigher raises the stored score atomically
func (r *LeaderboardRepo) UpdateScoreIfHigher(ctx context.Context, playerName string, score int64, country string) (*domain.LeaderboardEntry, error) {
	query := `
		UPDATE leaderboard_entries
		SET score = $2,
			country = COALESCE(NULLIF($3, ''), country),
			updated_at = NOW()
		WHERE player_name = $1 AND score < $2
		RETURNING ` + entryColumns

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, playerName, score, country))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotModified
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// Top returns the highest scores
func (r *LeaderboardRepo) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM leaderboard_entries
		ORDER BY score DESC, created_at ASC, id ASC
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

// TopByCountry returns the highest scores within a region
func (r *LeaderboardRepo) TopByCountry(ctx context.Context, country string, limit int) ([]domain.LeaderboardEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM leaderboard_entries
		WHERE country = $1
		ORDER BY score DESC, created_at ASC, id ASC
		LIMIT $2
	`
	return r.list(ctx, query, country, limit)
}

func (r *LeaderboardRepo) list(ctx context.Context, query string, args ...any) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}

// TotalScore sums every player's best score
func (r *LeaderboardRepo) TotalScore(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(SUM(score), 0) FROM leaderboard_entries`

	var total int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}
