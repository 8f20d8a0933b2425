// Package dynamo stores the leaderboard in a DynamoDB table keyed by player name.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"clicker/internal/domain"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/guregu/dynamo"
)

// LeaderboardRepo implements repository.LeaderboardRepository on DynamoDB
type LeaderboardRepo struct {
	table dynamo.Table
	now   func() time.Time
}

// NewSession creates an AWS session for region, optionally pointed at a local endpoint
func NewSession(region, endpoint string) (*session.Session, error) {
	cfg := aws.NewConfig().WithRegion(region)
	if endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint)
	}
	return session.NewSession(cfg)
}

// NewLeaderboardRepo creates a repository on the given table
func NewLeaderboardRepo(sess *session.Session, tableName string) *LeaderboardRepo {
	return NewLeaderboardRepoWithClient(dynamodb.New(sess), tableName)
}

// NewLeaderboardRepoWithClient creates a repository on an existing DynamoDB client
func NewLeaderboardRepoWithClient(client dynamodbiface.DynamoDBAPI, tableName string) *LeaderboardRepo {
	db := dynamo.NewFromIface(client)
	return &LeaderboardRepo{table: db.Table(tableName), now: time.Now}
}

func (r *LeaderboardRepo) FindByName(ctx context.Context, playerName string) (*domain.LeaderboardEntry, error) {
	var e domain.LeaderboardEntry
	err := r.table.Get("player_name", playerName).OneWithContext(ctx, &e)
	if errors.Is(err, dynamo.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dynamodb error: %w", err)
	}
	return &e, nil
}

// Insert puts the entry only if no item holds the player name yet
func (r *LeaderboardRepo) Insert(ctx context.Context, entry *domain.LeaderboardEntry) (*domain.LeaderboardEntry, error) {
	err := r.table.Put(entry).If("attribute_not_exists($)", "player_name").RunWithContext(ctx)
	if isConditionalCheckFailed(err) {
		return nil, domain.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("dynamodb error: %w", err)
	}
	return entry, nil
}

// UpdateScoreIfHigher raises the score with a conditional update
func (r *LeaderboardRepo) UpdateScoreIfHigher(ctx context.Context, playerName string, score int64, country string) (*domain.LeaderboardEntry, error) {
	update := r.table.Update("player_name", playerName).
		Set("score", score).
		Set("updated_at", r.now()).
		If("attribute_exists($) AND $ < ?", "player_name", "score", score)
	if country != "" {
		update = update.Set("country", country)
	}

	var e domain.LeaderboardEntry
	err := update.ValueWithContext(ctx, &e)
	if isConditionalCheckFailed(err) {
		return nil, domain.ErrNotModified
	}
	if err != nil {
		return nil, fmt.Errorf("dynamodb error: %w", err)
	}
	return &e, nil
}

func (r *LeaderboardRepo) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	if err := r.table.Scan().AllWithContext(ctx, &entries); err != nil {
		return nil, fmt.Errorf("dynamodb error: %w", err)
	}
	return rank(entries, limit), nil
}

func (r *LeaderboardRepo) TopByCountry(ctx context.Context, country string, limit int) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	if err := r.table.Scan().Filter("$ = ?", "country", country).AllWithContext(ctx, &entries); err != nil {
		return nil, fmt.Errorf("dynamodb error: %w", err)
	}
	return rank(entries, limit), nil
}

func (r *LeaderboardRepo) TotalScore(ctx context.Context) (int64, error) {
	var entries []domain.LeaderboardEntry
	if err := r.table.Scan().Project("score").AllWithContext(ctx, &entries); err != nil {
		return 0, fmt.Errorf("dynamodb error: %w", err)
	}

	var total int64
	for _, e := range entries {
		total += e.Score
	}
	return total, nil
}

// rank orders scanned items like the SQL backends do and truncates to limit
func rank(entries []domain.LeaderboardEntry, limit int) []domain.LeaderboardEntry {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Outranks(entries[j]) })
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries
}

func isConditionalCheckFailed(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
	}
	return false
}
