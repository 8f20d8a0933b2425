package memory

import (
	"context"
	"testing"
	"time"

	"clicker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insert(t *testing.T, repo *LeaderboardRepo, name string, score int64, country string) {
	t.Helper()
	_, err := repo.Insert(context.Background(), &domain.LeaderboardEntry{
		ID:         name + "-id",
		PlayerName: name,
		Score:      score,
		Country:    country,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	})
	require.NoError(t, err)
}

func TestLeaderboardRepo_InsertAndFind(t *testing.T) {
	repo := NewLeaderboardRepo()
	ctx := context.Background()

	_, err := repo.FindByName(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	insert(t, repo, "alice", 10, "US")

	entry, err := repo.FindByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(10), entry.Score)

	_, err = repo.Insert(ctx, &domain.LeaderboardEntry{PlayerName: "alice", Score: 99})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// names are case sensitive
	insert(t, repo, "Alice", 1, "US")
}

func TestLeaderboardRepo_UpdateScoreIfHigher(t *testing.T) {
	repo := NewLeaderboardRepo()
	ctx := context.Background()
	insert(t, repo, "alice", 10, "US")

	_, err := repo.UpdateScoreIfHigher(ctx, "alice", 10, "CA")
	assert.ErrorIs(t, err, domain.ErrNotModified)

	_, err = repo.UpdateScoreIfHigher(ctx, "alice", 5, "CA")
	assert.ErrorIs(t, err, domain.ErrNotModified)

	entry, err := repo.UpdateScoreIfHigher(ctx, "alice", 20, "")
	require.NoError(t, err)
	assert.Equal(t, int64(20), entry.Score)
	assert.Equal(t, "US", entry.Country)

	entry, err = repo.UpdateScoreIfHigher(ctx, "alice", 25, "CA")
	require.NoError(t, err)
	assert.Equal(t, "CA", entry.Country)

	_, err = repo.UpdateScoreIfHigher(ctx, "nobody", 25, "CA")
	assert.ErrorIs(t, err, domain.ErrNotModified)
}

func TestLeaderboardRepo_Ranking(t *testing.T) {
	repo := NewLeaderboardRepo()
	ctx := context.Background()

	insert(t, repo, "carol", 10, "US")
	insert(t, repo, "alice", 25, "CA")
	insert(t, repo, "bob", 10, "US")
	insert(t, repo, "dave", 3, "US")

	top, err := repo.Top(ctx, 10)
	require.NoError(t, err)
	names := make([]string, len(top))
	for i, e := range top {
		names[i] = e.PlayerName
	}
	assert.Equal(t, []string{"alice", "carol", "bob", "dave"}, names)

	top, err = repo.Top(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	us, err := repo.TopByCountry(ctx, "US", 2)
	require.NoError(t, err)
	assert.Len(t, us, 2)
	assert.Equal(t, "carol", us[0].PlayerName)
	assert.Equal(t, "bob", us[1].PlayerName)

	none, err := repo.TopByCountry(ctx, "FR", 50)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLeaderboardRepo_TotalScore(t *testing.T) {
	repo := NewLeaderboardRepo()
	ctx := context.Background()

	total, err := repo.TotalScore(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	insert(t, repo, "alice", 25, "CA")
	insert(t, repo, "bob", 10, "US")

	total, err = repo.TotalScore(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(35), total)
}
