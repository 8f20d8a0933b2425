package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clicker/internal/api"
	"clicker/internal/repository/memory"
	"clicker/internal/service"
	"clicker/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.LeaderboardService) {
	t.Helper()
	logger := testutil.NewTestLogger()
	leaderboard := service.NewLeaderboardService(memory.NewLeaderboardRepo(), logger, time.Second)
	srv := httptest.NewServer(api.NewRouter(api.Deps{Leaderboard: leaderboard, Logger: logger}))
	t.Cleanup(srv.Close)
	return srv, leaderboard
}

func execute(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seed(t *testing.T, leaderboard *service.LeaderboardService) {
	t.Helper()
	ctx := context.Background()
	for _, s := range []struct {
		name    string
		score   int64
		country string
	}{
		{"alice", 25, "CA"},
		{"bob", 7, ""},
		{"carol", 12, "CA"},
	} {
		_, err := leaderboard.SubmitScore(ctx, s.name, s.score, s.country)
		require.NoError(t, err)
	}
}

func TestTopCmd(t *testing.T) {
	srv, leaderboard := newTestServer(t)
	seed(t, leaderboard)

	out, err := execute(t, "", "top", "--server", srv.URL)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "alice")
	assert.Contains(t, lines[1], "carol")
	assert.Contains(t, lines[2], "bob")
	assert.Contains(t, lines[2], "unknown")

	out, err = execute(t, "", "top", "--server", srv.URL, "--country", "ca", "--limit", "1")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "alice")
}

func TestTopCmd_Empty(t *testing.T) {
	srv, _ := newTestServer(t)

	out, err := execute(t, "", "top", "--server", srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "No scores yet.\n", out)
}

func TestTopCmd_BadCountry(t *testing.T) {
	srv, _ := newTestServer(t)

	_, err := execute(t, "", "top", "--server", srv.URL, "--country", "usa")

	assert.Error(t, err)
}

func TestTotalCmd(t *testing.T) {
	srv, leaderboard := newTestServer(t)
	seed(t, leaderboard)

	out, err := execute(t, "", "total", "--server", srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "Total: 44 (0 malas)\n", out)
}

func TestPlayCmd(t *testing.T) {
	srv, leaderboard := newTestServer(t)

	out, err := execute(t, "hkhkhksq", "play", "--server", srv.URL, "--name", "dave", "--country", "de")

	require.NoError(t, err)
	assert.Contains(t, out, "📤 Submitted 3. New best!")

	entries, err := leaderboard.CountryLeaderboard(context.Background(), "DE", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dave", entries[0].PlayerName)
	assert.Equal(t, int64(3), entries[0].Score)
}

func TestPlayCmd_NameFromEnv(t *testing.T) {
	srv, leaderboard := newTestServer(t)
	t.Setenv("CLICKER_SERVER", srv.URL)
	t.Setenv("CLICKER_NAME", "erin")

	_, err := execute(t, "hks", "play")
	require.NoError(t, err)

	entries, err := leaderboard.GlobalLeaderboard(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "erin", entries[0].PlayerName)
}

func TestPlayCmd_RequiresName(t *testing.T) {
	_, err := execute(t, "hk", "play")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name is required")
}
