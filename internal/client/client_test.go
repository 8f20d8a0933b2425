package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clicker/internal/api"
	"clicker/internal/domain"
	"clicker/internal/repository/memory"
	"clicker/internal/service"
	"clicker/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	next http.Handler
	gets atomic.Int64
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.gets.Add(1)
	}
	h.next.ServeHTTP(w, r)
}

func newTestServer(t *testing.T) (*httptest.Server, *countingHandler) {
	t.Helper()
	logger := testutil.NewTestLogger()
	router := api.NewRouter(api.Deps{
		Leaderboard: service.NewLeaderboardService(memory.NewLeaderboardRepo(), logger, time.Second),
		Logger:      logger,
	})
	h := &countingHandler{next: router}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, h
}

func TestClient_SubmitAndQuery(t *testing.T) {
	srv, _ := newTestServer(t)
	c := New(srv.URL, WithCacheTTL(0))
	ctx := context.Background()

	entry, err := c.Submit(ctx, "alice", 10, "us")
	require.NoError(t, err)
	assert.Equal(t, "US", entry.Country)

	entry, err = c.Submit(ctx, "alice", 4, "")
	require.NoError(t, err)
	assert.Equal(t, int64(10), entry.Score)

	_, err = c.Submit(ctx, "bob", 3, "")
	require.NoError(t, err)

	global, err := c.Global(ctx, 0)
	require.NoError(t, err)
	require.Len(t, global, 2)
	assert.Equal(t, "alice", global[0].PlayerName)

	us, err := c.Country(ctx, "US", 10)
	require.NoError(t, err)
	assert.Len(t, us, 1)

	total, err := c.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(13), total)
}

func TestClient_ValidationError(t *testing.T) {
	srv, _ := newTestServer(t)
	c := New(srv.URL)

	_, err := c.Submit(context.Background(), "", -1, "")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Fields, "playerName")
	assert.Contains(t, apiErr.Fields, "score")
	assert.False(t, apiErr.Retryable())
}

func TestClient_CacheInvalidatedBySubmit(t *testing.T) {
	srv, counter := newTestServer(t)
	c := New(srv.URL, WithCacheTTL(time.Hour))
	ctx := context.Background()

	_, err := c.Submit(ctx, "alice", 1, "")
	require.NoError(t, err)

	first, err := c.Global(ctx, 0)
	require.NoError(t, err)
	_, err = c.Global(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counter.gets.Load())
	assert.Equal(t, int64(1), first[0].Score)

	_, err = c.Submit(ctx, "alice", 9, "")
	require.NoError(t, err)

	after, err := c.Global(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counter.gets.Load())
	assert.Equal(t, int64(9), after[0].Score)
}

// heldHandler computes the first GET response, then holds it until release is closed
type heldHandler struct {
	next     http.Handler
	once     sync.Once
	computed chan struct{}
	release  chan struct{}
}

func (h *heldHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hold := false
	if r.Method == http.MethodGet {
		h.once.Do(func() { hold = true })
	}
	if !hold {
		h.next.ServeHTTP(w, r)
		return
	}

	rec := httptest.NewRecorder()
	h.next.ServeHTTP(rec, r)
	close(h.computed)
	<-h.release

	for k, v := range rec.Header() {
		w.Header()[k] = v
	}
	w.WriteHeader(rec.Code)
	_, _ = w.Write(rec.Body.Bytes())
}

func TestClient_InFlightFetchDoesNotOutliveSubmit(t *testing.T) {
	logger := testutil.NewTestLogger()
	h := &heldHandler{
		next: api.NewRouter(api.Deps{
			Leaderboard: service.NewLeaderboardService(memory.NewLeaderboardRepo(), logger, time.Second),
			Logger:      logger,
		}),
		computed: make(chan struct{}),
		release:  make(chan struct{}),
	}
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := New(srv.URL, WithCacheTTL(time.Hour))
	ctx := context.Background()

	stale := make(chan []domain.LeaderboardEntry, 1)
	go func() {
		entries, err := c.Global(ctx, 10)
		assert.NoError(t, err)
		stale <- entries
	}()

	<-h.computed
	_, err := c.Submit(ctx, "alice", 5, "")
	require.NoError(t, err)
	close(h.release)
	assert.Empty(t, <-stale)

	entries, err := c.Global(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(5), entries[0].Score)
}

func TestAPIError_FieldsSorted(t *testing.T) {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Message: "validation failed",
		Fields: map[string]string{
			"score":      "must not be negative",
			"country":    "must be a two-letter region code",
			"playerName": "is required",
		},
	}

	for i := 0; i < 10; i++ {
		assert.Equal(t,
			"server returned 400: validation failed (country must be a two-letter region code, playerName is required, score must not be negative)",
			err.Error())
	}
}

func TestClient_CacheExpires(t *testing.T) {
	srv, counter := newTestServer(t)
	c := New(srv.URL, WithCacheTTL(time.Minute))
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.Total(ctx)
	require.NoError(t, err)
	_, err = c.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counter.gets.Load())

	now = now.Add(2 * time.Minute)
	_, err = c.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counter.gets.Load())
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Total(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Retryable())
	assert.Equal(t, "Service Unavailable", apiErr.Message)
}
