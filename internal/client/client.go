// Package client talks to the leaderboard HTTP API and caches ranked views.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"clicker/internal/domain"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 30 * time.Second
)

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return fmt.Sprintf("server returned %d: %s (%s)", e.Status, e.Message, strings.Join(parts, ", "))
}

// Retryable reports whether the server asked the caller to try again
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusServiceUnavailable
}

type cached struct {
	body    []byte
	fetched time.Time
}

// Client submits scores and reads leaderboards
type Client struct {
	baseURL  string
	http     *http.Client
	cacheTTL time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cached

	// generation changes on every Invalidate; fetches started before it are not stored
	generation uint64
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCacheTTL sets how long leaderboard views are reused; zero disables caching
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		cacheTTL: defaultCacheTTL,
		now:      time.Now,
		cache:    make(map[string]cached),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitRequest struct {
	PlayerName string `json:"playerName"`
	Score      int64  `json:"score"`
	Country    string `json:"country,omitempty"`
}

// Submit sends a session score; success drops every cached view
func (c *Client) Submit(ctx context.Context, playerName string, score int64, country string) (*domain.LeaderboardEntry, error) {
	body, err := json.Marshal(submitRequest{PlayerName: playerName, Score: score, Country: country})
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, http.MethodPost, "/api/leaderboard", body)
	if err != nil {
		return nil, err
	}

	var entry domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}

	c.Invalidate()
	return &entry, nil
}

// Global returns the global top entries
func (c *Client) Global(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	err := c.getCached(ctx, withLimit("/api/leaderboard", limit), &entries)
	return entries, err
}

// Country returns the top entries of one region
func (c *Client) Country(ctx context.Context, country string, limit int) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	err := c.getCached(ctx, withLimit("/api/leaderboard/country/"+url.PathEscape(country), limit), &entries)
	return entries, err
}

// Total returns the sum of every player's best score
func (c *Client) Total(ctx context.Context) (int64, error) {
	var total domain.TotalScore
	err := c.getCached(ctx, "/api/leaderboard/total", &total)
	return total.TotalScore, err
}

// Invalidate drops every cached view
func (c *Client) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cached)
	c.generation++
}

func withLimit(path string, limit int) string {
	if limit <= 0 {
		return path
	}
	return path + "?limit=" + strconv.Itoa(limit)
}

func (c *Client) getCached(ctx context.Context, path string, out interface{}) error {
	c.mu.Lock()
	generation := c.generation
	hit, ok := c.cache[path]
	c.mu.Unlock()

	if c.cacheTTL > 0 {
		if ok && c.now().Sub(hit.fetched) < c.cacheTTL {
			return json.Unmarshal(hit.body, out)
		}
	}

	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if c.cacheTTL > 0 {
		c.mu.Lock()
		if c.generation == generation {
			c.cache[path] = cached{body: raw, fetched: c.now()}
		}
		c.mu.Unlock()
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}

	return raw, nil
}
