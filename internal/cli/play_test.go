package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"clicker/internal/client"
	"clicker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, playerName string, score int64, country string) (*domain.LeaderboardEntry, error) {
	args := m.Called(ctx, playerName, score, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeaderboardEntry), args.Error(1)
}

func newTestSession(sub Submitter) (*session, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &session{
		submitter: sub,
		name:      "alice",
		country:   "CA",
		out:       out,
		eol:       "\n",
		state:     domain.NewClickState(),
	}, out
}

func TestSession_Keys(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedScore int64
	}{
		{name: "empty input", input: "", expectedScore: 0},
		{name: "one pair", input: "hk", expectedScore: 1},
		{name: "alternate bindings", input: "abab", expectedScore: 2},
		{name: "upper case keys", input: "HK", expectedScore: 1},
		{name: "line mode input", input: "h\nk\nh k\n", expectedScore: 2},
		{name: "double hare", input: "hhk", expectedScore: 1},
		{name: "krishna first", input: "khk", expectedScore: 1},
		{name: "stops at quit", input: "hkqhk", expectedScore: 1},
		{name: "stops at ctrl-c", input: "hk\x03hk", expectedScore: 1},
		{name: "unbound keys ignored", input: "hxyzk", expectedScore: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := newTestSession(&mockSubmitter{})

			err := s.run(context.Background(), strings.NewReader(tt.input))

			require.NoError(t, err)
			assert.Equal(t, tt.expectedScore, s.state.Score)
			assert.True(t, strings.HasSuffix(out.String(), "Hare Krishna!\n"))
		})
	}
}

func TestSession_Submit(t *testing.T) {
	sub := &mockSubmitter{}
	sub.On("Submit", mock.Anything, "alice", int64(2), "CA").
		Return(&domain.LeaderboardEntry{PlayerName: "alice", Score: 2, Country: "CA"}, nil).Once()
	sub.On("Submit", mock.Anything, "alice", int64(1), "CA").
		Return(&domain.LeaderboardEntry{PlayerName: "alice", Score: 2, Country: "CA"}, nil).Once()
	s, out := newTestSession(sub)

	err := s.run(context.Background(), strings.NewReader("hkhkshksq"))

	require.NoError(t, err)
	assert.Equal(t, int64(0), s.state.Score)
	assert.Contains(t, out.String(), "📤 Submitted 2. New best!")
	assert.Contains(t, out.String(), "📤 Submitted 1. Your best stays 2.")
	assert.NotContains(t, out.String(), "Unsubmitted")
	sub.AssertExpectations(t)
}

func TestSession_SubmitNothing(t *testing.T) {
	sub := &mockSubmitter{}
	s, out := newTestSession(sub)

	err := s.run(context.Background(), strings.NewReader("hs"))

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Complete at least one Hare Krishna pair first")
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_SubmitFailureKeepsScore(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "server busy",
			err:      &client.APIError{Status: http.StatusServiceUnavailable, Message: "try again"},
			expected: "Server busy, press s to try again",
		},
		{
			name:     "rejected",
			err:      &client.APIError{Status: http.StatusBadRequest, Message: "validation failed"},
			expected: "Submit failed: server returned 400: validation failed",
		},
		{
			name:     "network",
			err:      errors.New("connection refused"),
			expected: "Submit failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &mockSubmitter{}
			sub.On("Submit", mock.Anything, "alice", int64(1), "CA").Return(nil, tt.err)
			s, out := newTestSession(sub)

			err := s.run(context.Background(), strings.NewReader("hks"))

			require.NoError(t, err)
			assert.Equal(t, int64(1), s.state.Score)
			assert.Contains(t, out.String(), tt.expected)
			assert.Contains(t, out.String(), "Unsubmitted score: 1")
		})
	}
}

func TestSession_Mala(t *testing.T) {
	s, out := newTestSession(&mockSubmitter{})

	err := s.run(context.Background(), strings.NewReader(strings.Repeat("hk", domain.MalaSize)))

	require.NoError(t, err)
	assert.Equal(t, int64(domain.MalaSize), s.state.Score)
	assert.Equal(t, 1, strings.Count(out.String(), "📿 Mala completed! Malas: 1"))
}

func TestSession_RawLineEndings(t *testing.T) {
	s, out := newTestSession(&mockSubmitter{})
	s.eol = "\r\n"

	require.NoError(t, s.run(context.Background(), strings.NewReader("hk")))

	assert.Equal(t, strings.Count(out.String(), "\n"), strings.Count(out.String(), "\r\n"))
}

func TestSession_CancelledContext(t *testing.T) {
	s, _ := newTestSession(&mockSubmitter{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.run(ctx, strings.NewReader("hk"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), s.state.Score)
}
