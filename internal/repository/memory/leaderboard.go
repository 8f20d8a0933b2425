// Package memory holds process-local repositories for development mode and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"clicker/internal/domain"
)

type record struct {
	entry domain.LeaderboardEntry
	seq   uint64
}

// LeaderboardRepo implements repository.LeaderboardRepository in memory
type LeaderboardRepo struct {
	mu      sync.RWMutex
	byName  map[string]*record
	nextSeq uint64
	now     func() time.Time
}

// NewLeaderboardRepo creates an empty leaderboard
func NewLeaderboardRepo() *LeaderboardRepo {
	return &LeaderboardRepo{
		byName: make(map[string]*record),
		now:    time.Now,
	}
}

func (r *LeaderboardRepo) FindByName(_ context.Context, playerName string) (*domain.LeaderboardEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byName[playerName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e := rec.entry
	return &e, nil
}

func (r *LeaderboardRepo) Insert(_ context.Context, entry *domain.LeaderboardEntry) (*domain.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[entry.PlayerName]; ok {
		return nil, domain.ErrDuplicate
	}
	r.nextSeq++
	r.byName[entry.PlayerName] = &record{entry: *entry, seq: r.nextSeq}

	e := *entry
	return &e, nil
}

func (r *LeaderboardRepo) UpdateScoreIfHigher(_ context.Context, playerName string, score int64, country string) (*domain.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byName[playerName]
	if !ok || rec.entry.Score >= score {
		return nil, domain.ErrNotModified
	}

	rec.entry.Score = score
	if country != "" {
		rec.entry.Country = country
	}
	rec.entry.UpdatedAt = r.now()

	e := rec.entry
	return &e, nil
}

func (r *LeaderboardRepo) Top(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return r.ranked(limit, func(domain.LeaderboardEntry) bool { return true }), nil
}

func (r *LeaderboardRepo) TopByCountry(_ context.Context, country string, limit int) ([]domain.LeaderboardEntry, error) {
	return r.ranked(limit, func(e domain.LeaderboardEntry) bool { return e.Country == country }), nil
}

func (r *LeaderboardRepo) ranked(limit int, keep func(domain.LeaderboardEntry) bool) []domain.LeaderboardEntry {
	r.mu.RLock()
	recs := make([]record, 0, len(r.byName))
	for _, rec := range r.byName {
		if keep(rec.entry) {
			recs = append(recs, *rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].entry.Score != recs[j].entry.Score {
			return recs[i].entry.Score > recs[j].entry.Score
		}
		return recs[i].seq < recs[j].seq
	})

	if limit >= 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	entries := make([]domain.LeaderboardEntry, len(recs))
	for i, rec := range recs {
		entries[i] = rec.entry
	}
	return entries
}

func (r *LeaderboardRepo) TotalScore(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, rec := range r.byName {
		total += rec.entry.Score
	}
	return total, nil
}
