package leaderboard

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Service fronts a Store with a cached board.
type Service struct {
	store    Store
	limit    int
	attempts int
	backoff  time.Duration

	// sleep waits between refresh attempts; swapped out in tests.
	sleep func(context.Context, time.Duration) error

	mu     sync.RWMutex
	cached []Entry
}

// NewService wraps store. A refresh is tried attempts times, backoff apart.
func NewService(store Store, limit, attempts int, backoff time.Duration) *Service {
	if limit < 1 {
		limit = DefaultLimit
	}
	if attempts < 1 {
		attempts = 1
	}
	return &Service{
		store:    store,
		limit:    limit,
		attempts: attempts,
		backoff:  backoff,
		sleep:    sleepCtx,
	}
}

// Board returns the top entries. On failure it returns the last board that
// was fetched (possibly empty) together with the error.
func (s *Service) Board(ctx context.Context) ([]Entry, error) {
	entries, err := s.store.Top(ctx, s.limit)
	if err != nil {
		slog.Warn("leaderboard fetch failed", "error", err)
		return s.Cached(), err
	}
	s.remember(entries)
	return entries, nil
}

// Submit records a score once, then refreshes the board. A failed submission
// is returned as is and never retried. A failed refresh falls back to the
// cached board and is not reported as an error.
func (s *Service) Submit(ctx context.Context, e Entry) ([]Entry, error) {
	if err := s.store.Submit(ctx, e); err != nil {
		slog.Warn("score submission failed", "name", e.Name, "error", err)
		return s.Cached(), err
	}
	return s.Refresh(ctx), nil
}

// Refresh fetches the board, retrying with a fixed backoff. When every
// attempt fails the stale board is returned.
func (s *Service) Refresh(ctx context.Context) []Entry {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		entries, err := s.store.Top(ctx, s.limit)
		if err == nil {
			s.remember(entries)
			return entries
		}
		slog.Warn("leaderboard refresh failed", "attempt", attempt, "of", s.attempts, "error", err)
		if attempt == s.attempts {
			break
		}
		if err := s.sleep(ctx, s.backoff); err != nil {
			break
		}
	}
	return s.Cached()
}

// Cached returns a copy of the last board fetched.
func (s *Service) Cached() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cached)
}

func (s *Service) remember(entries []Entry) {
	s.mu.Lock()
	s.cached = slices.Clone(entries)
	s.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
