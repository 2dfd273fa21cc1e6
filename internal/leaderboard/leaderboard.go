// Package leaderboard keeps the high-score table. Scores live in a Store,
// either the local SQLite database or a hosted PostgREST table, and the
// Service caches the last board it saw so a failed fetch never leaves the
// player with nothing.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrUnavailable marks a transient store failure. Callers show a retry
// message and keep playing.
var ErrUnavailable = errors.New("leaderboard unavailable")

// ErrInvalidName rejects blank or oversized player names.
var ErrInvalidName = errors.New("name must be 1-32 characters")

// DefaultLimit is how many rows a board shows.
const DefaultLimit = 10

const maxNameLen = 32

// Entry is one submitted score.
type Entry struct {
	Name      string    `json:"name" db:"name"`
	Score     int       `json:"score" db:"score"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Store is a high-score table.
type Store interface {
	// Top returns at most limit entries, highest score first.
	Top(ctx context.Context, limit int) ([]Entry, error)
	// Submit appends an entry.
	Submit(ctx context.Context, e Entry) error
}

// NewEntry validates name and stamps the entry with the current time.
func NewEntry(name string, score int) (Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return Entry{}, ErrInvalidName
	}
	return Entry{Name: name, Score: score, CreatedAt: time.Now().UTC()}, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
