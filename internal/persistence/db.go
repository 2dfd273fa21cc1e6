// Package persistence provides SQLite storage for the leaderboard, the
// per-game event journal and a few server counters.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/blackmarket/internal/engine"
	"github.com/talgya/blackmarket/internal/leaderboard"
)

// DB wraps a SQLite connection. It satisfies leaderboard.Store.
type DB struct {
	conn *sqlx.DB
}

var _ leaderboard.Store = (*DB)(nil)

// Open opens or creates a SQLite database at the given path, creating its
// directory if needed.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leaderboard (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		score INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leaderboard_score ON leaderboard(score DESC);
	CREATE INDEX IF NOT EXISTS idx_events_game ON events(game_id, id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// scoreRow is the stored form of a leaderboard entry. Timestamps are unix
// milliseconds.
type scoreRow struct {
	Name      string `db:"name"`
	Score     int    `db:"score"`
	CreatedAt int64  `db:"created_at"`
}

// Top returns the best scores, highest first. Equal scores keep
// submission order.
func (db *DB) Top(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	if limit < 1 {
		limit = leaderboard.DefaultLimit
	}
	var rows []scoreRow
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT name, score, created_at FROM leaderboard ORDER BY score DESC, id ASC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard: %w: %w", leaderboard.ErrUnavailable, err)
	}
	entries := make([]leaderboard.Entry, len(rows))
	for i, r := range rows {
		entries[i] = leaderboard.Entry{
			Name:      r.Name,
			Score:     r.Score,
			CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
		}
	}
	return entries, nil
}

// Submit appends one score.
func (db *DB) Submit(ctx context.Context, e leaderboard.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO leaderboard (name, score, created_at) VALUES (?, ?, ?)",
		e.Name, e.Score, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert score: %w: %w", leaderboard.ErrUnavailable, err)
	}
	slog.Debug("score stored", "name", e.Name, "score", e.Score)
	return nil
}

// SaveEvents appends journal entries for a game.
func (db *DB) SaveEvents(gameID string, entries []engine.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex("INSERT INTO events (game_id, day, description, category) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(gameID, e.Day, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event for game %s: %w", gameID, err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N journal entries of a game, oldest
// first.
func (db *DB) RecentEvents(gameID string, limit int) ([]engine.Entry, error) {
	var entries []engine.Entry
	err := db.conn.Select(&entries,
		`SELECT day, description, category FROM (
			SELECT id, day, description, category FROM events
			WHERE game_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		gameID, limit,
	)
	return entries, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a value; a missing key yields "".
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// Increment adds one to a numeric meta counter and returns the new value.
func (db *DB) Increment(key string) (int, error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var value string
	err = tx.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	n, _ := strconv.Atoi(value)
	n++
	if _, err := tx.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, strconv.Itoa(n)); err != nil {
		return 0, err
	}
	return n, tx.Commit()
}
