package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultPath = "data/sportsarb.db"
)

// Store wraps a SQLite DB connection.
type Store struct {
	path string
	db   *sql.DB
}

// Open creates (if needed) and opens the SQLite database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := ensureWAL(db); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return &Store{path: path, db: db}, nil
}

func ensureWAL(db *sql.DB) error {
	const (
		maxAttempts = 5
		delay       = 200 * time.Millisecond
	)
	for i := 0; i < maxAttempts; i++ {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			if strings.Contains(err.Error(), "database is locked") {
				time.Sleep(delay)
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("database is locked after retries")
}

// Path returns the path backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateTables ensures the full schema exists.
func (s *Store) CreateTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// DropTables removes all tables.
func (s *Store) DropTables(ctx context.Context) error {
	stmts := []string{
		`DROP TABLE IF EXISTS event_market_impacts;`,
		`DROP TABLE IF EXISTS market_lag_signals;`,
		`DROP TABLE IF EXISTS market_history;`,
		`DROP TABLE IF EXISTS market_latest;`,
		`DROP TABLE IF EXISTS games;`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ClearTables truncates the quote tables, keeping games and analysis outputs.
func (s *Store) ClearTables(ctx context.Context) error {
	stmts := []string{
		`DELETE FROM market_history;`,
		`DELETE FROM market_latest;`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// games is append-only upsert: created_at survives re-sighting, last_seen_at
// tracks the most recent provider refresh.
//
// market_latest holds one row per quote key, last write wins. market_history
// is the time series behind the lead/lag and impact analyzers; the unique
// index dedupes identical re-ingested snapshots.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	league TEXT NOT NULL,
	home_team TEXT NOT NULL,
	away_team TEXT NOT NULL,
	commence_time TEXT,
	created_at TEXT NOT NULL,
	last_seen_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS market_latest (
	game_id TEXT NOT NULL,
	market TEXT NOT NULL,
	side TEXT NOT NULL,
	line REAL NOT NULL,
	source TEXT NOT NULL,
	provider TEXT NOT NULL,
	player TEXT NOT NULL DEFAULT '',
	price REAL NOT NULL,
	implied_prob REAL NOT NULL,
	devigged_prob REAL,
	provider_updated_at TEXT,
	captured_at TEXT NOT NULL,
	PRIMARY KEY (game_id, market, side, line, source, provider, player)
);

CREATE TABLE IF NOT EXISTS market_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id TEXT NOT NULL,
	market TEXT NOT NULL,
	side TEXT NOT NULL,
	line REAL NOT NULL,
	source TEXT NOT NULL,
	provider TEXT NOT NULL,
	player TEXT NOT NULL DEFAULT '',
	price REAL NOT NULL,
	implied_prob REAL NOT NULL,
	devigged_prob REAL,
	snapshot_time TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS market_history_key_idx
	ON market_history(game_id, market, side, line, source, provider, player, snapshot_time);
CREATE INDEX IF NOT EXISTS market_history_time_idx ON market_history(snapshot_time);

CREATE TABLE IF NOT EXISTS market_lag_signals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	game_id TEXT NOT NULL,
	market TEXT NOT NULL,
	side TEXT NOT NULL,
	line REAL NOT NULL,
	player TEXT NOT NULL DEFAULT '',
	leader_source TEXT NOT NULL,
	leader_provider TEXT NOT NULL,
	lagger_source TEXT NOT NULL,
	lagger_provider TEXT NOT NULL,
	leader_move_time TEXT NOT NULL,
	lagger_move_time TEXT NOT NULL,
	lag_seconds REAL NOT NULL,
	leader_prob_before REAL NOT NULL,
	leader_prob_after REAL NOT NULL,
	lagger_prob_before REAL NOT NULL,
	lagger_prob_after REAL NOT NULL,
	probability_delta REAL NOT NULL,
	signal_strength REAL NOT NULL,
	detected_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS lag_signals_game_idx ON market_lag_signals(game_id);

CREATE TABLE IF NOT EXISTS event_market_impacts (
	event_id TEXT NOT NULL,
	game_id TEXT NOT NULL,
	market TEXT NOT NULL,
	side TEXT NOT NULL,
	line REAL NOT NULL,
	player TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	provider TEXT NOT NULL,
	baseline_prob REAL NOT NULL,
	baseline_time TEXT NOT NULL,
	max_prob REAL NOT NULL,
	min_prob REAL NOT NULL,
	impact_prob REAL NOT NULL,
	impact_delta REAL NOT NULL,
	impact_direction TEXT NOT NULL,
	impact_time TEXT NOT NULL,
	snapshot_count INTEGER NOT NULL,
	computed_at TEXT NOT NULL,
	PRIMARY KEY (event_id, game_id, market, side, line, player, source, provider)
);
`

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
