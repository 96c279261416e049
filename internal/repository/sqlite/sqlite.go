// Package sqlite implements the repository interfaces on top of SQLite.
//
// SQLite plays the role of a small document store here: a player row carries
// its score history as a JSON array, and a game row carries its catalog entry
// as a JSON document. The JSON1 functions (json_each, json_insert, json_set)
// let a single UPDATE both inspect and modify the embedded array, which is how
// the score writes stay atomic without application-level locking.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so no C toolchain is
// needed to build or cross-compile the server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository interfaces.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/arcade.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection of an in-memory pool would get its own empty
	// database, so pin the pool to one connection.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn appends the connection pragmas. They go in the DSN rather than a
// one-off Exec because the pool opens connections lazily and each one needs
// them: WAL for concurrent readers, a busy timeout so writers queue instead of
// failing with SQLITE_BUSY, and foreign keys on.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep +
		"_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			id       TEXT PRIMARY KEY,
			position INTEGER NOT NULL DEFAULT 0,
			data     TEXT NOT NULL CHECK (json_valid(data))
		);
		CREATE INDEX IF NOT EXISTS idx_games_position ON games(position);
	`)
	if err != nil {
		return fmt.Errorf("creating games table: %w", err)
	}

	// phone is UNIQUE: it is the natural key for returning players.
	// short_code is indexed but not unique; collisions are not checked.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS players (
			id          TEXT PRIMARY KEY,
			short_code  TEXT NOT NULL,
			alias       TEXT NOT NULL DEFAULT '',
			name        TEXT NOT NULL,
			phone       TEXT NOT NULL UNIQUE,
			scores      TEXT NOT NULL DEFAULT '[]' CHECK (json_valid(scores)),
			total_score INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_players_short_code ON players(short_code);
		CREATE INDEX IF NOT EXISTS idx_players_alias ON players(alias) WHERE alias <> '';
		CREATE INDEX IF NOT EXISTS idx_players_leaderboard ON players(total_score DESC, created_at, id);
	`)
	if err != nil {
		return fmt.Errorf("creating players table: %w", err)
	}

	return nil
}
