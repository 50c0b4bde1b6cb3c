// Package storage is the persistence collaborator: typed record accessors
// and a generic table gateway over a single-file SQLite database.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	user_did     TEXT    NOT NULL UNIQUE,
	blacklisted  INTEGER NOT NULL DEFAULT 0,
	global_admin INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS user_servers (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     INTEGER NOT NULL,
	server_did  TEXT    NOT NULL,
	admin       INTEGER NOT NULL DEFAULT 0,
	blacklisted INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_user_servers_user ON user_servers (user_id, server_did);

CREATE TABLE IF NOT EXISTS streamers (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT    NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS streamer_channels (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	streamer_id INTEGER NOT NULL,
	channel_did TEXT    NOT NULL,
	template    TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_streamer_channels_streamer ON streamer_channels (streamer_id);

CREATE TABLE IF NOT EXISTS streamer_messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	streamer_id INTEGER NOT NULL,
	channel_did TEXT    NOT NULL,
	message_did TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_streamer_messages_streamer ON streamer_messages (streamer_id);

CREATE TABLE IF NOT EXISTS command_aliases (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	command TEXT NOT NULL,
	alias   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_command_aliases_alias ON command_aliases (alias);
`

// Store wraps the SQLite database. It relies on the engine's transaction
// semantics for single-statement durability and implements no locking of
// its own.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite serializes writes through a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// insert executes an INSERT and returns the generated row ID.
func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
