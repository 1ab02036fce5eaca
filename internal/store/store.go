// Package store persists the Discord-to-ckey identity mapping.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrStorage wraps unrecoverable persistence failures. Callers are expected
// to log it and carry on; a lost write is re-derived on the next
// reconciliation pass.
var ErrStorage = errors.New("storage error")

// User is one row of the identity mapping. Ckey and RoleLevel are nil when
// the corresponding fact has never been observed for this Discord ID.
type User struct {
	DiscordID string
	Ckey      *string
	RoleLevel *int
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	discord_id TEXT UNIQUE NOT NULL,
	ckey TEXT,
	role_level INTEGER
);
`

// Store is a sqlite-backed identity store. Writes are serialized through a
// single mutex; volume is bounded by guild member count per reconcile tick.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the identity database at path and applies
// the schema. Safe to call against an already-initialized database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open users db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or updates the record for discordID. A nil ckey or
// roleLevel leaves the stored column untouched (per-field merge); a non-nil
// value overwrites it.
func (s *Store) Upsert(discordID string, ckey *string, roleLevel *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO users (discord_id, ckey, role_level) VALUES (?, ?, ?)
		ON CONFLICT(discord_id) DO UPDATE SET
			ckey = COALESCE(excluded.ckey, users.ckey),
			role_level = COALESCE(excluded.role_level, users.role_level)
	`, discordID, ckey, roleLevel)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrStorage, discordID, err)
	}
	return nil
}

// Lookup returns the record for discordID. An unknown ID yields a zero-value
// User with both fields nil, never an error.
func (s *Store) Lookup(discordID string) (User, error) {
	u := User{DiscordID: discordID}
	err := s.db.QueryRow(
		`SELECT ckey, role_level FROM users WHERE discord_id = ?`, discordID,
	).Scan(&u.Ckey, &u.RoleLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return u, nil
	}
	if err != nil {
		return u, fmt.Errorf("%w: lookup %s: %v", ErrStorage, discordID, err)
	}
	return u, nil
}

// ListDonors returns all users holding a nonzero role level.
func (s *Store) ListDonors() ([]User, error) {
	rows, err := s.db.Query(
		`SELECT discord_id, ckey, role_level FROM users WHERE role_level IS NOT NULL AND role_level != 0`)
	if err != nil {
		return nil, fmt.Errorf("%w: list donors: %v", ErrStorage, err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.DiscordID, &u.Ckey, &u.RoleLevel); err != nil {
			return nil, fmt.Errorf("%w: scan donor row: %v", ErrStorage, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list donors: %v", ErrStorage, err)
	}
	return users, nil
}
