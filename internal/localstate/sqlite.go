// Package localstate persists client-local state in a SQLite database: the
// session credential under a single fixed key, plus the user's local
// watchlist and per-ticker notes. It is the only durable state the client
// keeps between runs.
package localstate

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// credentialKey is the fixed key the session token is stored under, read at
// startup and deleted on logout or verification failure.
const credentialKey = "auth_token"

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS watchlist (
	ticker   TEXT PRIMARY KEY,
	added_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS notes (
	ticker     TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store is a SQLite-backed client state store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the state database at dbPath, creating parent
// directories and tables as needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating state dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Credential
// ---------------------------------------------------------------------------

// SaveCredential stores the session token, replacing any previous one.
func (s *Store) SaveCredential(token string) error {
	_, err := s.db.Exec(
		`INSERT INTO credentials (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		credentialKey, token,
	)
	return err
}

// LoadCredential returns the stored session token, or "" when none exists.
func (s *Store) LoadCredential() (string, error) {
	var token string
	err := s.db.QueryRow(
		`SELECT value FROM credentials WHERE key = ?`, credentialKey,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// DeleteCredential removes the stored session token, if any.
func (s *Store) DeleteCredential() error {
	_, err := s.db.Exec(`DELETE FROM credentials WHERE key = ?`, credentialKey)
	return err
}

// ---------------------------------------------------------------------------
// Watchlist
// ---------------------------------------------------------------------------

// AddToWatchlist adds a ticker to the local watchlist. Adding a ticker that
// is already present is not an error.
func (s *Store) AddToWatchlist(ticker string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO watchlist (ticker, added_at) VALUES (?, ?)`,
		ticker, time.Now().Unix(),
	)
	return err
}

// RemoveFromWatchlist removes a ticker from the local watchlist.
func (s *Store) RemoveFromWatchlist(ticker string) error {
	_, err := s.db.Exec(`DELETE FROM watchlist WHERE ticker = ?`, ticker)
	return err
}

// Watchlist returns all watched tickers in insertion order.
func (s *Store) Watchlist() ([]string, error) {
	rows, err := s.db.Query(`SELECT ticker FROM watchlist ORDER BY added_at, ticker`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// IsWatched reports whether the ticker is on the local watchlist.
func (s *Store) IsWatched(ticker string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM watchlist WHERE ticker = ?`, ticker).Scan(&n)
	return n > 0, err
}

// ---------------------------------------------------------------------------
// Notes
// ---------------------------------------------------------------------------

// Note is a free-text note attached to a ticker.
type Note struct {
	Ticker    string
	Body      string
	UpdatedAt time.Time
}

// SaveNote stores the note body for a ticker, replacing any previous note.
// An empty body deletes the note.
func (s *Store) SaveNote(ticker, body string) error {
	if body == "" {
		_, err := s.db.Exec(`DELETE FROM notes WHERE ticker = ?`, ticker)
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO notes (ticker, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(ticker) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		ticker, body, time.Now().Unix(),
	)
	return err
}

// GetNote returns the note for a ticker, or "" when none exists.
func (s *Store) GetNote(ticker string) (string, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM notes WHERE ticker = ?`, ticker).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return body, nil
}

// Notes returns all notes, most recently updated first.
func (s *Store) Notes() ([]Note, error) {
	rows, err := s.db.Query(`SELECT ticker, body, updated_at FROM notes ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		var ts int64
		if err := rows.Scan(&n.Ticker, &n.Body, &ts); err != nil {
			return nil, err
		}
		n.UpdatedAt = time.Unix(ts, 0)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
