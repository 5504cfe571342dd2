// Package store provides SQLite-based persistence for chat sessions.
// The database is opened lazily and created on first use.
// Each authenticated identity owns a single record holding its full session
// list; saves overwrite that record wholesale. If opening the DB fails, the
// package falls back to in-memory storage.
package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/oykum/carelink-go/internal/logger"
)

// Store persists per-user session lists.
type Store struct {
	mu   sync.Mutex
	path string

	dbOnce  sync.Once
	db      *sql.DB
	initErr error

	mem map[string][]byte // in-memory fallback
}

// New creates a store backed by the SQLite file at path.
func New(path string) *Store {
	return &Store{
		path: path,
		mem:  make(map[string][]byte),
	}
}

// initDB lazily opens the SQLite database and creates the sessions table if it
// doesn't exist.
func (s *Store) initDB() {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.initErr = err
			logger.L.Warn("storage dir creation failed; using in-memory sessions", "error", err)
			return
		}
	}
	db, err := sql.Open("sqlite", "file:"+s.path+"?_busy_timeout=10000")
	if err != nil {
		s.initErr = err
		logger.L.Warn("sqlite open failed; using in-memory sessions", "error", err)
		return
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS chat_sessions (
		user_id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`); err != nil {
		s.initErr = err
		logger.L.Warn("sqlite table creation failed; using in-memory sessions", "error", err)
		return
	}
	s.db = db
	logger.L.Debug("session DB initialized", "path", s.path)
}

// Load returns the saved sessions for a user, sorted by UpdatedAt descending.
// A missing or unreadable record yields an empty result; the caller then
// seeds a fresh session.
func (s *Store) Load(userID string) []Session {
	s.dbOnce.Do(s.initDB)
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw []byte
	if s.initErr == nil && s.db != nil {
		var data string
		err := s.db.QueryRow(`SELECT data FROM chat_sessions WHERE user_id = ?;`, userID).Scan(&data)
		switch {
		case err == sql.ErrNoRows:
			return nil
		case err != nil:
			logger.L.Warn("session load failed; treating as no saved sessions", "error", err)
			return nil
		}
		raw = []byte(data)
	} else {
		raw = s.mem[userID]
		if raw == nil {
			return nil
		}
	}

	var sessions []Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		logger.L.Warn("session record unreadable; treating as no saved sessions", "user_id", userID, "error", err)
		return nil
	}
	SortByRecency(sessions)
	return sessions
}

// Save overwrites the user's whole session record. Callers must pass the
// complete current list on every mutation; there are no partial writes.
func (s *Store) Save(userID string, sessions []Session) error {
	s.dbOnce.Do(s.initDB)
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(sessions)
	if err != nil {
		return err
	}

	if s.initErr == nil && s.db != nil {
		_, err = s.db.Exec(`INSERT INTO chat_sessions (user_id, data, updated_at) VALUES (?,?,?)
			ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at;`,
			userID, string(data), time.Now().UTC())
		if err == nil {
			return nil
		}
		logger.L.Error("failed to store sessions in sqlite; falling back to memory", "error", err)
	}

	s.mem[userID] = data
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}
