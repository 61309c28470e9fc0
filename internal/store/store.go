// Package store persists the client's local state in BadgerDB: the session
// token and username, the theme preference and the search history.
package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/iburimskiy/neural-nexus/internal/config"
	"github.com/iburimskiy/neural-nexus/internal/logging"
)

const (
	keyToken   = "token"
	keyUser    = "user"
	keyTheme   = "theme"
	keyHistory = "history"
)

// ErrNotFound is returned for a key that was never set or was cleared.
var ErrNotFound = errors.New("store: not found")

// HistoryEntry is one past search.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Open opens or creates the database under dir. An empty dir keeps
// everything in memory for the life of the process.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	opts = opts.WithLogger(newBadgerLogger(logging.WithComponent("badger")))

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already opened database.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) getString(key string) (string, error) {
	var out string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			out = string(val)
			return nil
		})
	})
	return out, err
}

func (s *Store) setString(key, value string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

// Token returns the stored bearer token or ErrNotFound.
func (s *Store) Token() (string, error) { return s.getString(keyToken) }

func (s *Store) SetToken(token string) error { return s.setString(keyToken, token) }

// Username returns the logged-in user or ErrNotFound.
func (s *Store) Username() (string, error) { return s.getString(keyUser) }

func (s *Store) SetUsername(name string) error { return s.setString(keyUser, name) }

// Theme returns "light", "dark" or ErrNotFound.
func (s *Store) Theme() (string, error) { return s.getString(keyTheme) }

func (s *Store) SetTheme(theme string) error { return s.setString(keyTheme, theme) }

// History returns past searches, newest first. An empty history is not an
// error.
func (s *Store) History() ([]HistoryEntry, error) {
	var out []HistoryEntry
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = readHistory(txn)
		return err
	})
	return out, err
}

// AddHistory records query at the front of the history and drops the
// oldest entries beyond the limit.
func (s *Store) AddHistory(query string, now time.Time) (HistoryEntry, error) {
	entry := HistoryEntry{ID: uuid.NewString(), Query: strings.TrimSpace(query), Timestamp: now}
	if entry.Query == "" {
		return HistoryEntry{}, errors.New("store: empty query")
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		hist, err := readHistory(txn)
		if err != nil {
			return err
		}
		hist = append([]HistoryEntry{entry}, hist...)
		if len(hist) > config.HistoryLimit {
			hist = hist[:config.HistoryLimit]
		}
		data, err := json.Marshal(hist)
		if err != nil {
			return fmt.Errorf("marshal history: %w", err)
		}
		return txn.Set([]byte(keyHistory), data)
	})
	if err != nil {
		return HistoryEntry{}, err
	}
	return entry, nil
}

func readHistory(txn *badger.Txn) ([]HistoryEntry, error) {
	item, err := txn.Get([]byte(keyHistory))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	var hist []HistoryEntry
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &hist)
	})
	if err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return hist, nil
}

// Logout forgets the session and the search history. The theme stays.
func (s *Store) Logout() error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range []string{keyToken, keyUser, keyHistory} {
			if err := txn.Delete([]byte(k)); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil
	})
}
