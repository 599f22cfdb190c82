package db

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/japaniel/userdict/pkg/wordcontext"
)

// Store is the user dictionary of a single locale. Calls on one Store are
// serialized; open a separate Store for concurrent readers.
type Store struct {
	mu     sync.Mutex
	conn   *sql.DB
	locale string
	owned  bool
}

// Open opens (creating if needed) the SQLite file at path and binds it to locale.
func Open(path, locale string) (*Store, error) {
	if locale == "" {
		return nil, fmt.Errorf("locale must be non-empty")
	}
	conn, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open user dictionary %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)
	if err := InitDB(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate user dictionary %s: %w", path, err)
	}
	return &Store{conn: conn, locale: locale, owned: true}, nil
}

// NewStore binds an already migrated connection to locale. The caller keeps
// ownership of conn.
func NewStore(conn *sql.DB, locale string) *Store {
	return &Store{conn: conn, locale: locale}
}

// Locale returns the locale the store is bound to.
func (s *Store) Locale() string { return s.locale }

// Close closes the connection if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.conn.Close()
}

// UpsertCandidate records one occurrence of word and returns its id.
func (s *Store) UpsertCandidate(word string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return UpsertCandidate(s.conn, s.locale, word)
}

// SetManual marks word as manually added, inserting it if needed.
func (s *Store) SetManual(word string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SetWordState(s.conn, s.locale, word, StateManuallyAdded)
}

// AddWordManually marks word as manually added and gives it a bare context
// when it has none yet.
func (s *Store) AddWordManually(word string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	id, err := SetWordState(tx, s.locale, word, StateManuallyAdded)
	if err != nil {
		return 0, err
	}
	n, err := CountContexts(tx, id)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		rec, _, err := GetWord(tx, s.locale, word)
		if err != nil {
			return 0, err
		}
		if _, err := InsertContext(tx, id, wordcontext.WordContext{Word: wordcontext.NewWord(rec.Text)}); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit manual add: %w", err)
	}
	return id, nil
}

// Block blacklists word. Blacklisted words are never shown and never promoted.
func (s *Store) Block(word string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SetWordState(s.conn, s.locale, word, StateBlacklisted)
}

// AppendContext always stores c as a new context of wordID.
func (s *Store) AppendContext(wordID int64, c wordcontext.WordContext) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return InsertContext(s.conn, wordID, c)
}

// ReplaceContext overwrites context contextID with c if the context belongs to
// the word of c. It returns false and changes nothing otherwise.
func (s *Store) ReplaceContext(contextID int64, c wordcontext.WordContext) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ReplaceContext(s.conn, s.locale, contextID, c)
}

// RemoveWord deletes word and its contexts. It reports whether the word existed.
func (s *Store) RemoveWord(word string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DeleteWord(s.conn, s.locale, word)
}

// ContainsWord reports whether word is a visible user word.
func (s *Store) ContainsWord(word string) (bool, error) {
	rec, ok, err := s.Lookup(word)
	if err != nil || !ok {
		return false, err
	}
	return rec.State.Visible(), nil
}

// Lookup returns the record of word in any state.
func (s *Store) Lookup(word string) (WordRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GetWord(s.conn, s.locale, word)
}

// GetUserWords returns the visible words in alphabetical order.
func (s *Store) GetUserWords() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ListVisibleWords(s.conn, s.locale)
}

// GetContexts returns the contexts of word in insertion order.
func (s *Store) GetContexts(word string) ([]wordcontext.WordContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := ListContexts(s.conn, s.locale, word)
	if err != nil {
		return nil, err
	}
	out := make([]wordcontext.WordContext, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Context)
	}
	return out, nil
}

// Reset deletes every word of the locale.
func (s *Store) Reset() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DeleteLocale(s.conn, s.locale)
}
