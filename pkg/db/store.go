package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/japaniel/userdict/pkg/wordcontext"
)

// ErrEmptyWord is returned when a word is empty or a boundary.
var ErrEmptyWord = errors.New("word must be non-empty")

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// normalizeWord returns the identity form of a word: trimmed and lower-cased.
func normalizeWord(word string) (string, error) {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return "", ErrEmptyWord
	}
	return w, nil
}

// UpsertCandidate records an occurrence of word. A new word starts as a
// candidate, a candidate seen again becomes a user word, and any other state
// is left alone. It returns the word id.
func UpsertCandidate(db DBExecutor, locale, word string) (int64, error) {
	w, err := normalizeWord(word)
	if err != nil {
		return 0, err
	}
	var id int64
	query := `INSERT INTO words (text, locale, state)
			  VALUES (?, ?, ?)
			  ON CONFLICT(text, locale)
			  DO UPDATE SET
			    state = CASE WHEN words.state = ? THEN ? ELSE words.state END,
			    updated_at = CURRENT_TIMESTAMP
			  RETURNING id`
	err = db.QueryRow(query, w, locale, StateCandidate, StateCandidate, StateUserWord).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert candidate %q: %w", w, err)
	}
	return id, nil
}

// SetWordState inserts word or overwrites its state unconditionally.
func SetWordState(db DBExecutor, locale, word string, state WordState) (int64, error) {
	w, err := normalizeWord(word)
	if err != nil {
		return 0, err
	}
	var id int64
	query := `INSERT INTO words (text, locale, state)
			  VALUES (?, ?, ?)
			  ON CONFLICT(text, locale)
			  DO UPDATE SET state = excluded.state, updated_at = CURRENT_TIMESTAMP
			  RETURNING id`
	if err := db.QueryRow(query, w, locale, state).Scan(&id); err != nil {
		return 0, fmt.Errorf("set state %s for %q: %w", state, w, err)
	}
	return id, nil
}

// InsertContext always adds a new context row for wordID.
func InsertContext(db DBExecutor, wordID int64, c wordcontext.WordContext) (int64, error) {
	if wordID <= 0 {
		return 0, fmt.Errorf("wordID must be positive")
	}
	res, err := db.Exec(`INSERT INTO contexts (word_id, second_before, first_before, first_after, second_after)
		VALUES (?, ?, ?, ?, ?)`,
		wordID, nullableString(c.SecondBefore), nullableString(c.FirstBefore),
		nullableString(c.FirstAfter), nullableString(c.SecondAfter))
	if err != nil {
		return 0, fmt.Errorf("insert context for word %d: %w", wordID, err)
	}
	return res.LastInsertId()
}

// ReplaceContext overwrites the slots of a context row, but only when the row
// belongs to the word of c in locale. It reports whether a row was updated.
func ReplaceContext(db DBExecutor, locale string, contextID int64, c wordcontext.WordContext) (bool, error) {
	w, err := normalizeWord(c.Word.Text())
	if err != nil {
		return false, nil
	}
	res, err := db.Exec(`UPDATE contexts
		SET second_before = ?, first_before = ?, first_after = ?, second_after = ?
		WHERE id = ? AND word_id = (SELECT id FROM words WHERE text = ? AND locale = ?)`,
		nullableString(c.SecondBefore), nullableString(c.FirstBefore),
		nullableString(c.FirstAfter), nullableString(c.SecondAfter),
		contextID, w, locale)
	if err != nil {
		return false, fmt.Errorf("replace context %d: %w", contextID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteWord removes word and, through the foreign key cascade, its contexts.
func DeleteWord(db DBExecutor, locale, word string) (bool, error) {
	w, err := normalizeWord(word)
	if err != nil {
		return false, err
	}
	res, err := db.Exec(`DELETE FROM words WHERE text = ? AND locale = ?`, w, locale)
	if err != nil {
		return false, fmt.Errorf("delete word %q: %w", w, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteLocale removes every word of locale and returns how many were deleted.
func DeleteLocale(db DBExecutor, locale string) (int64, error) {
	res, err := db.Exec(`DELETE FROM words WHERE locale = ?`, locale)
	if err != nil {
		return 0, fmt.Errorf("delete locale %q: %w", locale, err)
	}
	return res.RowsAffected()
}

// GetWord looks up word in locale.
func GetWord(db DBExecutor, locale, word string) (WordRecord, bool, error) {
	w, err := normalizeWord(word)
	if err != nil {
		return WordRecord{}, false, err
	}
	var rec WordRecord
	var state string
	err = db.QueryRow(`SELECT id, text, locale, state, created_at, updated_at FROM words WHERE text = ? AND locale = ?`, w, locale).
		Scan(&rec.ID, &rec.Text, &rec.Locale, &state, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return WordRecord{}, false, nil
	}
	if err != nil {
		return WordRecord{}, false, fmt.Errorf("get word %q: %w", w, err)
	}
	if rec.State, err = ParseWordState(state); err != nil {
		return WordRecord{}, false, err
	}
	return rec, true, nil
}

// ListVisibleWords returns the user words and manually added words of locale
// in alphabetical order.
func ListVisibleWords(db DBExecutor, locale string) ([]string, error) {
	rows, err := db.Query(`SELECT text FROM words WHERE locale = ? AND state IN (?, ?) ORDER BY text`,
		locale, StateUserWord, StateManuallyAdded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListContexts returns the recorded contexts of word in insertion order. The
// word slot of each context holds the stored, lower-cased text.
func ListContexts(db DBExecutor, locale, word string) ([]ContextRecord, error) {
	w, err := normalizeWord(word)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT c.id, c.word_id, w.text, c.second_before, c.first_before, c.first_after, c.second_after
		FROM contexts c JOIN words w ON w.id = c.word_id
		WHERE w.text = ? AND w.locale = ?
		ORDER BY c.id`, w, locale)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ContextRecord
	for rows.Next() {
		var rec ContextRecord
		var text string
		var secondBefore, firstBefore, firstAfter, secondAfter sql.NullString
		if err := rows.Scan(&rec.ID, &rec.WordID, &text, &secondBefore, &firstBefore, &firstAfter, &secondAfter); err != nil {
			return nil, err
		}
		rec.Context = wordcontext.WordContext{
			SecondBefore: secondBefore.String,
			FirstBefore:  firstBefore.String,
			Word:         wordcontext.NewWord(text),
			FirstAfter:   firstAfter.String,
			SecondAfter:  secondAfter.String,
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountContexts returns how many contexts are recorded for wordID.
func CountContexts(db DBExecutor, wordID int64) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM contexts WHERE word_id = ?`, wordID).Scan(&n)
	return n, err
}

// nullableString returns nil for "" (an absent slot) else the value.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
