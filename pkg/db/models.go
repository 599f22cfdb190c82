package db

import (
	"fmt"
	"time"

	"github.com/japaniel/userdict/pkg/wordcontext"
)

// WordState is the lifecycle state of a learned word.
type WordState string

const (
	// StateCandidate marks a word seen once; it is not visible to consumers.
	StateCandidate WordState = "candidate"
	// StateUserWord marks a word seen at least twice.
	StateUserWord WordState = "user_word"
	// StateManuallyAdded marks a word the user added explicitly.
	StateManuallyAdded WordState = "manually_added"
	// StateBlacklisted suppresses a word permanently.
	StateBlacklisted WordState = "blacklisted"
)

// Visible reports whether words in state s are offered to the rest of the keyboard.
func (s WordState) Visible() bool {
	return s == StateUserWord || s == StateManuallyAdded
}

// ParseWordState converts a stored state name.
func ParseWordState(s string) (WordState, error) {
	switch st := WordState(s); st {
	case StateCandidate, StateUserWord, StateManuallyAdded, StateBlacklisted:
		return st, nil
	}
	return "", fmt.Errorf("unknown word state %q", s)
}

// WordRecord is a learned word in one locale. Text is stored lower-cased.
type WordRecord struct {
	ID        int64
	Text      string
	Locale    string
	State     WordState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContextRecord is one recorded occurrence of a word.
type ContextRecord struct {
	ID      int64
	WordID  int64
	Context wordcontext.WordContext
}
