package speller

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Lexicon is an in-memory word list used as an Oracle. Lookups ignore case.
type Lexicon struct {
	// words is replaced wholesale on reload while lookups run concurrently.
	mu    sync.RWMutex
	words map[string]struct{}
}

// NewLexicon builds a lexicon from words.
func NewLexicon(words []string) *Lexicon {
	l := &Lexicon{}
	l.Replace(words)
	return l
}

// LoadLexicon reads a word list file. See ReadWords for the accepted formats.
func LoadLexicon(path string) (*Lexicon, error) {
	words, err := ReadWords(path)
	if err != nil {
		return nil, err
	}
	return NewLexicon(words), nil
}

// Replace swaps the word set.
func (l *Lexicon) Replace(words []string) {
	idx := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			idx[w] = struct{}{}
		}
	}
	l.mu.Lock()
	l.words = idx
	l.mu.Unlock()
}

// Reload re-reads path. On error the current words are kept.
func (l *Lexicon) Reload(path string) error {
	words, err := ReadWords(path)
	if err != nil {
		return err
	}
	l.Replace(words)
	return nil
}

// IsKnown reports whether word is in the lexicon.
func (l *Lexicon) IsKnown(word string) bool {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return false
	}
	l.mu.RLock()
	_, ok := l.words[w]
	l.mu.RUnlock()
	return ok
}

// Len returns the number of distinct words.
func (l *Lexicon) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.words)
}

// ReadWords reads a word list. JSON files hold either an array or an object
// {"words": [...]} whose items are words or jmdict-simplified entries.
// Anything else is read as text with one word per line; blank lines and lines
// starting with '#' are skipped, a leading count line and "/FLAGS" suffixes
// (hunspell .dic files) are ignored.
func ReadWords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return parseJSONWords(trimmed)
	}
	return parseTextWords(data)
}

// jmdictEntry is the part of a jmdict-simplified entry that names a word.
type jmdictEntry struct {
	Kanji []struct {
		Text string `json:"text"`
	} `json:"kanji"`
	Kana []struct {
		Text string `json:"text"`
	} `json:"kana"`
}

func parseJSONWords(data []byte) ([]string, error) {
	var items []json.RawMessage
	var wrapped struct {
		Words []json.RawMessage `json:"words"`
	}
	// Try parsing as full object wrapper first { "words": [...] }
	if err := json.Unmarshal(data, &wrapped); err == nil {
		items = wrapped.Words
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse word list as object or array: %w", err)
	}

	var words []string
	for i, raw := range items {
		var w string
		if err := json.Unmarshal(raw, &w); err == nil {
			words = append(words, w)
			continue
		}
		// jmdict-simplified entries contribute every kanji and kana spelling.
		var entry jmdictEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("word list item %d: %w", i, err)
		}
		for _, k := range entry.Kanji {
			words = append(words, k.Text)
		}
		for _, k := range entry.Kana {
			words = append(words, k.Text)
		}
	}
	return words, nil
}

func parseTextWords(data []byte) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if first {
			first = false
			if _, err := strconv.Atoi(line); err == nil {
				continue
			}
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '/'); i > 0 {
			line = line[:i]
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
