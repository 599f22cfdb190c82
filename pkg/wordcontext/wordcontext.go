// Package wordcontext models the five-slot text window around the cursor and
// the relations the tracker uses to compare consecutive windows.
package wordcontext

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSkippedSlot is returned when a window has an outer slot set while the
// inner slot on the same side is empty.
var ErrSkippedSlot = errors.New("wordcontext: outer slot set without inner slot")

// Word is the slot under the cursor. The zero value is Boundary: the cursor
// sits between words.
type Word struct {
	text string
}

// Boundary is the Word value for a cursor that is not inside a word.
var Boundary = Word{}

// NewWord returns a Word for text. Empty text yields Boundary.
func NewWord(text string) Word {
	return Word{text: text}
}

// IsBoundary reports whether w marks a position between words.
func (w Word) IsBoundary() bool { return w.text == "" }

// Text returns the word text, or "" for Boundary.
func (w Word) Text() string { return w.text }

func (w Word) String() string {
	if w.IsBoundary() {
		return "<boundary>"
	}
	return w.text
}

// WordContext is an immutable window of up to two words on each side of the
// current word. Optional slots use "" for absent.
type WordContext struct {
	SecondBefore string
	FirstBefore  string
	Word         Word
	FirstAfter   string
	SecondAfter  string
}

// New builds a validated window.
func New(secondBefore, firstBefore, word, firstAfter, secondAfter string) (WordContext, error) {
	c := WordContext{
		SecondBefore: secondBefore,
		FirstBefore:  firstBefore,
		Word:         NewWord(word),
		FirstAfter:   firstAfter,
		SecondAfter:  secondAfter,
	}
	if err := c.Validate(); err != nil {
		return WordContext{}, err
	}
	return c, nil
}

// Validate checks that no side of the window skips a slot.
func (c WordContext) Validate() error {
	if c.SecondBefore != "" && c.FirstBefore == "" {
		return fmt.Errorf("%w: second before %q", ErrSkippedSlot, c.SecondBefore)
	}
	if c.SecondAfter != "" && c.FirstAfter == "" {
		return fmt.Errorf("%w: second after %q", ErrSkippedSlot, c.SecondAfter)
	}
	return nil
}

// IsContinuation reports whether c is the same word as other with exactly one
// character typed or deleted at its end, every other slot unchanged.
func (c WordContext) IsContinuation(other WordContext) bool {
	if c.SecondBefore != other.SecondBefore ||
		c.FirstBefore != other.FirstBefore ||
		c.FirstAfter != other.FirstAfter ||
		c.SecondAfter != other.SecondAfter {
		return false
	}
	a, b := []rune(c.Word.text), []rune(other.Word.text)
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(a) != len(b)+1 {
		return false
	}
	return string(a[:len(b)]) == string(b)
}

// IsVariationOf reports whether the present slots of one window, read in
// order, appear as a contiguous run inside the present slots of the other.
func (c WordContext) IsVariationOf(other WordContext) bool {
	a, b := c.sequence(), other.sequence()
	return containsRun(a, b) || containsRun(b, a)
}

// IsLeftShiftedVariationOf reports whether c is the window one committed word
// further right than other.
func (c WordContext) IsLeftShiftedVariationOf(other WordContext) bool {
	if c == other {
		return false
	}
	if c.SecondBefore != other.FirstBefore {
		return false
	}
	// An absent slot never equals a boundary.
	return !other.Word.IsBoundary() && c.FirstBefore == other.Word.text
}

// Adding extends c forward with the word of other, a window one step ahead of
// c. It fails when other is not left-shifted from c, when other sits on a
// boundary, or when both after slots are already filled.
func (c WordContext) Adding(other WordContext) (WordContext, bool) {
	if other.Word.IsBoundary() || !other.IsLeftShiftedVariationOf(c) {
		return WordContext{}, false
	}
	out := c
	switch {
	case c.FirstAfter == "":
		out.FirstAfter = other.Word.text
	case c.SecondAfter == "":
		out.SecondAfter = other.Word.text
	default:
		return WordContext{}, false
	}
	return out, true
}

// IsMoreDesirableThan reports whether c carries more surrounding words than other.
func (c WordContext) IsMoreDesirableThan(other WordContext) bool {
	return c.filledSlots() > other.filledSlots()
}

func (c WordContext) filledSlots() int {
	n := 0
	for _, s := range []string{c.SecondBefore, c.FirstBefore, c.FirstAfter, c.SecondAfter} {
		if s != "" {
			n++
		}
	}
	return n
}

func (c WordContext) sequence() []string {
	seq := make([]string, 0, 5)
	for _, s := range []string{c.SecondBefore, c.FirstBefore, c.Word.text, c.FirstAfter, c.SecondAfter} {
		if s != "" {
			seq = append(seq, s)
		}
	}
	return seq
}

// containsRun reports whether needle occurs contiguously in haystack.
func containsRun(haystack, needle []string) bool {
	if len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Snippet renders the window for display, bracketing the word and adding an
// ellipsis on each side that holds surrounding words.
func (c WordContext) Snippet() string {
	var parts []string
	for _, s := range []string{c.SecondBefore, c.FirstBefore} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, "["+c.Word.text+"]")
	for _, s := range []string{c.FirstAfter, c.SecondAfter} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	out := strings.Join(parts, " ")
	if c.FirstBefore != "" {
		out = "... " + out
	}
	if c.FirstAfter != "" {
		out += " ..."
	}
	return out
}

func (c WordContext) String() string {
	return fmt.Sprintf("{%q %q %s %q %q}", c.SecondBefore, c.FirstBefore, c.Word, c.FirstAfter, c.SecondAfter)
}
