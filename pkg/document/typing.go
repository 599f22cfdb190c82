package document

import (
	"strings"

	"github.com/japaniel/userdict/pkg/wordcontext"
)

// Type simulates typing words separated by single spaces, followed by a final
// space. It returns the window seen after every keystroke, with the cursor at
// the end of the typed text.
func Type(words []string) []wordcontext.WordContext {
	var windows []wordcontext.WordContext
	// Only the last two committed words can reach a window.
	var tail []string
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		prefix := ""
		if len(tail) > 0 {
			prefix = strings.Join(tail, " ") + " "
		}
		runes := []rune(w)
		for i := 1; i <= len(runes); i++ {
			windows = append(windows, wordcontext.FromText(prefix+string(runes[:i]), ""))
		}
		tail = append(tail, w)
		if len(tail) > 2 {
			tail = tail[len(tail)-2:]
		}
		windows = append(windows, wordcontext.FromText(strings.Join(tail, " ")+" ", ""))
	}
	return windows
}

// Windows segments text sentence by sentence and types every sentence.
func Windows(text string, seg Segmenter) ([]wordcontext.WordContext, error) {
	var windows []wordcontext.WordContext
	for _, s := range SplitSentences(text) {
		words, err := seg.Segment(s)
		if err != nil {
			return nil, err
		}
		windows = append(windows, Type(words)...)
	}
	return windows, nil
}
