// Package document turns written text into the stream of windows a keyboard
// would report while the text is typed.
package document

import (
	"strings"
	"unicode"
)

// SplitSentences splits text after Japanese sentence delimiters, newlines,
// and ASCII '.', '!' or '?' followed by whitespace. Delimiters stay with the
// sentence they end; blank sentences are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if strings.TrimSpace(current.String()) != "" {
			sentences = append(sentences, current.String())
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		switch r {
		// 。(3002), ！(FF01), ？(FF1F)
		case '。', '！', '？', '\n':
			flush()
		case '.', '!', '?':
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()
	return sentences
}
