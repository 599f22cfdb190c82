package wordcontext

import "strings"

const separators = " \n"

// FromText builds the window for a cursor placed between before and after.
// The current word is the text touching the cursor; up to two words are taken
// on each side. A newline ends the window on its side.
func FromText(before, after string) WordContext {
	var c WordContext

	left := before
	leftIdx := strings.LastIndexAny(before, separators)
	if leftIdx >= 0 {
		left = before[leftIdx+1:]
	}
	right := after
	rightIdx := strings.IndexAny(after, separators)
	if rightIdx >= 0 {
		right = after[:rightIdx]
	}
	c.Word = NewWord(left + right)

	if leftIdx >= 0 && before[leftIdx] != '\n' {
		prefix := before[:leftIdx]
		if nl := strings.LastIndexByte(prefix, '\n'); nl >= 0 {
			prefix = prefix[nl+1:]
		}
		words := strings.Fields(prefix)
		switch n := len(words); {
		case n >= 2:
			c.SecondBefore, c.FirstBefore = words[n-2], words[n-1]
		case n == 1:
			c.FirstBefore = words[0]
		}
	}

	if rightIdx >= 0 && after[rightIdx] != '\n' {
		suffix := after[rightIdx+1:]
		if nl := strings.IndexByte(suffix, '\n'); nl >= 0 {
			suffix = suffix[:nl]
		}
		words := strings.Fields(suffix)
		switch n := len(words); {
		case n >= 2:
			c.FirstAfter, c.SecondAfter = words[0], words[1]
		case n == 1:
			c.FirstAfter = words[0]
		}
	}

	return c
}
